package combat

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/taskverse/internal/physics"
	"github.com/annel0/taskverse/internal/vec"
	"github.com/annel0/taskverse/internal/world"
)

func newTestRegistry() *world.Registry {
	return world.NewRegistry(world.NewSpace(10000))
}

func TestPool_FireRespectsCooldown(t *testing.T) {
	p := NewPool(DefaultSpecs()[WeaponRifle], world.NewSpace(10000))
	t0 := time.Unix(1000, 0)

	_, err := p.Fire(t0, "me", vec.New(100, 100), 0, vec.Vec2{}, "")
	require.NoError(t, err)

	_, err = p.Fire(t0.Add(100*time.Millisecond), "me", vec.New(100, 100), 0, vec.Vec2{}, "")
	assert.ErrorIs(t, err, ErrCooldown)

	_, err = p.Fire(t0.Add(150*time.Millisecond), "me", vec.New(100, 100), 0, vec.Vec2{}, "")
	assert.NoError(t, err)
	assert.Equal(t, 2, p.Len())
}

func TestPool_InheritsShooterVelocity(t *testing.T) {
	p := NewPool(DefaultSpecs()[WeaponRifle], world.NewSpace(10000))
	pr, err := p.Fire(time.Unix(0, 0), "me", vec.New(0, 0), 0, vec.New(3, 0), "")
	require.NoError(t, err)
	assert.InDelta(t, 17, pr.Vel.X, 1e-9)
}

func TestPool_ExpiresByLife(t *testing.T) {
	spec := DefaultSpecs()[WeaponRifle]
	p := NewPool(spec, world.NewSpace(10000))
	_, err := p.Fire(time.Unix(0, 0), "me", vec.New(100, 100), 0, vec.Vec2{}, "")
	require.NoError(t, err)

	p.Update(spec.Life-1, nil)
	assert.Equal(t, 1, p.Len())
	p.Update(1, nil)
	assert.Equal(t, 0, p.Len())
}

func TestPool_HomingTurnRateLimited(t *testing.T) {
	spec := DefaultSpecs()[WeaponRocket]
	reg := newTestRegistry()
	reg.Upsert(world.Planet{ID: "rock", Kind: world.KindAsteroid, Pos: vec.New(1000, 3000), Radius: 20, Health: 50})

	p := NewPool(spec, reg.Space())
	pr, err := p.Fire(time.Unix(0, 0), "me", vec.New(1000, 1000), 0, vec.Vec2{}, "rock")
	require.NoError(t, err)
	require.InDelta(t, 0, pr.Rotation(), 1e-9)

	targets := PlanetTargets(reg, vec.New(1000, 1000), 5000)
	p.Update(1, targets)

	got := p.Projectiles()
	require.Len(t, got, 1)
	assert.InDelta(t, spec.MaxTurn, got[0].Rotation(), 1e-9, "поворот ограничен MaxTurn за тик")
	assert.InDelta(t, spec.Speed, got[0].Vel.Length(), 1e-9, "скорость постоянна")
}

func TestPool_ShieldReflects(t *testing.T) {
	spec := DefaultSpecs()[WeaponRifle]
	reg := newTestRegistry()
	reg.Upsert(world.Planet{ID: "task", Kind: world.KindTask, Pos: vec.New(1000, 1000), Radius: 30})

	p := NewPool(spec, reg.Space())
	_, err := p.Fire(time.Unix(0, 0), "me", vec.New(960, 1000), 0, vec.Vec2{}, "")
	require.NoError(t, err)

	hits := p.Update(1, PlanetTargets(reg, vec.New(1000, 1000), 500))
	require.Len(t, hits, 1)
	assert.True(t, hits[0].Reflected)
	assert.Zero(t, hits[0].Damage)

	alive := p.Projectiles()
	require.Len(t, alive, 1, "отражённый снаряд продолжает полёт")
	assert.Less(t, alive[0].Vel.X, 0.0)
	assert.InDelta(t, spec.Speed*spec.ReflectDamping, alive[0].Vel.Length(), 1e-6)
}

func TestPool_DestructibleTakesDamageOnce(t *testing.T) {
	spec := DefaultSpecs()[WeaponRifle]
	reg := newTestRegistry()
	reg.Upsert(world.Planet{ID: "rock", Kind: world.KindAsteroid, Pos: vec.New(1000, 1000), Radius: 20, Health: spec.Damage, MaxHealth: 10})

	p := NewPool(spec, reg.Space())
	_, err := p.Fire(time.Unix(0, 0), "me", vec.New(970, 1000), 0, vec.Vec2{}, "")
	require.NoError(t, err)

	hits := p.Update(1, PlanetTargets(reg, vec.New(1000, 1000), 500))
	require.Len(t, hits, 1)
	assert.True(t, hits[0].Destroyed)
	assert.Equal(t, "rock", hits[0].TargetID)
	assert.Equal(t, 0, p.Len(), "снаряд гибнет при попадании")

	rock, ok := reg.Get("rock")
	require.True(t, ok)
	assert.Zero(t, rock.Health)
}

func TestPool_SkipsOwner(t *testing.T) {
	spec := DefaultSpecs()[WeaponRifle]
	reg := newTestRegistry()
	reg.Upsert(world.Planet{ID: "rock", Kind: world.KindAsteroid, Pos: vec.New(1000, 1000), Radius: 20, Health: 50})

	p := NewPool(spec, reg.Space())
	p.Spawn("rock", vec.New(1000, 1000), vec.New(1, 0), "")
	assert.Empty(t, p.Update(1, PlanetTargets(reg, vec.New(1000, 1000), 500)))
}

func TestPool_EchoNeverCollides(t *testing.T) {
	spec := DefaultSpecs()[WeaponPlasma]
	reg := newTestRegistry()
	reg.Upsert(world.Planet{ID: "rock", Kind: world.KindAsteroid, Pos: vec.New(1000, 1000), Radius: 20, Health: 50})

	p := NewPool(spec, reg.Space())
	p.SpawnEcho("other", vec.New(990, 1000), vec.New(spec.Speed, 0), "")

	hits := p.Update(1, PlanetTargets(reg, vec.New(1000, 1000), 500))
	assert.Empty(t, hits)
	require.Len(t, p.Echoes(), 1)
	assert.InDelta(t, 990+spec.Speed, p.Echoes()[0].Pos.X, 1e-9)

	rock, _ := reg.Get("rock")
	assert.Equal(t, 50.0, rock.Health)
}

func TestPool_WrapsAcrossEdge(t *testing.T) {
	p := NewPool(DefaultSpecs()[WeaponRifle], world.NewSpace(10000))
	p.Spawn("me", vec.New(9995, 10), vec.New(10, 0), "")
	p.Update(1, nil)
	got := p.Projectiles()
	require.Len(t, got, 1)
	assert.InDelta(t, 5, got[0].Pos.X, 1e-9)
}

func TestArsenal_FireUnknownWeapon(t *testing.T) {
	specs := DefaultSpecs()
	delete(specs, WeaponNuke)
	a := NewArsenal(world.NewSpace(10000), specs)

	_, err := a.Fire(WeaponNuke, time.Unix(0, 0), "me", vec.Vec2{}, 0, vec.Vec2{}, "")
	assert.Error(t, err)

	_, err = a.Fire(WeaponRifle, time.Unix(0, 0), "me", vec.New(10, 10), 0, vec.Vec2{}, "")
	require.NoError(t, err)
	assert.Len(t, a.Projectiles(), 1)
}

func TestParseWeaponKind(t *testing.T) {
	for _, k := range []WeaponKind{WeaponRifle, WeaponPlasma, WeaponRocket, WeaponNuke, WeaponBossBullet} {
		got, err := ParseWeaponKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseWeaponKind("laser")
	assert.Error(t, err)
}

func TestPattern_NoImmediateRepeat(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	last := PatternNone
	for i := 0; i < 500; i++ {
		next := pickPattern(rng, last)
		assert.NotEqual(t, last, next)
		last = next
	}
}

func TestPattern_ShotsIndependentOfStep(t *testing.T) {
	p := NewPattern(PatternFan)
	count := func(step float64) int {
		total := 0
		for t := 0.0; t < p.Duration; t += step {
			total += len(p.ShotsBetween(t, t+step, 0, nil))
		}
		return total
	}
	assert.Equal(t, 35, count(1))
	assert.Equal(t, 35, count(0.37))
	assert.Equal(t, 35, count(7))
}

func TestPattern_RadialCoversCircle(t *testing.T) {
	shots := NewPattern(PatternRadial).ShotsBetween(0, 1, 0, nil)
	require.Len(t, shots, 16)
	assert.InDelta(t, 2*math.Pi/16, shots[1].Angle-shots[0].Angle, 1e-9)
}

func TestPlayerVitals_DefeatFiresOnce(t *testing.T) {
	v := NewPlayerVitals(20)
	assert.False(t, v.Damage(15))
	assert.True(t, v.Damage(15))
	assert.Zero(t, v.Health)
	assert.False(t, v.Damage(15), "повторное поражение не сообщается")
	assert.True(t, v.Defeated())

	v.Respawn()
	assert.False(t, v.Defeated())
	assert.Equal(t, 20.0, v.Health)
}

func recordStates(b *Boss) *[]BossState {
	var got []BossState
	b.AddObserver(BossObserverFunc(func(_, to BossState) { got = append(got, to) }))
	return &got
}

func TestBoss_HealthFloorLeadsToSurrender(t *testing.T) {
	cfg := DefaultBossConfig()
	b := NewBoss("boss", vec.New(5000, 5000), cfg, world.NewSpace(10000), 1, nil)
	states := recordStates(b)

	require.True(t, b.Start())
	assert.False(t, b.Start(), "повторный старт игнорируется")

	b.ApplyDamage(100)
	assert.Equal(t, cfg.MaxHealth, b.Health, "во время появления урон не проходит")

	b.Update(cfg.IntroTicks, Arena{})
	require.Equal(t, BossActive, b.State())

	assert.Equal(t, 1.0, b.ApplyDamage(cfg.MaxHealth*10))
	assert.Equal(t, 1.0, b.ApplyDamage(50), "здоровье не опускается ниже 1")

	b.Update(1, Arena{})
	assert.Equal(t, BossSurrendered, b.State())
	assert.Empty(t, b.Projectiles())

	b.Update(cfg.SurrenderTicks, Arena{})
	assert.Equal(t, BossLootDrop, b.State())
	b.Update(cfg.LootTicks, Arena{})
	assert.Equal(t, BossVictory, b.State())
	assert.Equal(t, 1.0, b.Health)

	assert.Equal(t, []BossState{BossIntro, BossActive, BossSurrendered, BossLootDrop, BossVictory}, *states)
}

func TestBoss_PlayerDefeatAndRespawn(t *testing.T) {
	cfg := DefaultBossConfig()
	space := world.NewSpace(10000)
	b := NewBoss("boss", vec.New(5000, 5000), cfg, space, 1, nil)
	states := recordStates(b)

	ship := physics.NewShip(vec.New(5010, 5000), physics.Modifiers{})
	vitals := NewPlayerVitals(cfg.ContactDamage)
	arena := Arena{PlayerID: "me", Ship: ship, ShipRadius: 20, Vitals: vitals, RespawnPos: vec.New(100, 100)}

	b.Start()
	b.Update(cfg.IntroTicks, arena)
	require.Equal(t, BossActive, b.State())

	b.Update(1, arena)
	assert.True(t, vitals.Defeated(), "касание корпуса наносит урон")
	assert.Greater(t, ship.Vel.X, 0.0, "корабль отброшен от босса")
	assert.True(t, ship.InKnockback())

	b.Update(1, arena)
	assert.Equal(t, BossPlayerDefeated, b.State())
	assert.Greater(t, b.Health, 1.0, "поражение игрока не зависит от здоровья босса")

	b.Update(cfg.DefeatTicks, arena)
	assert.Equal(t, BossRespawn, b.State())
	b.Update(1, arena)
	assert.Equal(t, BossInactive, b.State())

	assert.False(t, vitals.Defeated())
	assert.Equal(t, vec.New(100, 100), ship.Pos)
	assert.Equal(t, cfg.MaxHealth, b.Health)
	assert.Equal(t, []BossState{BossIntro, BossActive, BossPlayerDefeated, BossRespawn, BossInactive}, *states)
}

func TestBoss_ContactCooldown(t *testing.T) {
	cfg := DefaultBossConfig()
	b := NewBoss("boss", vec.New(5000, 5000), cfg, world.NewSpace(10000), 3, nil)
	ship := physics.NewShip(vec.New(5000, 5050), physics.Modifiers{})
	vitals := NewPlayerVitals(1000)
	arena := Arena{PlayerID: "me", Ship: ship, ShipRadius: 20, Vitals: vitals}

	b.Start()
	b.Update(cfg.IntroTicks, arena)
	b.Update(1, arena)
	after := vitals.Health
	assert.Equal(t, 1000-cfg.ContactDamage, after)

	ship.Teleport(vec.New(5000, 5050))
	b.Update(1, arena)
	assert.Equal(t, after, vitals.Health, "урон касанием на перезарядке")
}

func TestBoss_FiresPatternsWhenActive(t *testing.T) {
	cfg := DefaultBossConfig()
	b := NewBoss("boss", vec.New(5000, 5000), cfg, world.NewSpace(10000), 42, nil)
	b.Start()
	b.Update(cfg.IntroTicks, Arena{})
	for i := 0; i < int(cfg.PatternCooldown); i++ {
		b.Update(1, Arena{})
	}
	assert.NotEmpty(t, b.Projectiles())
}

func TestBoss_Enraged(t *testing.T) {
	cfg := DefaultBossConfig()
	b := NewBoss("boss", vec.Vec2{}, cfg, world.NewSpace(10000), 1, nil)
	assert.False(t, b.Enraged())
	b.Health = cfg.MaxHealth * cfg.EnrageFraction
	assert.True(t, b.Enraged())
}

func TestBossTarget_ReflectsOutsideActive(t *testing.T) {
	b := NewBoss("boss", vec.New(1000, 1000), DefaultBossConfig(), world.NewSpace(10000), 1, nil)
	assert.True(t, b.Target().Shielded())
	assert.False(t, b.Target().TakeDamage(10))
}
