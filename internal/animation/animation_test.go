package animation

import (
	"errors"
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

func newTestDirector(t *testing.T) (*Director, *world.Registry, *[]Completion) {
	t.Helper()
	reg := world.NewRegistry(world.NewSpace(10000))
	d := NewDirector(reg, DefaultConfig(), nil)
	var done []Completion
	d.AddObserver(ObserverFunc(func(c Completion) { done = append(done, c) }))
	return d, reg, &done
}

func TestProgress_HoldAndMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	c := NewClaim("p", vec.New(0, 0), 0, vec.New(50, 0), nil)

	prev := 0.0
	for i := 0; i < 600 && c.Active(); i++ {
		if i == 300 {
			require.NoError(t, c.ResolveTarget(vec.New(1000, 0)))
		}
		c.Step(rng.Float64() * 3)
		p := c.Progress()
		assert.GreaterOrEqual(t, p, prev, "progress не убывает")
		if i < 300 {
			assert.LessOrEqual(t, p, transitFrom-HoldEpsilon+1e-12, "удержание перед перелётом")
		}
		assert.Equal(t, c.PhaseAt(p), c.Phase())
		prev = p
	}
	assert.False(t, c.Active())
	assert.Equal(t, 1.0, c.Progress())
}

func TestPhaseThresholds(t *testing.T) {
	w := NewWarp(vec.New(0, 0), 0, vec.New(100, 0))
	cases := []struct {
		p    float64
		want Phase
	}{
		{0, PhaseCharging},
		{0.2499, PhaseCharging},
		{0.25, PhaseFlash},
		{0.35, PhaseTransit},
		{0.8499, PhaseTransit},
		{0.85, PhaseArrival},
		{1, PhaseArrival},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, w.PhaseAt(tc.p), "p=%v", tc.p)
	}

	d := NewDestroy("x", "", vec.New(0, 0), 10)
	assert.Equal(t, PhaseShake, d.PhaseAt(0.1))
	assert.Equal(t, PhaseBreak, d.PhaseAt(0.5))
	assert.Equal(t, PhaseFade, d.PhaseAt(0.9))
}

func TestPoseIsPureFunctionOfProgress(t *testing.T) {
	anims := []Animation{
		NewWarp(vec.New(100, 100), 0.3, vec.New(900, -400)),
		NewPortal(vec.New(10, 10), 1, vec.New(5000, 5000)),
		NewNuke(vec.New(0, 0), 0, vec.New(1200, 300)),
		NewLanding(LandingParams{Start: vec.New(300, 0), Center: vec.New(0, 0), PlanetRadius: 100, ShipRadius: 20}, 1.5),
		NewDestroy("a", "", vec.New(40, 40), 30),
	}
	for _, a := range anims {
		type sample struct {
			p    float64
			pose Pose
			ph   Phase
		}
		var seen []sample
		for a.Active() {
			a.Step(0.7)
			seen = append(seen, sample{a.Progress(), a.PoseAt(a.Progress()), a.Phase()})
		}
		require.NotEmpty(t, seen, a.Kind().String())
		for _, s := range seen {
			assert.Equal(t, s.pose, a.PoseAt(s.p), "%s p=%v", a.Kind(), s.p)
			assert.Equal(t, s.ph, a.PhaseAt(s.p), "%s p=%v", a.Kind(), s.p)
		}
	}
}

func TestProgress_FrameRateIndependent(t *testing.T) {
	a := NewWarp(vec.New(0, 0), 0, vec.New(1000, 0))
	b := NewWarp(vec.New(0, 0), 0, vec.New(1000, 0))
	for i := 0; i < 60; i++ {
		a.Step(1)
		b.Step(0.5)
		b.Step(0.5)
	}
	assert.InDelta(t, a.Progress(), b.Progress(), 1e-9)
	assert.InDelta(t, a.Pose().Pos.X, b.Pose().Pos.X, 1e-6)
}

func TestTransit_EaseInOut(t *testing.T) {
	w := NewWarp(vec.New(0, 0), 0, vec.New(1000, 0))
	start := w.PoseAt(transitFrom).Pos.X
	mid := w.PoseAt((transitFrom + arrivalFrom) / 2).Pos.X
	end := w.PoseAt(arrivalFrom).Pos.X

	assert.InDelta(t, 0, start, 1e-9)
	assert.InDelta(t, 500, mid, 1e-6)
	assert.InDelta(t, 1000, end, 1e-9)
	// Медленно в начале: первая десятая перелёта проходит меньше 1% пути
	early := w.PoseAt(transitFrom + 0.05).Pos.X
	assert.Less(t, early, 10.0)
	assert.InDelta(t, 0, w.PoseAt(0.6).Rotation, 1e-12)
}

func TestDirector_ClaimFreezeOnEntry(t *testing.T) {
	d, reg, done := newTestDirector(t)
	reg.Upsert(world.Planet{ID: "task-1", Kind: world.KindTask, Pos: vec.New(1000, 1000), Radius: 40})
	ship := physics.NewShip(vec.New(900, 1000), physics.Modifiers{})
	now := time.Unix(0, 0)

	planet, _ := reg.Get("task-1")
	require.NoError(t, d.StartClaim(ship, planet, nil))
	assert.True(t, reg.IsProtected("task-1"))

	for i := 0; i < 10; i++ {
		require.True(t, d.Update(1, now, ship))
	}

	// Внешняя синхронизация с другой позицией и флагом выполнения
	reg.ApplySync([]world.Planet{{ID: "task-1", Kind: world.KindTask, Pos: vec.New(5000, 5000), Radius: 40, Completed: true}})
	live, _ := reg.Get("task-1")
	assert.Equal(t, vec.New(1000, 1000), live.Pos)
	assert.False(t, live.Completed)

	// Без цели анимация стоит перед перелётом
	for i := 0; i < 200; i++ {
		d.Update(1, now, ship)
	}
	assert.Equal(t, PhaseFlash, d.Exclusive().Phase())
	live, _ = reg.Get("task-1")
	assert.Equal(t, vec.New(1000, 1000), live.Pos)

	require.NoError(t, d.ResolveTarget(KindClaim, "", vec.New(3000, 1000)))
	assert.True(t, errors.Is(d.ResolveTarget(KindClaim, "", vec.New(1, 1)), ErrTargetKnown))

	for i := 0; i < 400 && d.Busy(); i++ {
		d.Update(1, now, ship)
		if d.Busy() {
			p, _ := reg.Get("task-1")
			assert.NotEqual(t, vec.New(5000, 5000), p.Pos)
		}
	}
	require.False(t, d.Busy())

	final, _ := reg.Get("task-1")
	assert.InDelta(t, 3100, final.Pos.X, 1e-6, "данные применены в финальной точке анимации")
	assert.InDelta(t, 1000, final.Pos.Y, 1e-6)
	assert.True(t, final.Completed)
	assert.False(t, reg.IsProtected("task-1"))

	assert.InDelta(t, 3000, ship.Pos.X, 1e-6)
	require.Len(t, *done, 1)
	assert.Equal(t, KindClaim, (*done)[0].Kind)
	assert.Equal(t, "task-1", (*done)[0].Key)
	assert.True(t, (*done)[0].Completed())
}

func TestDirector_MutualExclusion(t *testing.T) {
	d, reg, _ := newTestDirector(t)
	ship := physics.NewShip(vec.New(500, 500), physics.Modifiers{})
	reg.Upsert(world.Planet{ID: "home", Kind: world.KindHome, Pos: vec.New(700, 500), Radius: 80})
	home, _ := reg.Get("home")

	require.NoError(t, d.StartWarp(ship, vec.New(2000, 2000)))
	assert.True(t, errors.Is(d.StartLanding(ship, home, 20), ErrAnimationBusy))
	assert.True(t, errors.Is(d.StartNuke(ship, vec.New(0, 0)), ErrAnimationBusy))
	assert.Equal(t, KindWarp, d.Exclusive().Kind())

	// Одновременно активные анимации выполняются по приоритету, не больше одной за тик
	d.landing = NewLanding(LandingParams{Start: ship.Pos, Center: home.Pos, PlanetRadius: 80}, 1)
	d.nuke = NewNuke(ship.Pos, 0, vec.New(1000, 500))
	d.Update(1, time.Now(), ship)

	assert.Greater(t, d.nuke.Progress(), 0.0)
	assert.Equal(t, 0.0, d.warp.Progress())
	assert.Equal(t, 0.0, d.landing.Progress())
	assert.Equal(t, KindNuke, d.Exclusive().Kind())
}

func TestDirector_LandingSettlePhase(t *testing.T) {
	d, reg, done := newTestDirector(t)
	reg.Upsert(world.Planet{ID: "p", Kind: world.KindTask, Pos: vec.New(2000, 2000), Radius: 100})
	planet, _ := reg.Get("p")
	ship := physics.NewShip(vec.New(2300, 2000), physics.Modifiers{})
	ship.Vel = vec.New(0, 1)

	require.NoError(t, d.StartLanding(ship, planet, 20))
	landing := d.landing

	ticks := 0
	for !landing.Landed() {
		d.Update(1, time.Now(), ship)
		ticks++
		require.Less(t, ticks, 200)
	}
	assert.True(t, d.Busy(), "после касания анимация ещё управляет кораблём")
	assert.Equal(t, PhaseSettle, landing.Phase())
	assert.Empty(t, *done)

	for d.Busy() {
		d.Update(1, time.Now(), ship)
		ticks++
		require.Less(t, ticks, 200)
	}
	assert.InDelta(t, 2000, ship.Pos.X, 1e-6)
	assert.InDelta(t, 2110, ship.Pos.Y, 1e-6)
	assert.Equal(t, vec.Vec2{}, ship.Vel)
	require.Len(t, *done, 1)
	assert.Equal(t, "p", (*done)[0].Key)
}

func TestDirector_LandingBonusIsFaster(t *testing.T) {
	slow := NewLanding(LandingParams{PlanetRadius: 50}, physics.Modifiers{}.LandingMultiplier())
	fast := NewLanding(LandingParams{PlanetRadius: 50}, physics.Modifiers{LandingBonus: 5}.LandingMultiplier())
	slow.Step(10)
	fast.Step(10)
	assert.Greater(t, fast.Progress(), slow.Progress())
}

func TestDirector_CancelAtAnyProgress(t *testing.T) {
	d, reg, done := newTestDirector(t)
	reg.Upsert(world.Planet{ID: "t", Kind: world.KindTask, Pos: vec.New(100, 0), Radius: 30})
	planet, _ := reg.Get("t")
	ship := physics.NewShip(vec.New(0, 0), physics.Modifiers{})

	require.NoError(t, d.StartClaim(ship, planet, nil))
	d.Update(2, time.Now(), ship)

	require.NoError(t, d.Cancel(KindClaim, ""))
	assert.False(t, d.Busy())
	assert.False(t, reg.IsProtected("t"))
	assert.True(t, errors.Is(d.Cancel(KindClaim, ""), ErrNotActive))
	require.Len(t, *done, 1)
	assert.Equal(t, ReasonCancelled, (*done)[0].Reason)

	// После отмены физика снова свободна, корабль не сдвигается директором
	before := ship.Pos
	assert.False(t, d.Update(1, time.Now(), ship))
	assert.Equal(t, before, ship.Pos)
}

func TestDirector_WarpAcrossEdge(t *testing.T) {
	d, _, _ := newTestDirector(t)
	ship := physics.NewShip(vec.New(9950, 5000), physics.Modifiers{})
	require.NoError(t, d.StartWarp(ship, vec.New(50, 5000)))

	prev := ship.Pos
	for d.Busy() {
		d.Update(1, time.Now(), ship)
		dx, _, dist := world.NewSpace(10000).WrappedDelta(prev, ship.Pos)
		assert.Less(t, dist, 50.0, "без скачков через весь мир")
		assert.GreaterOrEqual(t, dx, -1e-9)
		prev = ship.Pos
	}
	assert.InDelta(t, 50, ship.Pos.X, 1e-6)
}

func TestDirector_SendWithTarget(t *testing.T) {
	d, reg, done := newTestDirector(t)
	reg.Upsert(world.Planet{ID: "task-3", Kind: world.KindTask, Pos: vec.New(500, 500), Radius: 30})
	planet, _ := reg.Get("task-3")
	now := time.Unix(100, 0)

	require.NoError(t, d.StartSend("task-3", planet, vec.New(400, 500), nil, false, now))
	assert.True(t, errors.Is(d.StartSend("task-3", planet, vec.New(400, 500), nil, false, now), ErrAnimationBusy))

	for i := 0; i < 40; i++ {
		d.Update(1, now, nil)
	}
	s, ok := d.Send("task-3")
	require.True(t, ok)
	assert.True(t, s.Holding())
	p, _ := reg.Get("task-3")
	assert.InDelta(t, 580, p.Pos.X, 1e-3, "отлёт от корабля до получения цели")

	require.NoError(t, d.ResolveTarget(KindSend, "task-3", vec.New(800, 500)))
	for i := 0; i < 100; i++ {
		d.Update(1, now, nil)
	}
	_, ok = d.Send("task-3")
	assert.False(t, ok)
	p, _ = reg.Get("task-3")
	assert.InDelta(t, 800, p.Pos.X, 1e-6)
	assert.False(t, reg.IsProtected("task-3"))
	require.Len(t, *done, 1)
	assert.True(t, (*done)[0].Completed())
}

func TestDirector_SendTimeouts(t *testing.T) {
	d, reg, done := newTestDirector(t)
	reg.Upsert(world.Planet{ID: "a", Kind: world.KindTask, Pos: vec.New(100, 100), Radius: 30})
	reg.Upsert(world.Planet{ID: "b", Kind: world.KindTask, Pos: vec.New(900, 900), Radius: 30})
	pa, _ := reg.Get("a")
	pb, _ := reg.Get("b")
	t0 := time.Unix(1000, 0)

	require.NoError(t, d.StartSend("bob", pa, vec.New(0, 100), nil, true, t0))
	require.NoError(t, d.StartSend("b", pb, vec.New(800, 900), nil, false, t0))

	for i := 0; i < 40; i++ {
		d.Update(1, t0, nil)
	}
	d.Update(1, t0.Add(4*time.Second), nil)
	assert.Len(t, d.Sends(), 2)

	// Удалённое толкание бросается через 5 с
	d.Update(1, t0.Add(5*time.Second), nil)
	_, ok := d.Send("bob")
	assert.False(t, ok)
	assert.False(t, reg.IsProtected("a"))

	// Локальное удержание снимается через 10 с ожидания цели
	d.Update(1, t0.Add(9*time.Second), nil)
	_, ok = d.Send("b")
	assert.True(t, ok)
	d.Update(1, t0.Add(10*time.Second), nil)
	_, ok = d.Send("b")
	assert.False(t, ok)

	require.Len(t, *done, 2)
	assert.Equal(t, ReasonTimeout, (*done)[0].Reason)
	assert.Equal(t, ReasonTimeout, (*done)[1].Reason)
}

func TestDirector_ClaimHoldTimesOut(t *testing.T) {
	d, reg, done := newTestDirector(t)
	reg.Upsert(world.Planet{ID: "task-5", Kind: world.KindTask, Pos: vec.New(1000, 1000), Radius: 40})
	planet, _ := reg.Get("task-5")
	ship := physics.NewShip(vec.New(900, 1000), physics.Modifiers{})
	t0 := time.Unix(1000, 0)

	require.NoError(t, d.StartClaim(ship, planet, nil))
	for i := 0; i < 200; i++ {
		require.True(t, d.Update(1, t0, ship))
	}
	require.True(t, d.Exclusive().(*Claim).Holding())

	// Ожидание цели меньше таймаута держит захват
	assert.True(t, d.Update(1, t0.Add(9*time.Second), ship))
	assert.True(t, d.Busy())

	held := ship.Pos
	assert.False(t, d.Update(1, t0.Add(10*time.Second), ship), "физика свободна в тике отмены")
	assert.False(t, d.Busy())
	assert.False(t, reg.IsProtected("task-5"))
	assert.Equal(t, held, ship.Pos)

	p, _ := reg.Get("task-5")
	assert.Equal(t, vec.New(1000, 1000), p.Pos)
	require.Len(t, *done, 1)
	assert.Equal(t, KindClaim, (*done)[0].Kind)
	assert.Equal(t, "task-5", (*done)[0].Key)
	assert.Equal(t, ReasonTimeout, (*done)[0].Reason)

	// Новый захват возможен сразу
	require.NoError(t, d.StartClaim(ship, p, nil))
}

func TestDirector_ResolvedClaimIgnoresHoldTimeout(t *testing.T) {
	d, reg, done := newTestDirector(t)
	reg.Upsert(world.Planet{ID: "task-6", Kind: world.KindTask, Pos: vec.New(1000, 1000), Radius: 40})
	planet, _ := reg.Get("task-6")
	ship := physics.NewShip(vec.New(900, 1000), physics.Modifiers{})
	t0 := time.Unix(1000, 0)

	require.NoError(t, d.StartClaim(ship, planet, nil))
	for i := 0; i < 200; i++ {
		d.Update(1, t0, ship)
	}
	d.Update(1, t0.Add(9*time.Second), ship)
	require.NoError(t, d.ResolveTarget(KindClaim, "", vec.New(2000, 1000)))

	now := t0.Add(time.Hour)
	for i := 0; i < 400 && d.Busy(); i++ {
		d.Update(1, now, ship)
	}
	require.Len(t, *done, 1)
	assert.True(t, (*done)[0].Completed())
	assert.InDelta(t, 2000, ship.Pos.X, 1e-6)
}

func TestDirector_LateResolvedRemoteSendCompletes(t *testing.T) {
	d, reg, done := newTestDirector(t)
	reg.Upsert(world.Planet{ID: "a", Kind: world.KindTask, Pos: vec.New(1000, 100), Radius: 30})
	pa, _ := reg.Get("a")
	t0 := time.Unix(1000, 0)

	require.NoError(t, d.StartSend("bob", pa, vec.New(900, 100), nil, true, t0))
	for i := 0; i < 40; i++ {
		d.Update(1, t0, nil)
	}

	// Цель пришла за полсекунды до таймаута; перелёт длится дольше оставшегося времени
	now := t0.Add(4500 * time.Millisecond)
	require.NoError(t, d.ResolveTarget(KindSend, "bob", vec.New(2000, 100)))
	for i := 0; i < 100; i++ {
		now = now.Add(time.Second / 60)
		d.Update(1, now, nil)
	}
	require.True(t, now.Sub(t0) > 5*time.Second)

	_, ok := d.Send("bob")
	assert.False(t, ok)
	p, _ := reg.Get("a")
	assert.InDelta(t, 2000, p.Pos.X, 1e-6)
	assert.InDelta(t, 100, p.Pos.Y, 1e-6)
	assert.False(t, reg.IsProtected("a"))
	require.Len(t, *done, 1)
	assert.Equal(t, ReasonCompleted, (*done)[0].Reason)
}

func TestDirector_RemoteSendReplacesPrevious(t *testing.T) {
	d, reg, done := newTestDirector(t)
	reg.Upsert(world.Planet{ID: "a", Kind: world.KindTask, Pos: vec.New(100, 100), Radius: 30})
	reg.Upsert(world.Planet{ID: "b", Kind: world.KindTask, Pos: vec.New(300, 100), Radius: 30})
	pa, _ := reg.Get("a")
	pb, _ := reg.Get("b")
	now := time.Unix(0, 0)

	require.NoError(t, d.StartSend("bob", pa, vec.New(0, 100), nil, true, now))
	require.NoError(t, d.StartSend("bob", pb, vec.New(200, 100), nil, true, now))

	s, ok := d.Send("bob")
	require.True(t, ok)
	assert.Equal(t, "b", s.PlanetID)
	assert.False(t, reg.IsProtected("a"))
	require.Len(t, *done, 1)
	assert.Equal(t, ReasonCancelled, (*done)[0].Reason)
}

func TestDirector_DestroyRemovesEntity(t *testing.T) {
	d, reg, done := newTestDirector(t)
	reg.Upsert(world.Planet{ID: "ast-1", Kind: world.KindAsteroid, Pos: vec.New(10, 10), Radius: 20, Health: 0, MaxHealth: 30})
	p, _ := reg.Get("ast-1")

	require.NoError(t, d.StartDestroy(p, "asteroid"))
	assert.True(t, errors.Is(d.StartDestroy(p, "asteroid"), ErrAnimationBusy))

	ds, ok := d.Destroying("ast-1")
	require.True(t, ok)
	for i := 0; i < 60; i++ {
		d.Update(1, time.Now(), nil)
	}
	_, ok = reg.Get("ast-1")
	assert.False(t, ok)
	assert.Empty(t, d.Destroys())
	assert.InDelta(t, 0, ds.Pose().Opacity, 1e-9)
	require.Len(t, *done, 1)
	assert.Equal(t, KindDestroy, (*done)[0].Kind)
}

func TestNuke_FollowsCurveAndDetonatesAtTarget(t *testing.T) {
	n := NewNuke(vec.New(0, 0), 0, vec.New(1000, 0))
	mid := n.MissileAt(0.5).Pos
	assert.InDelta(t, 500, mid.X, 1e-6)
	assert.Greater(t, math.Abs(mid.Y), 50.0, "траектория изогнута")

	assert.Equal(t, vec.New(1000, 0), n.MissileAt(0.9).Pos)
	assert.Equal(t, vec.New(0, 0), n.PoseAt(0.5).Pos, "корабль остаётся на месте пуска")
	assert.Equal(t, mid, n.PoseAt(0.5).Focus)
}
