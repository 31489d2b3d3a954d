package combat

import (
	"math"
	"math/rand"

	"github.com/annel0/taskverse/internal/logging"
	"github.com/annel0/taskverse/internal/physics"
	"github.com/annel0/taskverse/internal/vec"
	"github.com/annel0/taskverse/internal/world"
)

// BossState состояние боя с боссом
type BossState int

const (
	BossInactive BossState = iota
	BossIntro
	BossActive
	BossSurrendered
	BossLootDrop
	BossVictory
	BossPlayerDefeated
	BossRespawn
)

func (s BossState) String() string {
	switch s {
	case BossInactive:
		return "inactive"
	case BossIntro:
		return "intro"
	case BossActive:
		return "active"
	case BossSurrendered:
		return "surrendered"
	case BossLootDrop:
		return "loot_drop"
	case BossVictory:
		return "victory"
	case BossPlayerDefeated:
		return "player_defeated"
	case BossRespawn:
		return "respawn"
	default:
		return "unknown"
	}
}

// BossConfig параметры босса. Время в тиках.
type BossConfig struct {
	MaxHealth        float64
	Radius           float64
	Speed            float64
	KeepDistance     float64
	IntroTicks       float64
	PatternCooldown  float64
	EnragedCooldown  float64
	EnrageFraction   float64
	ContactDamage    float64
	ContactCooldown  float64
	KnockbackImpulse float64
	KnockbackTicks   float64
	SurrenderTicks   float64
	LootTicks        float64
	DefeatTicks      float64
}

// DefaultBossConfig параметры по умолчанию
func DefaultBossConfig() BossConfig {
	return BossConfig{
		MaxHealth:        500,
		Radius:           90,
		Speed:            1.2,
		KeepDistance:     350,
		IntroTicks:       180,
		PatternCooldown:  150,
		EnragedCooldown:  90,
		EnrageFraction:   0.35,
		ContactDamage:    10,
		ContactCooldown:  60,
		KnockbackImpulse: 12,
		KnockbackTicks:   20,
		SurrenderTicks:   90,
		LootTicks:        120,
		DefeatTicks:      90,
	}
}

// Arena окружение боя: корабль игрока и его здоровье
type Arena struct {
	PlayerID   string
	Ship       *physics.Ship
	ShipRadius float64
	Vitals     *PlayerVitals
	// RespawnPos точка возрождения игрока после поражения
	RespawnPos vec.Vec2
}

// BossObserver получает смену состояний боя
type BossObserver interface {
	BossStateChanged(from, to BossState)
}

// BossObserverFunc адаптер функции к BossObserver
type BossObserverFunc func(from, to BossState)

func (f BossObserverFunc) BossStateChanged(from, to BossState) { f(from, to) }

// Boss конечный автомат боя с боссом
type Boss struct {
	ID     string
	Pos    vec.Vec2
	Home   vec.Vec2
	Health float64

	cfg   BossConfig
	space world.Space
	rng   *rand.Rand

	current bossState
	bullets *Pool
	rockets *Pool

	lastPattern     PatternKind
	contactCooldown float64

	observers []BossObserver
	logger    *logging.Logger
}

// NewBoss создаёт неактивного босса в точке pos
func NewBoss(id string, pos vec.Vec2, cfg BossConfig, space world.Space, seed int64, logger *logging.Logger) *Boss {
	specs := DefaultSpecs()
	rocket := specs[WeaponRocket]
	rocket.Kind = WeaponBossBullet
	rocket.MaxAlive = 32
	b := &Boss{
		ID:      id,
		Pos:     pos,
		Home:    pos,
		Health:  cfg.MaxHealth,
		cfg:     cfg,
		space:   space,
		rng:     rand.New(rand.NewSource(seed)),
		bullets: NewPool(specs[WeaponBossBullet], space),
		rockets: NewPool(rocket, space),
		logger:  logger,
	}
	b.current = &inactiveState{}
	return b
}

// AddObserver подписывает на смену состояний
func (b *Boss) AddObserver(o BossObserver) {
	b.observers = append(b.observers, o)
}

// State текущее состояние
func (b *Boss) State() BossState { return b.current.id() }

// Config параметры босса
func (b *Boss) Config() BossConfig { return b.cfg }

// Start начинает бой из неактивного состояния
func (b *Boss) Start() bool {
	if b.State() != BossInactive {
		return false
	}
	b.setState(newIntroState(b.cfg.IntroTicks))
	return true
}

// Enraged здоровье ниже порога ярости
func (b *Boss) Enraged() bool {
	return b.Health <= b.cfg.MaxHealth*b.cfg.EnrageFraction
}

// ApplyDamage наносит урон. Здоровье не опускается ниже 1: босс сдаётся, а не погибает.
// Урон принимается только в активной фазе.
func (b *Boss) ApplyDamage(amount float64) float64 {
	if b.State() != BossActive || math.IsNaN(amount) || amount <= 0 {
		return b.Health
	}
	b.Health = math.Max(1, b.Health-amount)
	return b.Health
}

// Update продвигает автомат на dt тиков. Возвращает попадания снарядов босса.
func (b *Boss) Update(dt float64, arena Arena) []Hit {
	if dt <= 0 {
		return nil
	}
	if next := b.current.update(b, dt, arena); next != nil && next != b.current {
		b.setState(next)
	}
	var targets []Target
	if arena.Ship != nil && arena.Vitals != nil {
		targets = []Target{&playerTarget{id: arena.PlayerID, ship: arena.Ship, radius: arena.ShipRadius, vitals: arena.Vitals}}
	}
	hits := b.bullets.Update(dt, targets)
	return append(hits, b.rockets.Update(dt, targets)...)
}

// Projectiles снаряды босса
func (b *Boss) Projectiles() []Projectile {
	return append(b.bullets.Projectiles(), b.rockets.Projectiles()...)
}

// Target босс как цель для оружия игрока
func (b *Boss) Target() Target { return &bossTarget{boss: b} }

func (b *Boss) setState(next bossState) {
	from := b.current.id()
	b.current.exit(b)
	b.current = next
	b.current.enter(b)
	to := next.id()
	b.logger.Info("Босс %s: %s -> %s", b.ID, from, to)
	for _, o := range b.observers {
		o.BossStateChanged(from, to)
	}
}

func (b *Boss) clearProjectiles() {
	b.bullets.Clear()
	b.rockets.Clear()
}

// fire выпускает выстрелы паттерна из центра босса
func (b *Boss) fire(shots []Shot, playerID string) {
	for _, s := range shots {
		if s.Homing {
			vel := vec.FromAngle(s.Angle).Mul(b.rockets.Spec.Speed * s.Speed)
			b.rockets.Spawn(b.ID, b.Pos, vel, playerID)
			continue
		}
		vel := vec.FromAngle(s.Angle).Mul(b.bullets.Spec.Speed * s.Speed)
		b.bullets.Spawn(b.ID, b.Pos, vel, "")
	}
}

// approach сближение с игроком до дистанции KeepDistance
func (b *Boss) approach(dt float64, target vec.Vec2) {
	dx, dy, dist := b.space.WrappedDelta(b.Pos, target)
	if dist <= b.cfg.KeepDistance || dist == 0 {
		return
	}
	step := math.Min(b.cfg.Speed*dt, dist-b.cfg.KeepDistance)
	b.Pos = b.space.WrapIntoBounds(b.Pos.Add(vec.New(dx, dy).Mul(step / dist)))
}

// contact урон и отталкивание при касании корпуса босса
func (b *Boss) contact(dt float64, arena Arena) {
	if b.contactCooldown > 0 {
		b.contactCooldown = math.Max(0, b.contactCooldown-dt)
		return
	}
	if arena.Ship == nil || arena.Vitals == nil {
		return
	}
	if !physics.CirclesOverlap(b.space, b.Pos, b.cfg.Radius, arena.Ship.Pos, arena.ShipRadius) {
		return
	}
	dx, dy, dist := b.space.WrappedDelta(b.Pos, arena.Ship.Pos)
	dir := vec.New(1, 0)
	if dist > 0 {
		dir = vec.New(dx/dist, dy/dist)
	}
	arena.Vitals.Damage(b.cfg.ContactDamage)
	arena.Ship.ApplyKnockback(dir.Mul(b.cfg.KnockbackImpulse), b.cfg.KnockbackTicks)
	b.contactCooldown = b.cfg.ContactCooldown
}

// aimAt курс от босса на точку
func (b *Boss) aimAt(p vec.Vec2) float64 {
	dx, dy, _ := b.space.WrappedDelta(b.Pos, p)
	return math.Atan2(dy, dx)
}

// bossTarget босс как цель; никогда не уничтожается
type bossTarget struct {
	boss *Boss
}

func (t *bossTarget) TargetID() string { return t.boss.ID }

func (t *bossTarget) Circle() (vec.Vec2, float64) { return t.boss.Pos, t.boss.cfg.Radius }

func (t *bossTarget) Shielded() bool { return t.boss.State() != BossActive }

func (t *bossTarget) Destructible() bool { return true }

func (t *bossTarget) TakeDamage(amount float64) bool {
	t.boss.ApplyDamage(amount)
	return false
}

// playerTarget корабль игрока как цель снарядов босса
type playerTarget struct {
	id     string
	ship   *physics.Ship
	radius float64
	vitals *PlayerVitals
}

func (t *playerTarget) TargetID() string { return t.id }

func (t *playerTarget) Circle() (vec.Vec2, float64) { return t.ship.Pos, t.radius }

func (t *playerTarget) Shielded() bool { return false }

func (t *playerTarget) Destructible() bool { return !t.vitals.Defeated() }

func (t *playerTarget) TakeDamage(amount float64) bool { return t.vitals.Damage(amount) }
