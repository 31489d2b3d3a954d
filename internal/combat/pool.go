package combat

import (
	"time"

	"github.com/google/uuid"

	"github.com/annel0/taskverse/internal/physics"
	"github.com/annel0/taskverse/internal/vec"
	"github.com/annel0/taskverse/internal/world"
)

// Projectile снаряд. Echo-снаряды только отображают чужую стрельбу.
type Projectile struct {
	ID       string     `json:"id"`
	Kind     WeaponKind `json:"kind"`
	OwnerID  string     `json:"owner_id"`
	Pos      vec.Vec2   `json:"pos"`
	Vel      vec.Vec2   `json:"vel"`
	Life     float64    `json:"life"`
	TargetID string     `json:"target_id,omitempty"`
	Echo     bool       `json:"echo,omitempty"`
	dead     bool
}

// Rotation курс снаряда
func (p *Projectile) Rotation() float64 { return p.Vel.Angle() }

// Hit результат попадания снаряда
type Hit struct {
	ProjectileID string
	Weapon       WeaponKind
	OwnerID      string
	TargetID     string
	Pos          vec.Vec2
	Damage       float64
	Destroyed    bool
	Reflected    bool
}

// Pool пул снарядов одного оружия с перезарядкой
type Pool struct {
	Spec  WeaponSpec
	space world.Space

	lastFire    time.Time
	projectiles []*Projectile
	echoes      []*Projectile
}

// NewPool создаёт пул для оружия spec
func NewPool(spec WeaponSpec, space world.Space) *Pool {
	return &Pool{Spec: spec, space: space}
}

// Ready перезарядка завершена
func (p *Pool) Ready(now time.Time) bool {
	return p.lastFire.IsZero() || now.Sub(p.lastFire) >= p.Spec.Cooldown
}

// Fire выпускает снаряд из pos по курсу rotation; inherit - скорость стрелка
func (p *Pool) Fire(now time.Time, ownerID string, pos vec.Vec2, rotation float64, inherit vec.Vec2, targetID string) (*Projectile, error) {
	if !p.Ready(now) {
		return nil, ErrCooldown
	}
	p.lastFire = now
	vel := vec.FromAngle(rotation).Mul(p.Spec.Speed)
	if !p.Spec.Homing() {
		vel = vel.Add(inherit)
	}
	return p.spawn(ownerID, pos, vel, targetID, false), nil
}

// Spawn выпускает снаряд без перезарядки (паттерны босса)
func (p *Pool) Spawn(ownerID string, pos, vel vec.Vec2, targetID string) *Projectile {
	return p.spawn(ownerID, pos, vel, targetID, false)
}

// SpawnEcho создаёт косметическую копию чужого выстрела: без столкновений и урона
func (p *Pool) SpawnEcho(ownerID string, pos, vel vec.Vec2, targetID string) *Projectile {
	return p.spawn(ownerID, pos, vel, targetID, true)
}

func (p *Pool) spawn(ownerID string, pos, vel vec.Vec2, targetID string, echo bool) *Projectile {
	pr := &Projectile{
		ID:       uuid.NewString(),
		Kind:     p.Spec.Kind,
		OwnerID:  ownerID,
		Pos:      p.space.WrapIntoBounds(pos),
		Vel:      vel,
		Life:     p.Spec.Life,
		TargetID: targetID,
		Echo:     echo,
	}
	list := &p.projectiles
	if echo {
		list = &p.echoes
	}
	if p.Spec.MaxAlive > 0 && len(*list) >= p.Spec.MaxAlive {
		// Вытесняем самый старый снаряд
		*list = (*list)[1:]
	}
	*list = append(*list, pr)
	return pr
}

// Update интегрирует снаряды и проверяет столкновения с целями.
// Echo-снаряды двигаются так же, но не сталкиваются.
func (p *Pool) Update(dt float64, targets []Target) []Hit {
	if dt <= 0 {
		return nil
	}
	var hits []Hit
	for _, pr := range p.projectiles {
		p.integrate(pr, dt, targets)
		if pr.dead {
			continue
		}
		if hit, ok := p.collide(pr, targets); ok {
			hits = append(hits, hit)
		}
	}
	for _, pr := range p.echoes {
		p.integrate(pr, dt, targets)
	}
	p.projectiles = compact(p.projectiles)
	p.echoes = compact(p.echoes)
	return hits
}

func (p *Pool) integrate(pr *Projectile, dt float64, targets []Target) {
	if p.Spec.Homing() && pr.TargetID != "" {
		for _, t := range targets {
			if t.TargetID() != pr.TargetID {
				continue
			}
			pos, _ := t.Circle()
			pr.Vel = physics.ApplyHoming(p.space, pr.Pos, pr.Vel, pos, physics.HomingProfile{Speed: p.Spec.Speed, MaxTurn: p.Spec.MaxTurn}, dt)
			break
		}
	}
	pr.Pos = p.space.WrapIntoBounds(pr.Pos.Add(pr.Vel.Mul(dt)))
	pr.Life -= dt
	if pr.Life <= 0 {
		pr.dead = true
	}
}

// collide проверяет первую цель, с которой пересекается снаряд
func (p *Pool) collide(pr *Projectile, targets []Target) (Hit, bool) {
	for _, t := range targets {
		if t.TargetID() == pr.OwnerID {
			continue
		}
		pos, radius := t.Circle()
		if !physics.CirclesOverlap(p.space, pr.Pos, p.Spec.Radius, pos, radius) {
			continue
		}

		hit := Hit{
			ProjectileID: pr.ID,
			Weapon:       pr.Kind,
			OwnerID:      pr.OwnerID,
			TargetID:     t.TargetID(),
			Pos:          pr.Pos,
		}
		switch {
		case t.Shielded():
			// Щит отражает снаряд с затуханием, снаряд продолжает жить
			newPos, newVel, _, _ := physics.ResolveCircle(p.space, pr.Pos, pr.Vel, p.Spec.Radius,
				physics.Circle{ID: t.TargetID(), Pos: pos, Radius: radius}, 1, physics.CollisionNudge)
			pr.Pos = p.space.WrapIntoBounds(newPos)
			pr.Vel = newVel.Mul(p.Spec.ReflectDamping)
			pr.TargetID = ""
			hit.Reflected = true
		case t.Destructible():
			hit.Damage = p.Spec.Damage
			hit.Destroyed = t.TakeDamage(p.Spec.Damage)
			pr.dead = true
		default:
			pr.dead = true
		}
		return hit, true
	}
	return Hit{}, false
}

// Projectiles копии живых снарядов
func (p *Pool) Projectiles() []Projectile {
	return copyAll(p.projectiles)
}

// Echoes копии косметических снарядов
func (p *Pool) Echoes() []Projectile {
	return copyAll(p.echoes)
}

// Len число живых снарядов, включая echo
func (p *Pool) Len() int {
	return len(p.projectiles) + len(p.echoes)
}

// Clear удаляет все снаряды
func (p *Pool) Clear() {
	p.projectiles = nil
	p.echoes = nil
}

func compact(list []*Projectile) []*Projectile {
	out := list[:0]
	for _, pr := range list {
		if !pr.dead {
			out = append(out, pr)
		}
	}
	for i := len(out); i < len(list); i++ {
		list[i] = nil
	}
	return out
}

func copyAll(list []*Projectile) []Projectile {
	out := make([]Projectile, 0, len(list))
	for _, pr := range list {
		out = append(out, *pr)
	}
	return out
}
