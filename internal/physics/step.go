package physics

import (
	"math"

	"github.com/annel0/taskverse/internal/vec"
	"github.com/annel0/taskverse/internal/world"
)

// StepResult события одного шага физики
type StepResult struct {
	Contacts     []Contact
	FullSpeedHit bool // удар на полной скорости, с ограничением частоты
}

// Engine интегрирует движение корабля. Все величины масштабируются dt (1 = тик 60 Гц).
type Engine struct {
	Params Params
	Space  world.Space
}

// NewEngine создаёт движок физики
func NewEngine(params Params, space world.Space) *Engine {
	return &Engine{Params: params, Space: space}
}

// Step продвигает корабль на dt: поворот, тяга, трение, ограничение скорости,
// интегрирование позиции, столкновения и перенос через край.
// Позиция интегрируется по средней скорости за шаг, поэтому N шагов с dt=1
// и 2N шагов с dt=0.5 дают практически одну траекторию.
func (e *Engine) Step(s *Ship, in Input, dt float64, obstacles []Circle) StepResult {
	var res StepResult
	if dt <= 0 {
		return res
	}
	p := e.Params

	// Поворот
	if in.Left {
		s.Rotation -= p.RotationSpeed * dt
	}
	if in.Right {
		s.Rotation += p.RotationSpeed * dt
	}
	s.Rotation = vec.WrapAngle(s.Rotation)

	oldVel := s.Vel
	speedMul := s.Mods.SpeedMultiplier()
	accel := p.Acceleration * speedMul
	maxSpeed := p.MaxSpeed * speedMul

	s.Thrusting = in.Thrust
	s.Boosting = in.Thrust && in.Boost
	if s.Boosting {
		accel *= p.BoostMultiplier
		maxSpeed = p.BoostMaxSpeed * speedMul
	}

	// Тяга
	if s.Thrusting {
		s.Vel = s.Vel.Add(vec.FromAngle(s.Rotation).Mul(accel * dt))
	}

	// Трение и торможение
	decay := math.Pow(p.Friction, dt)
	if in.Brake {
		decay *= math.Pow(p.Brake, dt)
	}
	s.Vel = s.Vel.Mul(decay)

	// Ограничение скорости, кроме окна отбрасывания
	if s.knockback <= 0 {
		if speed := s.Vel.Length(); speed > maxSpeed {
			s.Vel = s.Vel.Mul(maxSpeed / speed)
		}
	}

	preCollisionSpeed := s.Vel.Length()
	s.Pos = s.Pos.Add(oldVel.Add(s.Vel).Mul(0.5 * dt))

	// Столкновения
	radius := s.Radius(p)
	for _, ob := range obstacles {
		pos, vel, contact, hit := ResolveCircle(e.Space, s.Pos, s.Vel, radius, ob, p.Restitution, p.Nudge)
		if !hit {
			continue
		}
		s.Pos, s.Vel = pos, vel
		res.Contacts = append(res.Contacts, contact)

		if contact.ImpactSpeed > 0 && s.fullSpeedCooldown <= 0 && preCollisionSpeed >= p.MaxSpeed*speedMul*FullSpeedFraction {
			res.FullSpeedHit = true
			s.fullSpeedCooldown = FullSpeedCooldownTicks
		}
	}

	// Таймеры
	if s.knockback > 0 {
		s.knockback = math.Max(0, s.knockback-dt)
	}
	if s.fullSpeedCooldown > 0 {
		s.fullSpeedCooldown = math.Max(0, s.fullSpeedCooldown-dt)
	}

	s.Pos = e.Space.WrapWithMargin(s.Pos, p.WrapMargin)
	return res
}
