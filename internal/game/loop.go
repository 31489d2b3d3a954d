package game

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/annel0/taskverse/internal/physics"
	"github.com/annel0/taskverse/internal/vec"
	"github.com/annel0/taskverse/internal/world"
)

// InputSource выдаёт управление на каждый кадр
type InputSource interface {
	Input(f Frame) physics.Input
}

// InputFunc адаптер функции к InputSource
type InputFunc func(f Frame) physics.Input

func (fn InputFunc) Input(f Frame) physics.Input { return fn(f) }

// Run крутит игровой цикл с частотой кадров из конфигурации до отмены ctx
func (s *Simulation) Run(ctx context.Context, src InputSource) error {
	period := time.Duration(s.cfg.TargetFrameMs * float64(time.Millisecond))
	if period <= 0 {
		period = time.Second / 60
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	frame := s.Frame()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Tick(s.time.Now(), src.Input(frame))
			frame = s.Frame()
		}
	}
}

// Autopilot сценарное управление для безголового клиента: летит к случайным
// точкам, поворачивая по кратчайшей дуге, и иногда стреляет.
type Autopilot struct {
	rng      *rand.Rand
	waypoint vec.Vec2
	hasPoint bool
	// ArriveRadius расстояние, на котором точка считается достигнутой
	ArriveRadius float64
	// FireChance вероятность выстрела за кадр
	FireChance float64
	space      world.Space
}

// NewAutopilot создаёт автопилот с детерминированным генератором
func NewAutopilot(seed int64, space world.Space) *Autopilot {
	return &Autopilot{
		rng:          rand.New(rand.NewSource(seed)),
		ArriveRadius: 150,
		FireChance:   0.02,
		space:        space,
	}
}

// Waypoint текущая точка назначения
func (a *Autopilot) Waypoint() (vec.Vec2, bool) {
	return a.waypoint, a.hasPoint
}

// Input вычисляет управление по кадру
func (a *Autopilot) Input(f Frame) physics.Input {
	if f.Animation != nil {
		return physics.Input{}
	}
	ship := f.Ship
	if !a.hasPoint {
		a.pick(ship.Pos)
	}

	dx, dy, dist := a.space.WrappedDelta(ship.Pos, a.waypoint)
	if dist < a.ArriveRadius {
		a.pick(ship.Pos)
		return physics.Input{Brake: true}
	}

	diff := vec.AngleDiff(ship.Rotation, math.Atan2(dy, dx))
	return physics.Input{
		Left:   diff < -0.05,
		Right:  diff > 0.05,
		Thrust: math.Abs(diff) < math.Pi/4,
		Fire:   a.rng.Float64() < a.FireChance,
	}
}

func (a *Autopilot) pick(from vec.Vec2) {
	angle := a.rng.Float64() * 2 * math.Pi
	dist := 500 + a.rng.Float64()*1500
	a.waypoint = a.space.WrapIntoBounds(from.Add(vec.FromAngle(angle).Mul(dist)))
	a.hasPoint = true
}
