package physics

import (
	"math"

	"github.com/annel0/taskverse/internal/vec"
	"github.com/annel0/taskverse/internal/world"
)

// HomingProfile параметры самонаведения
type HomingProfile struct {
	Speed   float64 // постоянная крейсерская скорость, px/тик
	MaxTurn float64 // максимальный поворот за тик, рад
}

// SteerToward поворачивает heading к desired не больше чем на maxTurn
func SteerToward(heading, desired, maxTurn float64) float64 {
	diff := vec.AngleDiff(heading, desired)
	if math.Abs(diff) <= maxTurn {
		return vec.WrapAngle(desired)
	}
	if diff > 0 {
		return vec.WrapAngle(heading + maxTurn)
	}
	return vec.WrapAngle(heading - maxTurn)
}

// ApplyHoming поворачивает скорость снаряда к цели с ограничением скорости поворота
// и пересчитывает её из нового курса при постоянной скорости
func ApplyHoming(space world.Space, pos, vel, target vec.Vec2, profile HomingProfile, dt float64) vec.Vec2 {
	dx, dy, dist := space.WrappedDelta(pos, target)
	heading := vel.Angle()
	if dist > 1e-9 {
		heading = SteerToward(heading, math.Atan2(dy, dx), profile.MaxTurn*dt)
	}
	return vec.FromAngle(heading).Mul(profile.Speed)
}
