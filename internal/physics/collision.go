package physics

import (
	"github.com/annel0/taskverse/internal/vec"
	"github.com/annel0/taskverse/internal/world"
)

// Circle круглый коллайдер объекта мира
type Circle struct {
	ID         string
	Pos        vec.Vec2
	Radius     float64
	Intangible bool
}

// Contact результат разрешения столкновения
type Contact struct {
	ID          string
	Normal      vec.Vec2 // от препятствия к телу
	Penetration float64
	ImpactSpeed float64 // скорость вдоль нормали до отражения
}

// CirclesOverlap проверяет пересечение двух кругов на торе
func CirclesOverlap(space world.Space, a vec.Vec2, ra float64, b vec.Vec2, rb float64) bool {
	_, _, dist := space.WrappedDelta(a, b)
	return dist < ra+rb
}

// ResolveCircle выталкивает тело (pos, vel, radius) из препятствия и отражает
// нормальную составляющую скорости с коэффициентом restitution. Совпадающие центры
// разводятся сдвигом на nudge по оси X. Возвращает false, если пересечения нет.
func ResolveCircle(space world.Space, pos, vel vec.Vec2, radius float64, obstacle Circle, restitution, nudge float64) (vec.Vec2, vec.Vec2, Contact, bool) {
	if obstacle.Intangible {
		return pos, vel, Contact{}, false
	}

	dx, dy, dist := space.WrappedDelta(obstacle.Pos, pos)
	minDist := radius + obstacle.Radius
	if dist >= minDist {
		return pos, vel, Contact{}, false
	}

	// Центры совпали: нормаль не определена
	if dist < 1e-9 {
		if nudge <= 0 {
			nudge = CollisionNudge
		}
		dx, dy, dist = nudge, 0, nudge
	}

	normal := vec.Vec2{X: dx / dist, Y: dy / dist}
	penetration := minDist - dist

	// Выталкиваем от развёрнутой позиции препятствия, чтобы не прыгать через край мира
	newPos := vec.Vec2{
		X: obstacle.Pos.X + dx + normal.X*penetration,
		Y: obstacle.Pos.Y + dy + normal.Y*penetration,
	}

	contact := Contact{ID: obstacle.ID, Normal: normal, Penetration: penetration}

	vn := vel.Dot(normal)
	if vn < 0 {
		contact.ImpactSpeed = -vn
		vel = vel.Sub(normal.Mul((1 + restitution) * vn))
	}

	return space.WrapIntoBounds(newPos), vel, contact, true
}
