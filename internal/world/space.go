package world

import (
	"math"

	"github.com/annel0/taskverse/internal/vec"
)

const (
	// DefaultWorldSize сторона квадратного тора
	DefaultWorldSize = 10000.0
	// DefaultWrapMargin насколько корабль может выйти за край до переноса
	DefaultWrapMargin = 50.0
)

// Space описывает тороидальное пространство мира: квадрат со стороной Size,
// противоположные края которого склеены. Перед сравнением расстояний и
// интерполяцией позиции разворачиваются относительно друг друга.
type Space struct {
	Size float64
}

// NewSpace создаёт пространство; неположительный размер заменяется значением по умолчанию
func NewSpace(size float64) Space {
	if size <= 0 {
		size = DefaultWorldSize
	}
	return Space{Size: size}
}

// wrapDelta приводит разность координат к кратчайшему представлению [-Size/2, Size/2]
func (s Space) wrapDelta(d float64) float64 {
	return d - s.Size*math.Round(d/s.Size)
}

// WrappedDelta возвращает кратчайший вектор от a до b с учётом склейки краёв и его длину
func (s Space) WrappedDelta(a, b vec.Vec2) (dx, dy, dist float64) {
	dx = s.wrapDelta(b.X - a.X)
	dy = s.wrapDelta(b.Y - a.Y)
	return dx, dy, math.Sqrt(dx*dx + dy*dy)
}

// Distance кратчайшее расстояние между точками на торе
func (s Space) Distance(a, b vec.Vec2) float64 {
	_, _, d := s.WrappedDelta(a, b)
	return d
}

// UnwrapRelativeTo возвращает копию p, сдвинутую на целое число периодов так,
// чтобы она оказалась ближе всего к ref. Результат может лежать вне [0, Size).
func (s Space) UnwrapRelativeTo(ref, p vec.Vec2) vec.Vec2 {
	dx, dy, _ := s.WrappedDelta(ref, p)
	return vec.Vec2{X: ref.X + dx, Y: ref.Y + dy}
}

// WrapIntoBounds приводит точку к каноническому диапазону [0, Size)
func (s Space) WrapIntoBounds(p vec.Vec2) vec.Vec2 {
	return vec.Vec2{X: s.wrapAxis(p.X), Y: s.wrapAxis(p.Y)}
}

func (s Space) wrapAxis(x float64) float64 {
	x = math.Mod(x, s.Size)
	if x < 0 {
		x += s.Size
	}
	// math.Mod(-tiny) + Size может округлиться ровно до Size
	if x >= s.Size {
		x -= s.Size
	}
	return x
}

// WrapWithMargin переносит точку на противоположную сторону только после того,
// как она вышла за край больше чем на margin. Используется физикой корабля.
func (s Space) WrapWithMargin(p vec.Vec2, margin float64) vec.Vec2 {
	if p.X < -margin {
		p.X += s.Size
	} else if p.X >= s.Size+margin {
		p.X -= s.Size
	}
	if p.Y < -margin {
		p.Y += s.Size
	} else if p.Y >= s.Size+margin {
		p.Y -= s.Size
	}
	// Прыжок больше чем на период (телепорт, большой dt) - нормализуем полностью
	if p.X < -margin || p.X >= s.Size+margin || p.Y < -margin || p.Y >= s.Size+margin {
		return s.WrapIntoBounds(p)
	}
	return p
}
