package game

import (
	"github.com/annel0/taskverse/internal/vec"
	"github.com/annel0/taskverse/internal/world"
)

// Camera следует за кораблём или за точкой, которую задаёт активная анимация.
// Подкраска берётся из ближайшей зоны, в радиус влияния которой попадает камера.
type Camera struct {
	Pos    vec.Vec2
	Tint   string
	ZoneID string

	rate        float64
	space       world.Space
	initialized bool
}

// NewCamera создаёт камеру со сглаживанием rate (доля за тик 60 Гц)
func NewCamera(space world.Space, rate float64) *Camera {
	return &Camera{space: space, rate: rate}
}

// Snap ставит камеру в точку без сглаживания
func (c *Camera) Snap(p vec.Vec2) {
	c.Pos = c.space.WrapIntoBounds(p)
	c.initialized = true
}

// Update сдвигает камеру к focus с множителем 1-(1-rate)^dt
func (c *Camera) Update(focus vec.Vec2, dt float64, zones world.Zones) {
	if !c.initialized {
		c.Snap(focus)
	} else {
		target := c.space.UnwrapRelativeTo(c.Pos, focus)
		k := vec.Smoothing(c.rate, dt)
		c.Pos = c.space.WrapIntoBounds(c.Pos.Add(target.Sub(c.Pos).Mul(k)))
	}

	if z, _, ok := zones.Nearest(c.space, c.Pos); ok {
		c.Tint = z.Color
		c.ZoneID = z.ID
		return
	}
	c.Tint = ""
	c.ZoneID = ""
}
