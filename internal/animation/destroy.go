package animation

import (
	"math"

	"github.com/annel0/taskverse/internal/vec"
)

// DestroyRate прирост progress разрушения за тик
const DestroyRate = 1.0 / 45.0

var destroyBands = bands{
	{0, PhaseShake},
	{0.3, PhaseBreak},
	{0.7, PhaseFade},
}

// Destroy разрушение сущности: тряска, раскол, исчезновение
type Destroy struct {
	base
	EntityID string
	Variant  string
	Pos      vec.Vec2
	Radius   float64
}

// NewDestroy запускает разрушение сущности в точке pos
func NewDestroy(entityID, variant string, pos vec.Vec2, radius float64) *Destroy {
	return &Destroy{
		base:     base{active: true, progress: NewProgress(DestroyRate, 1)},
		EntityID: entityID,
		Variant:  variant,
		Pos:      pos,
		Radius:   radius,
	}
}

func (d *Destroy) Kind() Kind { return KindDestroy }
func (d *Destroy) Phase() Phase { return d.PhaseAt(d.progress.Value) }
func (d *Destroy) PhaseAt(p float64) Phase { return destroyBands.at(p) }
func (d *Destroy) Pose() Pose { return d.PoseAt(d.progress.Value) }

func (d *Destroy) PoseAt(p float64) Pose {
	switch d.PhaseAt(p) {
	case PhaseShake:
		// Амплитуда растёт к расколу, смещение зависит только от p
		amp := d.Radius * 0.08 * local(p, 0, 0.3)
		offset := vec.New(math.Sin(p*173), math.Cos(p*131)).Mul(amp)
		return pose(d.Pos.Add(offset), 0)
	case PhaseBreak:
		t := local(p, 0.3, 0.7)
		ps := pose(d.Pos, 0)
		ps.Scale = 1 + 0.3*t
		ps.Opacity = 1 - 0.4*t
		return ps
	default:
		t := local(p, 0.7, 1)
		ps := pose(d.Pos, 0)
		ps.Scale = 1.3 + 0.2*t
		ps.Opacity = 0.6 * (1 - t)
		return ps
	}
}
