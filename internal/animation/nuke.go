package animation

import (
	"math"

	"github.com/annel0/taskverse/internal/vec"
)

const (
	// NukeRate прирост progress полёта ракеты за тик
	NukeRate = 1.0 / 150.0
	// NukeBlastRadius радиус поражения при детонации
	NukeBlastRadius = 400.0
)

var nukeBands = bands{
	{0, PhaseLaunch},
	{0.15, PhaseFlight},
	{0.85, PhaseDetonation},
}

// Nuke полёт ядерной ракеты по квадратичной кривой Безье. Корабль стоит
// на месте пуска, камера следует за ракетой.
type Nuke struct {
	base
	Launch        vec.Vec2
	Control       vec.Vec2
	Target        vec.Vec2
	StartRotation float64
}

// NewNuke запускает ракету из launch в target; дуга изгибается влево от курса
func NewNuke(launch vec.Vec2, rotation float64, target vec.Vec2) *Nuke {
	mid := launch.Lerp(target, 0.5)
	d := target.Sub(launch)
	normal := vec.New(-d.Y, d.X).Mul(0.3)
	return &Nuke{
		base:          base{active: true, progress: NewProgress(NukeRate, 1)},
		Launch:        launch,
		Control:       mid.Add(normal),
		Target:        target,
		StartRotation: rotation,
	}
}

func (n *Nuke) Kind() Kind { return KindNuke }
func (n *Nuke) Phase() Phase { return n.PhaseAt(n.progress.Value) }
func (n *Nuke) PhaseAt(p float64) Phase { return nukeBands.at(p) }
func (n *Nuke) Pose() Pose { return n.PoseAt(n.progress.Value) }

// MissileAt положение и курс ракеты
func (n *Nuke) MissileAt(p float64) Pose {
	switch n.PhaseAt(p) {
	case PhaseLaunch:
		ps := pose(n.Launch, quadBezierTangent(n.Launch, n.Control, n.Target, 0).Angle())
		ps.Scale = local(p, 0, 0.15)
		return ps
	case PhaseFlight:
		s := local(p, 0.15, 0.85)
		return pose(quadBezier(n.Launch, n.Control, n.Target, s), quadBezierTangent(n.Launch, n.Control, n.Target, s).Angle())
	default:
		t := local(p, 0.85, 1)
		ps := pose(n.Target, 0)
		ps.Scale = 1 + 5*math.Sqrt(t)
		ps.Opacity = 1 - t
		return ps
	}
}

// PoseAt поза корабля: на месте пуска, фокус камеры на ракете
func (n *Nuke) PoseAt(p float64) Pose {
	ps := pose(n.Launch, n.StartRotation)
	ps.Focus = n.MissileAt(p).Pos
	return ps
}
