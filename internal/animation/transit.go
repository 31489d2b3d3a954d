package animation

import (
	"math"
	"time"

	"github.com/annel0/taskverse/internal/vec"
)

// Пороги фаз телепортации: зарядка, вспышка, перелёт, прибытие
const (
	flashFrom   = 0.25
	transitFrom = 0.35
	arrivalFrom = 0.85
)

var teleportBands = bands{
	{0, PhaseCharging},
	{flashFrom, PhaseFlash},
	{transitFrom, PhaseTransit},
	{arrivalFrom, PhaseArrival},
}

// teleportPath общий путь захвата и варпа
type teleportPath struct {
	Start         vec.Vec2
	StartRotation float64
	Target        vec.Vec2 // развёрнута относительно Start
}

// heading курс на цель; пока цели нет, исходный
func (tp teleportPath) heading() float64 {
	d := tp.Target.Sub(tp.Start)
	if d.LengthSq() < 1e-9 {
		return tp.StartRotation
	}
	return d.Angle()
}

func (tp teleportPath) poseAt(p float64) Pose {
	switch teleportBands.at(p) {
	case PhaseCharging:
		t := local(p, 0, flashFrom)
		ps := pose(tp.Start, tp.StartRotation)
		ps.Scale = 1 - 0.15*t
		return ps
	case PhaseFlash:
		t := local(p, flashFrom, transitFrom)
		ps := pose(tp.Start, vec.LerpAngle(tp.StartRotation, tp.heading(), t))
		ps.Scale = 0.85 + 0.45*math.Sin(t*math.Pi)
		return ps
	case PhaseTransit:
		ps := transitPose(tp.Start, tp.Target, local(p, transitFrom, arrivalFrom))
		ps.Rotation = tp.heading()
		return ps
	default:
		t := local(p, arrivalFrom, 1)
		ps := pose(tp.Target, tp.heading())
		ps.Scale = vec.Lerp(0.85, 1, t)
		return ps
	}
}

// WarpRate прирост progress варпа за тик
const WarpRate = 1.0 / 120.0

// Warp возвращение домой: зарядка, вспышка, перелёт, прибытие
type Warp struct {
	base
	path teleportPath
}

// NewWarp запускает варп из start в target
func NewWarp(start vec.Vec2, startRotation float64, target vec.Vec2) *Warp {
	return &Warp{
		base: base{active: true, progress: NewProgress(WarpRate, 1)},
		path: teleportPath{Start: start, StartRotation: startRotation, Target: target},
	}
}

func (w *Warp) Kind() Kind { return KindWarp }
func (w *Warp) Phase() Phase { return w.PhaseAt(w.progress.Value) }
func (w *Warp) PhaseAt(p float64) Phase { return teleportBands.at(p) }
func (w *Warp) PoseAt(p float64) Pose { return w.path.poseAt(p) }
func (w *Warp) Pose() Pose { return w.PoseAt(w.progress.Value) }
func (w *Warp) Target() vec.Vec2 { return w.path.Target }

// ClaimRate прирост progress захвата за тик
const ClaimRate = 1.0 / 150.0

// Claim захват планеты: корабль буксирует планету к цели. Цель может
// прийти позже от backend, до этого progress держится перед перелётом.
type Claim struct {
	base
	PlanetID    string
	PlanetStart vec.Vec2
	path        teleportPath
	towOffset   vec.Vec2
	targetKnown bool
	hold        holdTimer
}

// NewClaim запускает захват. При target == nil анимация ждёт ResolveTarget.
func NewClaim(planetID string, start vec.Vec2, startRotation float64, planetPos vec.Vec2, target *vec.Vec2) *Claim {
	c := &Claim{
		base:        base{active: true, progress: NewProgress(ClaimRate, 1)},
		PlanetID:    planetID,
		PlanetStart: planetPos,
		path:        teleportPath{Start: start, StartRotation: startRotation, Target: start},
		towOffset:   planetPos.Sub(start),
	}
	if target != nil {
		c.path.Target = *target
		c.targetKnown = true
	} else {
		c.progress.HoldAt(transitFrom)
	}
	return c
}

func (c *Claim) Kind() Kind { return KindClaim }
func (c *Claim) Phase() Phase { return c.PhaseAt(c.progress.Value) }
func (c *Claim) PhaseAt(p float64) Phase { return teleportBands.at(p) }
func (c *Claim) PoseAt(p float64) Pose { return c.path.poseAt(p) }
func (c *Claim) Pose() Pose { return c.PoseAt(c.progress.Value) }
func (c *Claim) TargetKnown() bool { return c.targetKnown }

// HoldExpired захват ждёт цель в точке удержания не меньше limit
func (c *Claim) HoldExpired(now time.Time, limit time.Duration) bool {
	if !c.active || c.targetKnown {
		return false
	}
	return c.hold.expired(c.progress.Holding(), now, limit)
}

// PlanetPoseAt буксируемая планета сохраняет смещение относительно корабля
func (c *Claim) PlanetPoseAt(p float64) Pose {
	ship := c.PoseAt(p)
	ps := pose(ship.Pos.Add(c.towOffset), 0)
	ps.Scale = ship.Scale
	return ps
}

// ResolveTarget задаёт цель и снимает удержание
func (c *Claim) ResolveTarget(target vec.Vec2) error {
	if !c.active {
		return ErrNotActive
	}
	if c.targetKnown {
		return ErrTargetKnown
	}
	c.path.Target = target
	c.targetKnown = true
	c.progress.Release()
	return nil
}

// PortalRate прирост progress портала за тик
const PortalRate = 1.0 / 100.0

var portalBands = bands{
	{0, PhaseEnter},
	{0.3, PhaseTransit},
	{0.6, PhaseExit},
}

// Portal вход в портал с вращением, невидимый перелёт и выход
type Portal struct {
	base
	Entrance      vec.Vec2
	Exit          vec.Vec2
	StartRotation float64
}

// NewPortal запускает переход через портал у точки entrance к exit
func NewPortal(entrance vec.Vec2, startRotation float64, exit vec.Vec2) *Portal {
	return &Portal{
		base:          base{active: true, progress: NewProgress(PortalRate, 1)},
		Entrance:      entrance,
		Exit:          exit,
		StartRotation: startRotation,
	}
}

func (pt *Portal) Kind() Kind { return KindPortal }
func (pt *Portal) Phase() Phase { return pt.PhaseAt(pt.progress.Value) }
func (pt *Portal) PhaseAt(p float64) Phase { return portalBands.at(p) }
func (pt *Portal) Pose() Pose { return pt.PoseAt(pt.progress.Value) }

func (pt *Portal) PoseAt(p float64) Pose {
	switch pt.PhaseAt(p) {
	case PhaseEnter:
		t := local(p, 0, 0.3)
		ps := pose(pt.Entrance, pt.StartRotation+4*math.Pi*t*t)
		ps.Scale = 1 - t
		return ps
	case PhaseTransit:
		ps := pose(pt.Exit, pt.StartRotation)
		ps.Scale = 0
		ps.Opacity = 0
		// Камера плавно переезжает к выходу
		ps.Focus = pt.Entrance.Lerp(pt.Exit, vec.EaseInOutCubic(local(p, 0.3, 0.6)))
		return ps
	default:
		t := local(p, 0.6, 1)
		ps := pose(pt.Exit, pt.StartRotation-4*math.Pi*(1-t)*(1-t))
		ps.Scale = t
		return ps
	}
}
