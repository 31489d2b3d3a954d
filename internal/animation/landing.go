package animation

import (
	"math"

	"github.com/annel0/taskverse/internal/vec"
)

const (
	// LandingRate прирост progress за тик без бонуса посадки
	LandingRate = 1.0 / 90.0
	// LandingEnd посадка включает завершающую фазу [1, 1.1)
	LandingEnd = 1.1
	// LandingOrbitGap зазор орбиты над поверхностью
	LandingOrbitGap = 60.0
)

var landingBands = bands{
	{0, PhaseApproach},
	{0.35, PhaseOrbit},
	{0.75, PhaseDescent},
	{1.0, PhaseSettle},
}

// LandingParams зафиксированные при старте параметры посадки
type LandingParams struct {
	PlanetID      string
	Start         vec.Vec2
	StartRotation float64
	Center        vec.Vec2 // центр планеты, развёрнутый относительно Start
	PlanetRadius  float64
	OrbitRadius   float64
	EntryAngle    float64 // угол точки входа на орбиту от центра
	Sweep         float64 // дуга облёта со знаком направления
	ShipRadius    float64
}

// Landing заход на орбиту, облёт и посадка на планету
type Landing struct {
	base
	Params LandingParams
}

// NewLanding запускает посадку. rateMultiplier - бонус скорости посадки.
func NewLanding(params LandingParams, rateMultiplier float64) *Landing {
	if rateMultiplier <= 0 {
		rateMultiplier = 1
	}
	if params.OrbitRadius <= params.PlanetRadius {
		params.OrbitRadius = params.PlanetRadius + LandingOrbitGap
	}
	if params.Sweep == 0 {
		params.Sweep = math.Pi / 2
	}
	return &Landing{
		base:   base{active: true, progress: NewProgress(LandingRate*rateMultiplier, LandingEnd)},
		Params: params,
	}
}

func (l *Landing) Kind() Kind { return KindLanding }

func (l *Landing) Phase() Phase { return l.PhaseAt(l.progress.Value) }

func (l *Landing) PhaseAt(p float64) Phase { return landingBands.at(p) }

// Landed корабль сел, идёт завершающая фаза
func (l *Landing) Landed() bool { return l.progress.Value >= 1 }

// surfaceRadius расстояние от центра планеты до корабля после посадки
func (l *Landing) surfaceRadius() float64 {
	return l.Params.PlanetRadius + l.Params.ShipRadius*0.5
}

func (l *Landing) orbitPoint(angle, radius float64) vec.Vec2 {
	return l.Params.Center.Add(vec.FromAngle(angle).Mul(radius))
}

func (l *Landing) PoseAt(p float64) Pose {
	prm := l.Params
	exitAngle := prm.EntryAngle + prm.Sweep
	dir := 1.0
	if prm.Sweep < 0 {
		dir = -1
	}

	switch l.PhaseAt(p) {
	case PhaseApproach:
		entry := l.orbitPoint(prm.EntryAngle, prm.OrbitRadius)
		t := local(p, 0, 0.35)
		ps := transitPose(prm.Start, entry, t)
		ps.Rotation = vec.LerpAngle(prm.StartRotation, ps.Rotation, math.Min(1, t*4))
		return ps
	case PhaseOrbit:
		angle := prm.EntryAngle + prm.Sweep*vec.EaseInOutCubic(local(p, 0.35, 0.75))
		return pose(l.orbitPoint(angle, prm.OrbitRadius), angle+dir*math.Pi/2)
	case PhaseDescent:
		t := vec.EaseInOutCubic(local(p, 0.75, 1))
		radius := vec.Lerp(prm.OrbitRadius, l.surfaceRadius(), t)
		ps := pose(l.orbitPoint(exitAngle, radius), vec.LerpAngle(exitAngle+dir*math.Pi/2, exitAngle+math.Pi, t))
		ps.Scale = vec.Lerp(1, 0.7, t)
		return ps
	default:
		ps := pose(l.orbitPoint(exitAngle, l.surfaceRadius()), exitAngle+math.Pi)
		ps.Scale = 0.7
		return ps
	}
}

func (l *Landing) Pose() Pose { return l.PoseAt(l.progress.Value) }
