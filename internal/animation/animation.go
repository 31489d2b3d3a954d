package animation

import (
	"errors"

	"github.com/annel0/taskverse/internal/vec"
)

var (
	// ErrAnimationBusy уже активна другая эксклюзивная анимация корабля
	ErrAnimationBusy = errors.New("animation: another exclusive animation is active")
	// ErrNotActive анимация не запущена
	ErrNotActive = errors.New("animation: not active")
	// ErrTargetKnown цель уже задана
	ErrTargetKnown = errors.New("animation: target already resolved")
)

// Kind вид анимации
type Kind int

const (
	KindNone Kind = iota
	KindLanding
	KindClaim
	KindWarp
	KindPortal
	KindNuke
	KindSend
	KindDestroy
)

func (k Kind) String() string {
	switch k {
	case KindLanding:
		return "landing"
	case KindClaim:
		return "claim"
	case KindWarp:
		return "warp"
	case KindPortal:
		return "portal"
	case KindNuke:
		return "nuke"
	case KindSend:
		return "send"
	case KindDestroy:
		return "destroy"
	default:
		return "none"
	}
}

// Exclusive анимации, забирающие управление кораблём
func (k Kind) Exclusive() bool {
	switch k {
	case KindLanding, KindClaim, KindWarp, KindPortal, KindNuke:
		return true
	}
	return false
}

// Phase фаза анимации, выбирается только по progress
type Phase string

const (
	PhaseIdle Phase = "idle"

	// Посадка
	PhaseApproach Phase = "approach"
	PhaseOrbit    Phase = "orbit"
	PhaseDescent  Phase = "descent"
	PhaseSettle   Phase = "settle"

	// Захват, варп
	PhaseCharging Phase = "charging"
	PhaseFlash    Phase = "flash"
	PhaseTransit  Phase = "transit"
	PhaseArrival  Phase = "arrival"

	// Портал
	PhaseEnter Phase = "enter"
	PhaseExit  Phase = "exit"

	// Ядерная ракета
	PhaseLaunch     Phase = "launch"
	PhaseFlight     Phase = "flight"
	PhaseDetonation Phase = "detonation"

	// Толкание
	PhasePushOut Phase = "push_out"

	// Разрушение
	PhaseShake Phase = "shake"
	PhaseBreak Phase = "break"
	PhaseFade  Phase = "fade"
)

// Pose вычисленное анимацией состояние объекта
type Pose struct {
	Pos      vec.Vec2 `json:"pos"`
	Rotation float64  `json:"rotation"`
	Scale    float64  `json:"scale"`
	Opacity  float64  `json:"opacity"`
	// Focus точка, за которой следит камера
	Focus vec.Vec2 `json:"focus"`
}

func pose(pos vec.Vec2, rot float64) Pose {
	return Pose{Pos: pos, Rotation: rot, Scale: 1, Opacity: 1, Focus: pos}
}

// Animation общий интерфейс всех анимаций
type Animation interface {
	Kind() Kind
	Active() bool
	Progress() float64
	Phase() Phase
	// PhaseAt и PoseAt чистые функции progress
	PhaseAt(progress float64) Phase
	PoseAt(progress float64) Pose
	// Step продвигает progress на rate*dt, возвращает true по завершении
	Step(dt float64) bool
	Cancel()
}

// band нижняя граница диапазона фазы
type band struct {
	from  float64
	phase Phase
}

// bands диапазоны фаз по возрастанию from
type bands []band

func (b bands) at(p float64) Phase {
	ph := b[0].phase
	for _, x := range b {
		if p >= x.from {
			ph = x.phase
		}
	}
	return ph
}

// local положение p внутри диапазона [from, to) в долях 0..1
func local(p, from, to float64) float64 {
	if to <= from {
		return 1
	}
	return vec.Clamp((p-from)/(to-from), 0, 1)
}

// transitPose перелёт по ease-in-out cubic с курсом atan2 на цель
func transitPose(start, target vec.Vec2, t float64) Pose {
	pos := start.Lerp(target, vec.EaseInOutCubic(t))
	return pose(pos, target.Sub(start).Angle())
}

// quadBezier точка квадратичной кривой Безье
func quadBezier(p0, p1, p2 vec.Vec2, t float64) vec.Vec2 {
	u := 1 - t
	return p0.Mul(u * u).Add(p1.Mul(2 * u * t)).Add(p2.Mul(t * t))
}

// quadBezierTangent производная квадратичной кривой Безье
func quadBezierTangent(p0, p1, p2 vec.Vec2, t float64) vec.Vec2 {
	return p1.Sub(p0).Mul(2 * (1 - t)).Add(p2.Sub(p1).Mul(2 * t))
}
