package animation

import (
	"math"
	"time"

	"github.com/annel0/taskverse/internal/vec"
)

const (
	// SendRate прирост progress толкания за тик
	SendRate = 1.0 / 90.0
	// SendPushDistance на сколько планета отлетает от корабля до получения цели
	SendPushDistance = 80.0
	sendHoldFrom     = 0.3
	sendSettleFrom   = 0.9
)

var sendBands = bands{
	{0, PhasePushOut},
	{sendHoldFrom, PhaseTransit},
	{sendSettleFrom, PhaseSettle},
}

// Send толкание планеты: отлёт от корабля, ожидание цели, перелёт, успокоение.
// Локальные экземпляры ключуются id планеты, удалённые - id игрока.
type Send struct {
	base
	Key       string
	PlanetID  string
	Start     vec.Vec2
	Direction vec.Vec2
	Remote    bool
	StartedAt time.Time

	target      vec.Vec2
	targetKnown bool
	hold        holdTimer
}

// NewSend запускает толкание планеты из start прочь от pusher
func NewSend(key, planetID string, start, pusher vec.Vec2, target *vec.Vec2, remote bool, now time.Time) *Send {
	dir := start.Sub(pusher)
	if dir.LengthSq() < 1e-9 {
		// Корабль в центре планеты: толкаем вдоль оси X
		dir = vec.New(1, 0)
	}
	s := &Send{
		base:      base{active: true, progress: NewProgress(SendRate, 1)},
		Key:       key,
		PlanetID:  planetID,
		Start:     start,
		Direction: dir.Normalized(),
		Remote:    remote,
		StartedAt: now,
		target:    start,
	}
	if target != nil {
		s.target = *target
		s.targetKnown = true
	} else {
		s.progress.HoldAt(sendHoldFrom)
	}
	return s
}

func (s *Send) Kind() Kind { return KindSend }
func (s *Send) Phase() Phase { return s.PhaseAt(s.progress.Value) }
func (s *Send) PhaseAt(p float64) Phase { return sendBands.at(p) }
func (s *Send) Pose() Pose { return s.PoseAt(s.progress.Value) }
func (s *Send) TargetKnown() bool { return s.targetKnown }

func (s *Send) pushedOut() vec.Vec2 {
	return s.Start.Add(s.Direction.Mul(SendPushDistance))
}

func (s *Send) PoseAt(p float64) Pose {
	switch s.PhaseAt(p) {
	case PhasePushOut:
		t := vec.EaseInOutCubic(local(p, 0, sendHoldFrom))
		return pose(s.Start.Lerp(s.pushedOut(), t), 0)
	case PhaseTransit:
		return pose(s.pushedOut().Lerp(s.target, vec.EaseInOutCubic(local(p, sendHoldFrom, sendSettleFrom))), 0)
	default:
		t := local(p, sendSettleFrom, 1)
		ps := pose(s.target, 0)
		ps.Scale = 1 + 0.1*math.Sin(t*math.Pi)
		return ps
	}
}

// ResolveTarget задаёт цель толкания и снимает удержание
func (s *Send) ResolveTarget(target vec.Vec2) error {
	if !s.active {
		return ErrNotActive
	}
	if s.targetKnown {
		return ErrTargetKnown
	}
	s.target = target
	s.targetKnown = true
	s.progress.Release()
	return nil
}

// Expired проверяет таймауты. Удалённое толкание бросается, если цель не пришла
// за remoteTimeout от старта; после ResolveTarget оно всегда доигрывается.
// Локальное бросается, если стоит в ожидании цели дольше localHold.
func (s *Send) Expired(now time.Time, remoteTimeout, localHold time.Duration) bool {
	if !s.active || s.targetKnown {
		return false
	}
	if s.Remote {
		return remoteTimeout > 0 && now.Sub(s.StartedAt) >= remoteTimeout
	}
	return s.hold.expired(s.progress.Holding(), now, localHold)
}
