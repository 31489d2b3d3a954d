package network

import (
	"time"

	"github.com/annel0/taskverse/internal/clock"
	"github.com/annel0/taskverse/internal/vec"
	"github.com/annel0/taskverse/internal/world"
)

// Mode режим интерполяции удалённых игроков
type Mode int

const (
	// ModeDeadReckoning экстраполяция последнего снимка плюс экспоненциальное сглаживание
	ModeDeadReckoning Mode = iota
	// ModeExact линейная интерполяция между двумя снимками вокруг now - задержка
	ModeExact
)

// String имя режима
func (m Mode) String() string {
	if m == ModeExact {
		return "exact"
	}
	return "dead_reckoning"
}

// InterpolatorConfig настраиваемые параметры сглаживания
type InterpolatorConfig struct {
	PredictionCap time.Duration // максимальное время экстраполяции
	LerpRate      float64       // доля сближения за тик 60 Гц
	Mode          Mode
	// ExactDelay задержка воспроизведения в точном режиме.
	// 0 - задержка равна установившемуся отставанию сглаживания, и режимы совпадают.
	ExactDelay time.Duration
}

// DefaultInterpolatorConfig значения по умолчанию
func DefaultInterpolatorConfig() InterpolatorConfig {
	return InterpolatorConfig{
		PredictionCap: 200 * time.Millisecond,
		LerpRate:      0.15,
		Mode:          ModeDeadReckoning,
	}
}

// RenderState позиция удалённого игрока для отрисовки и всех остальных систем.
// Пишется только интерполятором, один раз за тик.
type RenderState struct {
	Pos        vec.Vec2
	Vel        vec.Vec2
	Rotation   float64
	Thrusting  bool
	Boosting   bool
	LastUpdate time.Time

	initialized bool
}

// Initialized есть ли у состояния позиция
func (rs *RenderState) Initialized() bool {
	return rs.initialized
}

// Place ставит состояние в точку без сглаживания (первое появление, fallback)
func (rs *RenderState) Place(pos vec.Vec2, rotation float64) {
	rs.Pos = pos
	rs.Rotation = rotation
	rs.initialized = true
}

// StepResult что произошло за шаг интерполяции
type StepResult struct {
	Capped bool // экстраполяция упёрлась в PredictionCap
	Moved  bool // был хотя бы один снимок
}

// Interpolator вычисляет RenderState из буфера снимков
type Interpolator struct {
	space world.Space
	cfg   InterpolatorConfig
}

// NewInterpolator создаёт интерполятор
func NewInterpolator(space world.Space, cfg InterpolatorConfig) *Interpolator {
	if cfg.LerpRate <= 0 || cfg.LerpRate > 1 {
		cfg.LerpRate = 0.15
	}
	if cfg.PredictionCap < 0 {
		cfg.PredictionCap = 0
	}
	return &Interpolator{space: space, cfg: cfg}
}

// Config возвращает текущую конфигурацию
func (ip *Interpolator) Config() InterpolatorConfig {
	return ip.cfg
}

// SteadyStateLag установившееся отставание сглаживания при dt = 1
func (ip *Interpolator) SteadyStateLag() time.Duration {
	r := ip.cfg.LerpRate
	ticks := (1 - r) / r
	return time.Duration(ticks * clock.TargetFrameMs * float64(time.Millisecond))
}

// Step продвигает rs на один тик. Без снимков rs не меняется.
func (ip *Interpolator) Step(rs *RenderState, buf *SnapshotBuffer, now time.Time, dt float64) StepResult {
	if buf == nil || buf.Len() == 0 {
		return StepResult{}
	}
	if ip.cfg.Mode == ModeExact {
		return ip.stepExact(rs, buf, now)
	}
	return ip.stepDeadReckoning(rs, buf, now, dt)
}

// predict экстраполирует снимок на момент now, не дальше PredictionCap
func (ip *Interpolator) predict(s Snapshot, now time.Time) (vec.Vec2, bool) {
	age := now.Sub(s.ReceivedAt)
	if age < 0 {
		age = 0
	}
	capped := false
	if age > ip.cfg.PredictionCap {
		age = ip.cfg.PredictionCap
		capped = true
	}
	ticks := float64(age) / float64(time.Millisecond) / clock.TargetFrameMs
	return s.Pos().Add(s.Vel().Mul(ticks)), capped
}

func (ip *Interpolator) stepDeadReckoning(rs *RenderState, buf *SnapshotBuffer, now time.Time, dt float64) StepResult {
	latest, _ := buf.Latest()
	predicted, capped := ip.predict(latest, now)

	if !rs.initialized {
		rs.Place(ip.space.WrapIntoBounds(predicted), latest.Rotation)
		rs.Vel = latest.Vel()
	} else {
		target := ip.space.UnwrapRelativeTo(rs.Pos, predicted)
		alpha := vec.Smoothing(ip.cfg.LerpRate, dt)

		rs.Pos = ip.space.WrapIntoBounds(rs.Pos.Lerp(target, alpha))
		rs.Vel = rs.Vel.Lerp(latest.Vel(), alpha)
		rs.Rotation = vec.WrapAngle(vec.LerpAngle(rs.Rotation, latest.Rotation, alpha))
	}

	rs.Thrusting = latest.Thrusting
	rs.Boosting = latest.Boosting
	rs.LastUpdate = latest.ReceivedAt
	return StepResult{Capped: capped, Moved: true}
}

func (ip *Interpolator) stepExact(rs *RenderState, buf *SnapshotBuffer, now time.Time) StepResult {
	delay := ip.cfg.ExactDelay
	if delay <= 0 {
		delay = ip.SteadyStateLag()
	}
	renderTime := now.Add(-delay)

	before, after, hasBefore, hasAfter := buf.Bracket(renderTime)
	res := StepResult{Moved: true}

	switch {
	case hasBefore && hasAfter:
		span := after.ReceivedAt.Sub(before.ReceivedAt)
		t := 1.0
		if span > 0 {
			t = vec.Clamp(float64(renderTime.Sub(before.ReceivedAt))/float64(span), 0, 1)
		}
		from := before.Pos()
		to := ip.space.UnwrapRelativeTo(from, after.Pos())

		rs.Place(ip.space.WrapIntoBounds(from.Lerp(to, t)), vec.WrapAngle(vec.LerpAngle(before.Rotation, after.Rotation, t)))
		rs.Vel = before.Vel().Lerp(after.Vel(), t)
		if t > 0.5 {
			rs.Thrusting, rs.Boosting = after.Thrusting, after.Boosting
		} else {
			rs.Thrusting, rs.Boosting = before.Thrusting, before.Boosting
		}
		rs.LastUpdate = after.ReceivedAt

	case hasBefore:
		// Момент воспроизведения новее последнего снимка - экстраполируем
		predicted, capped := ip.predict(before, renderTime)
		rs.Place(ip.space.WrapIntoBounds(predicted), before.Rotation)
		rs.Vel = before.Vel()
		rs.Thrusting, rs.Boosting = before.Thrusting, before.Boosting
		rs.LastUpdate = before.ReceivedAt
		res.Capped = capped

	default:
		// Все снимки новее момента воспроизведения - стоим на самом старом
		rs.Place(ip.space.WrapIntoBounds(after.Pos()), after.Rotation)
		rs.Vel = after.Vel()
		rs.Thrusting, rs.Boosting = after.Thrusting, after.Boosting
		rs.LastUpdate = after.ReceivedAt
	}

	return res
}
