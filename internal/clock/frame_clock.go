package clock

import "time"

const (
	// TargetFrameMs длительность кадра при 60 Гц; dt = 1 соответствует одному такому кадру
	TargetFrameMs = 1000.0 / 60.0
	// DefaultDtCap ограничивает dt после долгих пауз (вкладка в фоне и т.п.)
	DefaultDtCap = 3.0
)

// FrameClock нормализует интервалы между кадрами в множитель dt (1.0 = 60 Гц).
// Все изменения за кадр (скорости, прогресс анимаций, таймеры) умножаются на dt.
type FrameClock struct {
	targetFrameMs float64
	capMultiplier float64
	last          time.Time
	started       bool
}

// NewFrameClock создаёт часы с заданной длительностью кадра и ограничением dt
func NewFrameClock(targetFrameMs, capMultiplier float64) *FrameClock {
	if targetFrameMs <= 0 {
		targetFrameMs = TargetFrameMs
	}
	if capMultiplier < 1 {
		capMultiplier = DefaultDtCap
	}
	return &FrameClock{targetFrameMs: targetFrameMs, capMultiplier: capMultiplier}
}

// Tick возвращает dt для кадра с меткой now. Первый кадр всегда даёт 1.
// Время, идущее назад, даёт 0 (кадр ничего не двигает).
func (c *FrameClock) Tick(now time.Time) float64 {
	if !c.started {
		c.started = true
		c.last = now
		return 1
	}

	elapsedMs := float64(now.Sub(c.last)) / float64(time.Millisecond)
	c.last = now
	if elapsedMs <= 0 {
		return 0
	}

	dt := elapsedMs / c.targetFrameMs
	if dt > c.capMultiplier {
		dt = c.capMultiplier
	}
	return dt
}

// Last возвращает метку последнего кадра
func (c *FrameClock) Last() time.Time {
	return c.last
}

// Reset сбрасывает часы: следующий Tick снова вернёт 1
func (c *FrameClock) Reset() {
	c.started = false
	c.last = time.Time{}
}

// DtToDuration переводит dt обратно в длительность реального времени
func (c *FrameClock) DtToDuration(dt float64) time.Duration {
	return time.Duration(dt * c.targetFrameMs * float64(time.Millisecond))
}
