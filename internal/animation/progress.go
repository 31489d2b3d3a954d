package animation

import (
	"math"
	"time"
)

// HoldEpsilon отступ точки удержания от порога
const HoldEpsilon = 1e-3

// Progress монотонный счётчик анимации. Пока цель неизвестна, значение
// останавливается на holdAt - HoldEpsilon и ждёт Release.
type Progress struct {
	Value float64
	Rate  float64 // прирост за тик при dt = 1
	End   float64 // значение завершения (1, у посадки 1.1)

	holdAt float64
}

// NewProgress создаёт счётчик со скоростью rate и концом end
func NewProgress(rate, end float64) Progress {
	if end <= 0 {
		end = 1
	}
	return Progress{Rate: rate, End: end}
}

// HoldAt включает удержание перед порогом threshold
func (p *Progress) HoldAt(threshold float64) {
	p.holdAt = threshold
}

// Release снимает удержание
func (p *Progress) Release() {
	p.holdAt = 0
}

// HoldPending удержание включено (цель ещё неизвестна)
func (p *Progress) HoldPending() bool {
	return p.holdAt > 0
}

// Holding progress достиг точки удержания и стоит
func (p *Progress) Holding() bool {
	return p.holdAt > 0 && p.Value >= p.holdAt-HoldEpsilon
}

// Advance продвигает значение, никогда не уменьшая его
func (p *Progress) Advance(dt float64) bool {
	if dt > 0 && p.Rate > 0 {
		next := p.Value + p.Rate*dt
		if p.holdAt > 0 {
			next = math.Min(next, math.Max(p.Value, p.holdAt-HoldEpsilon))
		}
		p.Value = math.Min(next, p.End)
	}
	return p.Done()
}

// Done достигнут конец
func (p *Progress) Done() bool {
	return p.Value >= p.End
}

// holdTimer отсчитывает, сколько анимация стоит в точке удержания
type holdTimer struct {
	since time.Time
}

// expired true, если удержание длится не меньше limit; вне удержания отсчёт сбрасывается
func (h *holdTimer) expired(holding bool, now time.Time, limit time.Duration) bool {
	if !holding {
		h.since = time.Time{}
		return false
	}
	if h.since.IsZero() {
		h.since = now
	}
	return limit > 0 && now.Sub(h.since) >= limit
}
