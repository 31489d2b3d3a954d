package vec

import "math"

// WrapAngle приводит угол к диапазону [-π, π]
func WrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// AngleDiff возвращает знаковую кратчайшую разницу to - from в [-π, π]
func AngleDiff(from, to float64) float64 {
	return WrapAngle(to - from)
}

// LerpAngle поворачивает from к to по кратчайшей дуге на долю t
func LerpAngle(from, to, t float64) float64 {
	return from + AngleDiff(from, to)*t
}

// Lerp скалярная линейная интерполяция
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Clamp ограничивает x диапазоном [lo, hi]
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// EaseInOutCubic: разгон, крейсер, торможение
func EaseInOutCubic(t float64) float64 {
	t = Clamp(t, 0, 1)
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}

// Smoothing возвращает долю сближения за кадр для экспоненциального сглаживания,
// независимую от частоты кадров: 1 - (1-rate)^dt.
func Smoothing(rate, dt float64) float64 {
	if rate >= 1 {
		return 1
	}
	if dt <= 0 {
		return 0
	}
	return 1 - math.Pow(1-rate, dt)
}
