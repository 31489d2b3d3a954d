package entity

import "math"

// Octave одна синусоида суммы
type Octave struct {
	Amplitude float64
	Frequency float64 // рад/с
	Phase     float64
}

// Oscillator сумма нескольких синусоид. Значение и производная вычисляются
// аналитически, поэтому скорость согласована с движением без численного дифференцирования.
type Oscillator []Octave

// Value возвращает Σ a·sin(t·f + φ)
func (o Oscillator) Value(t float64) float64 {
	sum := 0.0
	for _, oc := range o {
		sum += oc.Amplitude * math.Sin(t*oc.Frequency+oc.Phase)
	}
	return sum
}

// Derivative возвращает Σ a·f·cos(t·f + φ)
func (o Oscillator) Derivative(t float64) float64 {
	sum := 0.0
	for _, oc := range o {
		sum += oc.Amplitude * oc.Frequency * math.Cos(t*oc.Frequency+oc.Phase)
	}
	return sum
}

// Reach максимальное отклонение от нуля
func (o Oscillator) Reach() float64 {
	sum := 0.0
	for _, oc := range o {
		sum += math.Abs(oc.Amplitude)
	}
	return sum
}
