package entity

import (
	"math"
	"math/rand"

	"github.com/annel0/taskverse/internal/vec"
	"github.com/annel0/taskverse/internal/world"
)

// NPCKind тип параметрического NPC
type NPCKind string

const (
	NPCMerchant NPCKind = "merchant"
	NPCCreature NPCKind = "creature"
)

// ParametricPath траектория вокруг центра: по каждой оси своя сумма синусоид
type ParametricPath struct {
	Center vec.Vec2
	X      Oscillator
	Y      Oscillator
}

// Position возвращает позицию (без переноса на торе)
func (p ParametricPath) Position(t float64) vec.Vec2 {
	return vec.Vec2{X: p.Center.X + p.X.Value(t), Y: p.Center.Y + p.Y.Value(t)}
}

// Velocity возвращает аналитическую скорость, px/с
func (p ParametricPath) Velocity(t float64) vec.Vec2 {
	return vec.Vec2{X: p.X.Derivative(t), Y: p.Y.Derivative(t)}
}

// Visibility параметры цикла прозрачности
type Visibility struct {
	Frequency float64 // рад/с
	Phase     float64
	Min       float64 // минимальная непрозрачность
}

// Opacity значение в [Min, 1]
func (v Visibility) Opacity(t float64) float64 {
	if v.Frequency == 0 {
		return 1
	}
	k := 0.5 + 0.5*math.Sin(t*v.Frequency+v.Phase)
	return v.Min + (1-v.Min)*k
}

// Sample мгновенное состояние NPC, чистая функция времени
type Sample struct {
	Pos     vec.Vec2
	Vel     vec.Vec2
	Heading float64 // направление скорости atan2(vy, vx)
	Opacity float64
}

// ParametricNPC NPC, движение которого полностью определяется временем.
// Все клиенты, подставляющие одно и то же время, видят NPC в одном месте без сетевой синхронизации.
type ParametricNPC struct {
	ID          string
	Kind        NPCKind
	Path        ParametricPath
	Visibility  Visibility
	HeadingRate float64 // доля сближения курса за тик 60 Гц

	space world.Space

	// Состояние после Update
	Pos         vec.Vec2
	Vel         vec.Vec2
	Heading     float64
	Opacity     float64
	initialized bool
}

// NewParametricNPC создаёт NPC заданного типа. Константы траектории выводятся из seed,
// поэтому у клиентов с одинаковым seed они совпадают.
func NewParametricNPC(id string, kind NPCKind, center vec.Vec2, seed int64, space world.Space) *ParametricNPC {
	rng := rand.New(rand.NewSource(seed))

	// Параметры по умолчанию
	amplitude := 600.0
	baseFreq := 0.02
	headingRate := 0.08
	vis := Visibility{}

	// Настройка поведения в зависимости от типа NPC
	switch kind {
	case NPCMerchant:
		// Торговец медленно кружит по широкой орбите
		amplitude = 1200.0
		baseFreq = 0.01
		headingRate = 0.05
	case NPCCreature:
		// Существо мечется быстрее и периодически исчезает
		amplitude = 400.0
		baseFreq = 0.045
		headingRate = 0.12
		vis = Visibility{Frequency: 0.15, Phase: rng.Float64() * 2 * math.Pi, Min: 0}
	}

	return &ParametricNPC{
		ID:   id,
		Kind: kind,
		Path: ParametricPath{
			Center: center,
			X:      randomOscillator(rng, amplitude, baseFreq),
			Y:      randomOscillator(rng, amplitude, baseFreq),
		},
		Visibility:  vis,
		HeadingRate: headingRate,
		space:       space,
	}
}

// randomOscillator три октавы с убывающей амплитудой и растущей частотой
func randomOscillator(rng *rand.Rand, amplitude, baseFreq float64) Oscillator {
	osc := make(Oscillator, 3)
	for i := range osc {
		scale := math.Pow(2, float64(i))
		osc[i] = Octave{
			Amplitude: amplitude / scale * (0.7 + 0.3*rng.Float64()),
			Frequency: baseFreq * scale * (0.8 + 0.4*rng.Float64()),
			Phase:     rng.Float64() * 2 * math.Pi,
		}
	}
	return osc
}

// Evaluate вычисляет состояние в момент t (секунды), не изменяя NPC
func (n *ParametricNPC) Evaluate(t float64) Sample {
	vel := n.Path.Velocity(t)
	return Sample{
		Pos:     n.space.WrapIntoBounds(n.Path.Position(t)),
		Vel:     vel,
		Heading: math.Atan2(vel.Y, vel.X),
		Opacity: n.Visibility.Opacity(t),
	}
}

// Update обновляет наблюдаемое состояние: позиция и скорость берутся из Evaluate,
// курс плавно догоняет направление скорости по кратчайшей дуге.
func (n *ParametricNPC) Update(t, dt float64) {
	s := n.Evaluate(t)
	n.Pos = s.Pos
	n.Vel = s.Vel
	n.Opacity = s.Opacity

	if !n.initialized {
		n.Heading = s.Heading
		n.initialized = true
		return
	}
	n.Heading = vec.WrapAngle(vec.LerpAngle(n.Heading, s.Heading, vec.Smoothing(n.HeadingRate, dt)))
}

// Visible NPC достаточно непрозрачен, чтобы с ним можно было взаимодействовать
func (n *ParametricNPC) Visible() bool {
	return n.Opacity > 0.05
}
