package combat

import (
	"math"
	"math/rand"
)

// PatternKind вид атаки босса
type PatternKind int

const (
	PatternNone PatternKind = iota
	PatternBurst
	PatternSpiral
	PatternRadial
	PatternFan
	PatternRandomSpray
	PatternHomingWave
)

func (k PatternKind) String() string {
	switch k {
	case PatternBurst:
		return "burst"
	case PatternSpiral:
		return "spiral"
	case PatternRadial:
		return "radial"
	case PatternFan:
		return "fan"
	case PatternRandomSpray:
		return "random_spray"
	case PatternHomingWave:
		return "homing_wave"
	default:
		return "none"
	}
}

// AllPatterns порядок выбора паттернов
var AllPatterns = []PatternKind{
	PatternBurst, PatternSpiral, PatternRadial, PatternFan, PatternRandomSpray, PatternHomingWave,
}

// Shot один выстрел паттерна. Speed - множитель скорости снаряда.
type Shot struct {
	Angle  float64
	Speed  float64
	Homing bool
}

// Pattern расписание выстрелов по времени фазы (тики)
type Pattern struct {
	Kind     PatternKind
	Duration float64
	Interval float64
	// volley выстрелы залпа номер n в момент t
	volley func(n int, t, aim float64, rng *rand.Rand) []Shot
}

// NewPattern возвращает паттерн вида kind
func NewPattern(kind PatternKind) Pattern {
	switch kind {
	case PatternBurst:
		return Pattern{Kind: kind, Duration: 96, Interval: 8, volley: burstVolley}
	case PatternSpiral:
		return Pattern{Kind: kind, Duration: 150, Interval: 3, volley: spiralVolley}
	case PatternRadial:
		return Pattern{Kind: kind, Duration: 90, Interval: 30, volley: radialVolley}
	case PatternFan:
		return Pattern{Kind: kind, Duration: 100, Interval: 20, volley: fanVolley}
	case PatternRandomSpray:
		return Pattern{Kind: kind, Duration: 120, Interval: 2, volley: sprayVolley}
	case PatternHomingWave:
		return Pattern{Kind: kind, Duration: 120, Interval: 40, volley: homingVolley}
	}
	return Pattern{Kind: PatternNone}
}

// ShotsBetween выстрелы, запланированные на время фазы в [from, to).
// Сумма по смежным интервалам не зависит от шага времени.
func (p Pattern) ShotsBetween(from, to, aim float64, rng *rand.Rand) []Shot {
	if p.volley == nil || p.Interval <= 0 || to <= from {
		return nil
	}
	if from < 0 {
		from = 0
	}
	if to > p.Duration {
		to = p.Duration
	}
	var shots []Shot
	n := int(math.Ceil(from / p.Interval))
	for t := float64(n) * p.Interval; t < to; t = float64(n) * p.Interval {
		shots = append(shots, p.volley(n, t, aim, rng)...)
		n++
	}
	return shots
}

// Done паттерн отработал
func (p Pattern) Done(t float64) bool { return t >= p.Duration }

func burstVolley(_ int, _ float64, aim float64, _ *rand.Rand) []Shot {
	return []Shot{
		{Angle: aim - 0.08, Speed: 1},
		{Angle: aim, Speed: 1.1},
		{Angle: aim + 0.08, Speed: 1},
	}
}

func spiralVolley(_ int, t float64, _ float64, _ *rand.Rand) []Shot {
	a := t * 0.2
	return []Shot{{Angle: a, Speed: 0.9}, {Angle: a + math.Pi, Speed: 0.9}}
}

func radialVolley(n int, _ float64, _ float64, _ *rand.Rand) []Shot {
	const count = 16
	offset := float64(n%2) * math.Pi / count
	shots := make([]Shot, count)
	for i := range shots {
		shots[i] = Shot{Angle: offset + 2*math.Pi*float64(i)/count, Speed: 0.8}
	}
	return shots
}

func fanVolley(_ int, _ float64, aim float64, _ *rand.Rand) []Shot {
	const count = 7
	const spread = 0.8
	shots := make([]Shot, count)
	for i := range shots {
		shots[i] = Shot{Angle: aim - spread/2 + spread*float64(i)/(count-1), Speed: 1}
	}
	return shots
}

func sprayVolley(_ int, _ float64, aim float64, rng *rand.Rand) []Shot {
	return []Shot{{Angle: aim + (rng.Float64()*2-1)*0.6, Speed: 0.8 + rng.Float64()*0.4}}
}

func homingVolley(_ int, _ float64, aim float64, _ *rand.Rand) []Shot {
	return []Shot{
		{Angle: aim + math.Pi/2, Speed: 1, Homing: true},
		{Angle: aim - math.Pi/2, Speed: 1, Homing: true},
		{Angle: aim + math.Pi*0.75, Speed: 1, Homing: true},
		{Angle: aim - math.Pi*0.75, Speed: 1, Homing: true},
	}
}

// pickPattern случайный паттерн, не совпадающий с last
func pickPattern(rng *rand.Rand, last PatternKind) PatternKind {
	candidates := make([]PatternKind, 0, len(AllPatterns))
	for _, k := range AllPatterns {
		if k != last {
			candidates = append(candidates, k)
		}
	}
	return candidates[rng.Intn(len(candidates))]
}
