package world

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/annel0/taskverse/internal/util"
	"github.com/annel0/taskverse/internal/vec"
)

// Пороговые значения шума для генерации полей астероидов
const (
	RockThreshold       = 0.72 // Выше - твёрдый астероид
	DecorationThreshold = 0.64 // Выше - декоративная пыль без столкновений
)

// Generator процедурно генерирует поля астероидов вокруг точки.
// Результат детерминирован для пары (seed, ячейка сетки).
type Generator struct {
	Seed       int64
	NoiseScale float64 // Масштаб шума (размер скоплений)
	CellSize   float64 // Шаг сетки кандидатов
	RockHealth float64

	space Space
	noise *util.Noise
}

// NewGenerator создаёт генератор полей
func NewGenerator(seed int64, space Space) *Generator {
	return &Generator{
		Seed:       seed,
		NoiseScale: 0.0015,
		CellSize:   160,
		RockHealth: 30,
		space:      space,
		noise:      util.NewNoise(seed),
	}
}

// GenerateField возвращает объекты поля в квадрате со стороной 2*radius вокруг center
func (g *Generator) GenerateField(center vec.Vec2, radius float64) []Planet {
	center = g.space.WrapIntoBounds(center)
	perSide := int(math.Ceil(g.space.Size / g.CellSize))

	minX := int(math.Floor((center.X - radius) / g.CellSize))
	maxX := int(math.Floor((center.X + radius) / g.CellSize))
	minY := int(math.Floor((center.Y - radius) / g.CellSize))
	maxY := int(math.Floor((center.Y + radius) / g.CellSize))

	seen := make(map[[2]int]struct{})
	result := make([]Planet, 0)

	for cy := minY; cy <= maxY; cy++ {
		for cx := minX; cx <= maxX; cx++ {
			key := [2]int{mod(cx, perSide), mod(cy, perSide)}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			if p, ok := g.cell(key[0], key[1]); ok {
				result = append(result, p)
			}
		}
	}

	return result
}

// cell решает, есть ли объект в ячейке сетки
func (g *Generator) cell(cx, cy int) (Planet, bool) {
	baseX := float64(cx) * g.CellSize
	baseY := float64(cy) * g.CellSize

	n := g.noise.At(baseX*g.NoiseScale, baseY*g.NoiseScale)
	if n < DecorationThreshold {
		return Planet{}, false
	}

	// Для каждой ячейки свой сид на основе глобального сида и координат
	cellSeed := g.Seed + int64(cx)*73856093 + int64(cy)*19349663
	rng := rand.New(rand.NewSource(cellSeed))

	pos := g.space.WrapIntoBounds(vec.Vec2{
		X: baseX + rng.Float64()*g.CellSize,
		Y: baseY + rng.Float64()*g.CellSize,
	})

	p := Planet{
		ID:  fmt.Sprintf("ast-%d-%d", cx, cy),
		Pos: pos,
	}

	if n >= RockThreshold {
		p.Kind = KindAsteroid
		p.Radius = 14 + rng.Float64()*22
		p.MaxHealth = g.RockHealth * (p.Radius / 25)
		p.Health = p.MaxHealth
		p.Color = "#8a7f72"
	} else {
		p.Kind = KindDecoration
		p.Radius = 4 + rng.Float64()*6
		p.Color = "#4a4e5a"
	}

	return p, true
}
