package combat

import (
	"github.com/annel0/taskverse/internal/vec"
	"github.com/annel0/taskverse/internal/world"
)

// Target цель, с которой сталкиваются снаряды
type Target interface {
	TargetID() string
	Circle() (pos vec.Vec2, radius float64)
	// Shielded цель отражает снаряды
	Shielded() bool
	// Destructible цель теряет прочность
	Destructible() bool
	// TakeDamage возвращает true, если цель уничтожена этим попаданием
	TakeDamage(amount float64) bool
}

// planetTarget планета реестра как цель
type planetTarget struct {
	registry *world.Registry
	planet   world.Planet
}

func (t *planetTarget) TargetID() string { return t.planet.ID }

func (t *planetTarget) Circle() (vec.Vec2, float64) { return t.planet.Pos, t.planet.Radius }

func (t *planetTarget) Shielded() bool { return t.planet.Shielded() }

func (t *planetTarget) Destructible() bool { return t.planet.Destructible() }

func (t *planetTarget) TakeDamage(amount float64) bool {
	destroyed := false
	t.registry.Mutate(t.planet.ID, func(p *world.Planet) {
		destroyed = p.ApplyDamage(amount)
		t.planet = *p
	})
	return destroyed
}

// PlanetTargets возвращает осязаемые планеты в радиусе как цели.
// Планеты под анимацией (толкание, разрушение) не участвуют.
func PlanetTargets(registry *world.Registry, center vec.Vec2, radius float64) []Target {
	planets := registry.Nearby(center, radius)
	out := make([]Target, 0, len(planets))
	for _, p := range planets {
		if p.Intangible() || registry.IsProtected(p.ID) {
			continue
		}
		out = append(out, &planetTarget{registry: registry, planet: p})
	}
	return out
}
