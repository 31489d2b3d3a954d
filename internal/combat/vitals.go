package combat

import "math"

// PlayerVitals здоровье игрока в бою с боссом.
// Поражение фиксируется один раз до Respawn.
type PlayerVitals struct {
	Health    float64
	MaxHealth float64
	defeated  bool
}

// NewPlayerVitals создаёт полное здоровье max
func NewPlayerVitals(max float64) *PlayerVitals {
	if max <= 0 {
		max = 100
	}
	return &PlayerVitals{Health: max, MaxHealth: max}
}

// Damage наносит урон. Возвращает true, если удар стал смертельным.
func (v *PlayerVitals) Damage(amount float64) bool {
	if v.defeated || math.IsNaN(amount) || amount <= 0 {
		return false
	}
	v.Health -= amount
	if v.Health <= 0 {
		v.Health = 0
		v.defeated = true
		return true
	}
	return false
}

// Defeated здоровье игрока исчерпано
func (v *PlayerVitals) Defeated() bool { return v.defeated }

// Respawn восстанавливает здоровье
func (v *PlayerVitals) Respawn() {
	v.Health = v.MaxHealth
	v.defeated = false
}
