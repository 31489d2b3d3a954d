package physics

import (
	"github.com/annel0/taskverse/internal/vec"
)

// Базовые константы корабля (за один тик 60 Гц)
const (
	ShipAcceleration  = 0.15
	ShipMaxSpeed      = 8.0
	ShipBoostMaxSpeed = 16.0
	ShipBoostAccel    = 2.0
	ShipRotationSpeed = 0.07
	ShipFriction      = 0.99
	ShipBrake         = 0.92
	ShipRadius        = 20.0
	Restitution       = 0.5
	CollisionNudge    = 1.0

	// FullSpeedCooldownTicks минимальный интервал между событиями удара на полной скорости (1 с)
	FullSpeedCooldownTicks = 60.0
	// FullSpeedFraction доля максимальной скорости, с которой удар считается ударом на полной скорости
	FullSpeedFraction = 0.9
)

// Modifiers бонусы улучшений корабля. Каждый уровень даёт +10%.
type Modifiers struct {
	SpeedBonus   int `json:"speed_bonus" msgpack:"speed_bonus"`
	SizeBonus    int `json:"size_bonus" msgpack:"size_bonus"`
	LandingBonus int `json:"landing_bonus" msgpack:"landing_bonus"`
}

// SpeedMultiplier множитель ускорения и предельной скорости
func (m Modifiers) SpeedMultiplier() float64 {
	return 1 + 0.1*float64(m.SpeedBonus)
}

// SizeMultiplier множитель радиуса корабля
func (m Modifiers) SizeMultiplier() float64 {
	return 1 + 0.1*float64(m.SizeBonus)
}

// LandingMultiplier множитель скорости анимации посадки
func (m Modifiers) LandingMultiplier() float64 {
	return 1 + 0.1*float64(m.LandingBonus)
}

// Input состояние управления за кадр
type Input struct {
	Left   bool
	Right  bool
	Thrust bool
	Boost  bool
	Brake  bool
	Fire   bool
}

// Params параметры движения корабля
type Params struct {
	Acceleration    float64
	MaxSpeed        float64
	BoostMaxSpeed   float64
	BoostMultiplier float64
	RotationSpeed   float64
	Friction        float64
	Brake           float64
	Radius          float64
	Restitution     float64
	WrapMargin      float64
	Nudge           float64
}

// DefaultParams возвращает параметры по умолчанию
func DefaultParams() Params {
	return Params{
		Acceleration:    ShipAcceleration,
		MaxSpeed:        ShipMaxSpeed,
		BoostMaxSpeed:   ShipBoostMaxSpeed,
		BoostMultiplier: ShipBoostAccel,
		RotationSpeed:   ShipRotationSpeed,
		Friction:        ShipFriction,
		Brake:           ShipBrake,
		Radius:          ShipRadius,
		Restitution:     Restitution,
		WrapMargin:      50,
		Nudge:           CollisionNudge,
	}
}

// Ship локальный корабль. Изменяется только физикой и активной эксклюзивной анимацией.
type Ship struct {
	Pos       vec.Vec2  `json:"pos" msgpack:"pos"`
	Vel       vec.Vec2  `json:"vel" msgpack:"vel"`
	Rotation  float64   `json:"rotation" msgpack:"rotation"`
	Thrusting bool      `json:"thrusting" msgpack:"thrusting"`
	Boosting  bool      `json:"boosting" msgpack:"boosting"`
	Mods      Modifiers `json:"mods" msgpack:"mods"`

	knockback         float64 // оставшиеся тики окна отбрасывания
	fullSpeedCooldown float64 // оставшиеся тики до следующего события удара на полной скорости
}

// NewShip создаёт корабль в точке pos
func NewShip(pos vec.Vec2, mods Modifiers) *Ship {
	return &Ship{Pos: pos, Mods: mods}
}

// Speed модуль скорости
func (s *Ship) Speed() float64 {
	return s.Vel.Length()
}

// Radius радиус корабля с учётом бонуса размера
func (s *Ship) Radius(p Params) float64 {
	return p.Radius * s.Mods.SizeMultiplier()
}

// InKnockback проверяет, действует ли окно отбрасывания
func (s *Ship) InKnockback() bool {
	return s.knockback > 0
}

// ApplyKnockback добавляет импульс и на ticks тиков снимает ограничение скорости
func (s *Ship) ApplyKnockback(impulse vec.Vec2, ticks float64) {
	s.Vel = s.Vel.Add(impulse)
	if ticks > s.knockback {
		s.knockback = ticks
	}
}

// Teleport переносит корабль и гасит скорость (респаун, завершение анимаций)
func (s *Ship) Teleport(pos vec.Vec2) {
	s.Pos = pos
	s.Vel = vec.Vec2{}
	s.Thrusting = false
	s.Boosting = false
	s.knockback = 0
}
