package combat

import (
	"errors"
	"fmt"
	"time"
)

// ErrCooldown оружие ещё перезаряжается
var ErrCooldown = errors.New("combat: weapon on cooldown")

// WeaponKind тип оружия
type WeaponKind int

const (
	WeaponRifle WeaponKind = iota
	WeaponPlasma
	WeaponRocket
	WeaponNuke
	// WeaponBossBullet снаряды босса, без перезарядки
	WeaponBossBullet
)

func (w WeaponKind) String() string {
	switch w {
	case WeaponRifle:
		return "rifle"
	case WeaponPlasma:
		return "plasma"
	case WeaponRocket:
		return "rocket"
	case WeaponNuke:
		return "nuke"
	case WeaponBossBullet:
		return "boss_bullet"
	default:
		return "unknown"
	}
}

// ParseWeaponKind разбирает тип оружия из сетевого события
func ParseWeaponKind(s string) (WeaponKind, error) {
	switch s {
	case "rifle":
		return WeaponRifle, nil
	case "plasma":
		return WeaponPlasma, nil
	case "rocket":
		return WeaponRocket, nil
	case "nuke":
		return WeaponNuke, nil
	case "boss_bullet":
		return WeaponBossBullet, nil
	}
	return 0, fmt.Errorf("unknown weapon %q", s)
}

// WeaponSpec параметры оружия. Скорости в px/тик, время жизни в тиках.
type WeaponSpec struct {
	Kind     WeaponKind
	Speed    float64
	Cooldown time.Duration
	Life     float64
	Damage   float64
	Radius   float64
	// MaxTurn > 0 включает самонаведение, рад/тик
	MaxTurn float64
	// ReflectDamping доля скорости после отражения от щита
	ReflectDamping float64
	// MaxAlive ограничение числа живых снарядов в пуле
	MaxAlive int
}

// Homing снаряд самонаводится
func (s WeaponSpec) Homing() bool { return s.MaxTurn > 0 }

// DefaultSpecs параметры оружия по умолчанию
func DefaultSpecs() map[WeaponKind]WeaponSpec {
	return map[WeaponKind]WeaponSpec{
		WeaponRifle: {
			Kind: WeaponRifle, Speed: 14, Cooldown: 150 * time.Millisecond, Life: 60,
			Damage: 5, Radius: 3, ReflectDamping: 0.6, MaxAlive: 128,
		},
		WeaponPlasma: {
			Kind: WeaponPlasma, Speed: 9, Cooldown: 400 * time.Millisecond, Life: 90,
			Damage: 12, Radius: 8, ReflectDamping: 0.5, MaxAlive: 64,
		},
		WeaponRocket: {
			Kind: WeaponRocket, Speed: 7, Cooldown: 1200 * time.Millisecond, Life: 240,
			Damage: 25, Radius: 6, MaxTurn: 0.06, ReflectDamping: 0.4, MaxAlive: 16,
		},
		WeaponNuke: {
			Kind: WeaponNuke, Speed: 5, Cooldown: 10 * time.Second, Life: 600,
			Damage: 200, Radius: 12, MaxTurn: 0.03, ReflectDamping: 0.3, MaxAlive: 2,
		},
		WeaponBossBullet: {
			Kind: WeaponBossBullet, Speed: 6, Life: 180,
			Damage: 6, Radius: 7, MaxTurn: 0, ReflectDamping: 0.5, MaxAlive: 512,
		},
	}
}
