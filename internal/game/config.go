package game

import (
	"time"

	"github.com/annel0/taskverse/internal/animation"
	"github.com/annel0/taskverse/internal/combat"
	"github.com/annel0/taskverse/internal/config"
	"github.com/annel0/taskverse/internal/network"
	"github.com/annel0/taskverse/internal/physics"
	"github.com/annel0/taskverse/internal/world"
)

const (
	// ObstacleRadius радиус выборки препятствий вокруг корабля
	ObstacleRadius = 600.0
	// TargetRadius радиус выборки целей для снарядов
	TargetRadius = 1500.0
	// HearingRadius дальность, на которой слышны чужие гудки и эмоции
	HearingRadius = 1200.0
	// MarkerLifetime время жизни значка эмоции или гудка над кораблём
	MarkerLifetime = 2 * time.Second
	// CameraSmoothing доля сближения камеры с целью за тик 60 Гц
	CameraSmoothing = 0.12
	// FieldRadius полуразмер астероидного поля, генерируемого вокруг старта
	FieldRadius = 1200.0
	// PlayerMaxHealth здоровье корабля в бою с боссом
	PlayerMaxHealth = 100.0
)

// Config параметры симуляции одного клиента
type Config struct {
	PlayerID string
	Space    world.Space
	Seed     int64

	TargetFrameMs float64
	DtCap         float64

	Physics physics.Params
	Mods    physics.Modifiers

	Remote    network.RemotePlayersConfig
	Animation animation.Config
	Weapons   map[combat.WeaponKind]combat.WeaponSpec
	Boss      combat.BossConfig

	PlayerMaxHealth  float64
	PlayerStaleAfter time.Duration
	FieldRadius      float64
}

// DefaultConfig возвращает параметры по умолчанию для игрока playerID
func DefaultConfig(playerID string) Config {
	return FromConfig(config.Default(), playerID)
}

// FromConfig переносит значения файла конфигурации в параметры симуляции
func FromConfig(cfg *config.Config, playerID string) Config {
	if playerID == "" {
		playerID = cfg.Network.PlayerID
	}

	params := physics.DefaultParams()
	if cfg.Physics.WrapMargin > 0 {
		params.WrapMargin = cfg.Physics.WrapMargin
	}
	if cfg.Physics.Restitution > 0 && cfg.Physics.Restitution < 1 {
		params.Restitution = cfg.Physics.Restitution
	}
	if cfg.Physics.ShipMaxSpeed > 0 {
		params.MaxSpeed = cfg.Physics.ShipMaxSpeed
	}
	if cfg.Physics.ShipBoostSpeed > 0 {
		params.BoostMaxSpeed = cfg.Physics.ShipBoostSpeed
	}

	interp := network.InterpolatorConfig{
		PredictionCap: time.Duration(cfg.Interpolation.PredictionCapMs * float64(time.Millisecond)),
		LerpRate:      cfg.Interpolation.LerpRate,
		Mode:          network.ModeDeadReckoning,
		ExactDelay:    time.Duration(cfg.Interpolation.ExactDelayMs * float64(time.Millisecond)),
	}
	if cfg.Interpolation.ExactMode {
		interp.Mode = network.ModeExact
	}

	return Config{
		PlayerID:      playerID,
		Space:         world.NewSpace(cfg.World.Size),
		Seed:          cfg.World.Seed,
		TargetFrameMs: cfg.Physics.TargetFrameMs,
		DtCap:         cfg.Physics.DtCap,
		Physics:       params,
		Mods: physics.Modifiers{
			SpeedBonus:   cfg.Physics.SpeedBonus,
			SizeBonus:    cfg.Physics.SizeBonus,
			LandingBonus: cfg.Physics.LandingBonus,
		},
		Remote: network.RemotePlayersConfig{
			Capacity:      cfg.Interpolation.SnapshotCapacity,
			InboxCapacity: cfg.Network.InboxCapacity,
			Interpolation: interp,
		},
		Animation: animation.Config{
			RemoteSendTimeout: cfg.Network.RemoteSendTimeout,
			LocalHoldTimeout:  cfg.Network.LocalHoldTimeout,
		},
		Weapons:          combat.DefaultSpecs(),
		Boss:             combat.DefaultBossConfig(),
		PlayerMaxHealth:  PlayerMaxHealth,
		PlayerStaleAfter: cfg.Network.PlayerStaleAfter,
		FieldRadius:      FieldRadius,
	}
}
