package game

import (
	"time"

	"github.com/annel0/taskverse/internal/animation"
	"github.com/annel0/taskverse/internal/combat"
	"github.com/annel0/taskverse/internal/physics"
	"github.com/annel0/taskverse/internal/vec"
	"github.com/annel0/taskverse/internal/world"
)

// Frame снимок состояния для отрисовки и отладочного API.
// Отрисовка - чистая функция Frame.
type Frame struct {
	Tick     uint64    `json:"tick"`
	Time     time.Time `json:"time"`
	Dt       float64   `json:"dt"`
	PlayerID string    `json:"player_id"`

	Ship      ShipView            `json:"ship"`
	Animation *AnimationView      `json:"animation,omitempty"`
	Camera    CameraView          `json:"camera"`
	Remotes   []RemoteView        `json:"remotes"`
	Planets   []PlanetView        `json:"planets"`
	Entities  []EntityAnimView    `json:"entity_animations,omitempty"`
	Shots     []combat.Projectile `json:"projectiles"`
	Boss      *BossView           `json:"boss,omitempty"`
	NPCs      []NPCView           `json:"npcs"`
}

// ShipView локальный корабль
type ShipView struct {
	Pos       vec.Vec2          `json:"pos"`
	Vel       vec.Vec2          `json:"vel"`
	Rotation  float64           `json:"rotation"`
	Thrusting bool              `json:"thrusting"`
	Boosting  bool              `json:"boosting"`
	Radius    float64           `json:"radius"`
	Mods      physics.Modifiers `json:"mods"`
	Health    float64           `json:"health"`
	MaxHealth float64           `json:"max_health"`
	Weapon    string            `json:"weapon"`
}

// AnimationView активная эксклюзивная анимация корабля
type AnimationView struct {
	Kind     string         `json:"kind"`
	Phase    string         `json:"phase"`
	Progress float64        `json:"progress"`
	Pose     animation.Pose `json:"pose"`
}

// EntityAnimView толкание или разрушение сущности
type EntityAnimView struct {
	Kind     string         `json:"kind"`
	Key      string         `json:"key"`
	EntityID string         `json:"entity_id"`
	Phase    string         `json:"phase"`
	Progress float64        `json:"progress"`
	Pose     animation.Pose `json:"pose"`
}

// CameraView положение камеры и подкраска зоны
type CameraView struct {
	Pos    vec.Vec2 `json:"pos"`
	Tint   string   `json:"tint,omitempty"`
	ZoneID string   `json:"zone_id,omitempty"`
}

// RemoteView удалённый игрок глазами отрисовки
type RemoteView struct {
	PlayerID   string    `json:"player_id"`
	Pos        vec.Vec2  `json:"pos"`
	Vel        vec.Vec2  `json:"vel"`
	Rotation   float64   `json:"rotation"`
	Thrusting  bool      `json:"thrusting"`
	Boosting   bool      `json:"boosting"`
	LastUpdate time.Time `json:"last_update"`
	Snapshots  int       `json:"snapshots"`
	Marker     *Marker   `json:"marker,omitempty"`
}

// PlanetView объект мира с масштабом из кеша размеров
type PlanetView struct {
	world.Planet
	Scale     float64 `json:"scale"`
	Protected bool    `json:"protected,omitempty"`
}

// BossView состояние боя
type BossView struct {
	ID        string   `json:"id"`
	State     string   `json:"state"`
	Pos       vec.Vec2 `json:"pos"`
	Health    float64  `json:"health"`
	MaxHealth float64  `json:"max_health"`
	Enraged   bool     `json:"enraged"`
}

// NPCView параметрический NPC
type NPCView struct {
	ID      string   `json:"id"`
	Kind    string   `json:"kind"`
	Pos     vec.Vec2 `json:"pos"`
	Heading float64  `json:"heading"`
	Opacity float64  `json:"opacity"`
}

// Marker короткоживущий значок эмоции или гудка над кораблём
type Marker struct {
	Kind    string    `json:"kind"`
	Name    string    `json:"name,omitempty"`
	Level   float64   `json:"level"`
	Expires time.Time `json:"expires"`
}
