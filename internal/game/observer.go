package game

import (
	"github.com/annel0/taskverse/internal/animation"
	"github.com/annel0/taskverse/internal/combat"
	"github.com/annel0/taskverse/internal/physics"
	"github.com/annel0/taskverse/internal/vec"
)

// RespawnReason причина перемещения корабля
type RespawnReason string

const (
	RespawnBlackHole RespawnReason = "black_hole"
	RespawnDefeat    RespawnReason = "defeat"
	RespawnResume    RespawnReason = "resume"
)

// CollisionObserver получает столкновения корабля
type CollisionObserver interface {
	ShipCollided(c physics.Contact, fullSpeed bool)
}

// HitObserver получает попадания снарядов игрока и босса
type HitObserver interface {
	ProjectileHit(h combat.Hit)
}

// RespawnObserver получает перемещения корабля после смерти или восстановления сессии
type RespawnObserver interface {
	ShipRespawned(reason RespawnReason, pos vec.Vec2)
}

// observers наборы подписчиков по видам уведомлений
type observers struct {
	collisions []CollisionObserver
	hits       []HitObserver
	respawns   []RespawnObserver
	animations []animation.Observer
	boss       []combat.BossObserver
}

// AddObserver подписывает o на все уведомления, интерфейсы которых он реализует.
// Возвращает false, если o не реализует ни одного.
func (s *Simulation) AddObserver(o interface{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := false
	if c, ok := o.(CollisionObserver); ok {
		s.obs.collisions = append(s.obs.collisions, c)
		added = true
	}
	if h, ok := o.(HitObserver); ok {
		s.obs.hits = append(s.obs.hits, h)
		added = true
	}
	if r, ok := o.(RespawnObserver); ok {
		s.obs.respawns = append(s.obs.respawns, r)
		added = true
	}
	if a, ok := o.(animation.Observer); ok {
		s.obs.animations = append(s.obs.animations, a)
		added = true
	}
	if b, ok := o.(combat.BossObserver); ok {
		s.obs.boss = append(s.obs.boss, b)
		added = true
	}
	return added
}

func (o *observers) collided(c physics.Contact, fullSpeed bool) {
	for _, x := range o.collisions {
		x.ShipCollided(c, fullSpeed)
	}
}

func (o *observers) hit(h combat.Hit) {
	for _, x := range o.hits {
		x.ProjectileHit(h)
	}
}

func (o *observers) respawned(reason RespawnReason, pos vec.Vec2) {
	for _, x := range o.respawns {
		x.ShipRespawned(reason, pos)
	}
}
