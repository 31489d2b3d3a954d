package combat

import (
	"fmt"
	"time"

	"github.com/annel0/taskverse/internal/vec"
	"github.com/annel0/taskverse/internal/world"
)

// Arsenal набор пулов всех видов оружия корабля
type Arsenal struct {
	pools map[WeaponKind]*Pool
	order []WeaponKind
}

// NewArsenal создаёт пулы для всех оружий из specs
func NewArsenal(space world.Space, specs map[WeaponKind]WeaponSpec) *Arsenal {
	a := &Arsenal{pools: make(map[WeaponKind]*Pool, len(specs))}
	for _, k := range []WeaponKind{WeaponRifle, WeaponPlasma, WeaponRocket, WeaponNuke, WeaponBossBullet} {
		spec, ok := specs[k]
		if !ok {
			continue
		}
		a.pools[k] = NewPool(spec, space)
		a.order = append(a.order, k)
	}
	return a
}

// Pool пул оружия kind
func (a *Arsenal) Pool(kind WeaponKind) (*Pool, bool) {
	p, ok := a.pools[kind]
	return p, ok
}

// Fire стреляет из оружия kind
func (a *Arsenal) Fire(kind WeaponKind, now time.Time, ownerID string, pos vec.Vec2, rotation float64, inherit vec.Vec2, targetID string) (*Projectile, error) {
	p, ok := a.pools[kind]
	if !ok {
		return nil, fmt.Errorf("weapon %s not equipped", kind)
	}
	return p.Fire(now, ownerID, pos, rotation, inherit, targetID)
}

// SpawnEcho воспроизводит чужой выстрел
func (a *Arsenal) SpawnEcho(kind WeaponKind, ownerID string, pos, vel vec.Vec2, targetID string) (*Projectile, error) {
	p, ok := a.pools[kind]
	if !ok {
		return nil, fmt.Errorf("weapon %s not equipped", kind)
	}
	return p.SpawnEcho(ownerID, pos, vel, targetID), nil
}

// Update обновляет все пулы
func (a *Arsenal) Update(dt float64, targets []Target) []Hit {
	var hits []Hit
	for _, k := range a.order {
		hits = append(hits, a.pools[k].Update(dt, targets)...)
	}
	return hits
}

// Projectiles все снаряды арсенала, включая echo
func (a *Arsenal) Projectiles() []Projectile {
	var out []Projectile
	for _, k := range a.order {
		p := a.pools[k]
		out = append(out, p.Projectiles()...)
		out = append(out, p.Echoes()...)
	}
	return out
}
