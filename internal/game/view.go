package game

import (
	"github.com/annel0/taskverse/internal/combat"
)

// Frame собирает снимок состояния после последнего тика
func (s *Simulation) Frame() Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f := Frame{
		Tick:     s.tick,
		Time:     s.lastNow,
		Dt:       s.lastDt,
		PlayerID: s.cfg.PlayerID,
		Ship: ShipView{
			Pos:       s.ship.Pos,
			Vel:       s.ship.Vel,
			Rotation:  s.ship.Rotation,
			Thrusting: s.ship.Thrusting,
			Boosting:  s.ship.Boosting,
			Radius:    s.ship.Radius(s.cfg.Physics),
			Mods:      s.ship.Mods,
			Health:    s.vitals.Health,
			MaxHealth: s.vitals.MaxHealth,
			Weapon:    s.weapon.String(),
		},
		Camera: CameraView{Pos: s.camera.Pos, Tint: s.camera.Tint, ZoneID: s.camera.ZoneID},
	}

	if a := s.director.Exclusive(); a != nil {
		f.Animation = &AnimationView{
			Kind:     a.Kind().String(),
			Phase:    string(a.Phase()),
			Progress: a.Progress(),
			Pose:     a.PoseAt(a.Progress()),
		}
	}
	for _, sd := range s.director.Sends() {
		f.Entities = append(f.Entities, EntityAnimView{
			Kind:     sd.Kind().String(),
			Key:      sd.Key,
			EntityID: sd.PlanetID,
			Phase:    string(sd.Phase()),
			Progress: sd.Progress(),
			Pose:     sd.Pose(),
		})
	}
	for _, ds := range s.director.Destroys() {
		f.Entities = append(f.Entities, EntityAnimView{
			Kind:     ds.Kind().String(),
			Key:      ds.EntityID,
			EntityID: ds.EntityID,
			Phase:    string(ds.Phase()),
			Progress: ds.Progress(),
			Pose:     ds.Pose(),
		})
	}

	ids := s.remotes.IDs()
	f.Remotes = make([]RemoteView, 0, len(ids))
	for _, id := range ids {
		rs, ok := s.remotes.RenderState(id)
		if !ok {
			continue
		}
		rv := RemoteView{
			PlayerID:   id,
			Pos:        rs.Pos,
			Vel:        rs.Vel,
			Rotation:   rs.Rotation,
			Thrusting:  rs.Thrusting,
			Boosting:   rs.Boosting,
			LastUpdate: rs.LastUpdate,
			Snapshots:  len(s.remotes.Snapshots(id)),
		}
		if m, ok := s.markers[id]; ok {
			m := m
			rv.Marker = &m
		}
		f.Remotes = append(f.Remotes, rv)
	}

	planets := s.registry.All()
	f.Planets = make([]PlanetView, 0, len(planets))
	for _, p := range planets {
		f.Planets = append(f.Planets, PlanetView{
			Planet:    p,
			Scale:     s.scale(p.ID),
			Protected: s.registry.IsProtected(p.ID),
		})
	}

	f.Shots = s.arsenal.Projectiles()
	if s.boss != nil {
		f.Shots = append(f.Shots, s.boss.Projectiles()...)
		f.Boss = &BossView{
			ID:        s.boss.ID,
			State:     s.boss.State().String(),
			Pos:       s.boss.Pos,
			Health:    s.boss.Health,
			MaxHealth: s.boss.Config().MaxHealth,
			Enraged:   s.boss.Enraged(),
		}
	}
	if f.Shots == nil {
		f.Shots = []combat.Projectile{}
	}

	f.NPCs = make([]NPCView, 0, len(s.npcs))
	for _, n := range s.npcs {
		f.NPCs = append(f.NPCs, NPCView{
			ID:      n.ID,
			Kind:    string(n.Kind),
			Pos:     n.Pos,
			Heading: n.Heading,
			Opacity: n.Opacity,
		})
	}
	return f
}

// Marker значок над игроком, если он есть
func (s *Simulation) Marker(playerID string) (Marker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.markers[playerID]
	return m, ok
}
