package game

import (
	"fmt"
	"time"

	"github.com/annel0/taskverse/internal/animation"
	"github.com/annel0/taskverse/internal/audio"
	"github.com/annel0/taskverse/internal/combat"
	"github.com/annel0/taskverse/internal/eventbus"
	"github.com/annel0/taskverse/internal/vec"
	"github.com/annel0/taskverse/internal/world"
)

// Действия локального игрока. Вызываются из горутины игрового цикла между тиками.

// SelectWeapon выбирает активное оружие
func (s *Simulation) SelectWeapon(kind combat.WeaponKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.arsenal.Pool(kind); !ok || kind == combat.WeaponBossBullet {
		return fmt.Errorf("weapon %s is not equipped", kind)
	}
	s.weapon = kind
	return nil
}

func (s *Simulation) planet(id string) (world.Planet, error) {
	p, ok := s.registry.Get(id)
	if !ok {
		return world.Planet{}, fmt.Errorf("planet %s: %w", id, ErrNotFound)
	}
	return p, nil
}

// StartLanding начинает посадку на планету
func (s *Simulation) StartLanding(planetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.planet(planetID)
	if err != nil {
		return err
	}
	return s.director.StartLanding(s.ship, p, s.ship.Radius(s.cfg.Physics))
}

// StartClaim начинает захват планеты; цель перемещения придёт позже через ResolveClaim
func (s *Simulation) StartClaim(planetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.planet(planetID)
	if err != nil {
		return err
	}
	return s.director.StartClaim(s.ship, p, nil)
}

// ResolveClaim передаёт точку, куда перенести захваченную планету
func (s *Simulation) ResolveClaim(target vec.Vec2) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.director.ResolveTarget(animation.KindClaim, "", target)
}

// WarpHome переносит корабль в домашнюю зону
func (s *Simulation) WarpHome() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	home, ok := s.zones.HomeOf(s.cfg.PlayerID)
	if !ok {
		return ErrNoHome
	}
	return s.director.StartWarp(s.ship, home.Center)
}

// EnterPortal проводит корабль через портал к exit
func (s *Simulation) EnterPortal(exit vec.Vec2) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.director.StartPortal(s.ship, s.space.WrapIntoBounds(exit))
}

// LaunchNuke запускает ядерную ракету в target
func (s *Simulation) LaunchNuke(target vec.Vec2) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	target = s.space.UnwrapRelativeTo(s.ship.Pos, target)
	if err := s.director.StartNuke(s.ship, target); err != nil {
		return err
	}
	s.nukeTarget = s.space.WrapIntoBounds(target)
	s.audio.Play(audio.SoundNuke)
	return nil
}

// StartSend начинает толкание планеты от корабля. Цель придёт через ResolveSend.
func (s *Simulation) StartSend(planetID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.planet(planetID)
	if err != nil {
		return err
	}
	if err := s.director.StartSend(planetID, p, s.ship.Pos, nil, false, now); err != nil {
		return err
	}
	s.emit(eventbus.SendStart{PlanetID: planetID, X: s.ship.Pos.X, Y: s.ship.Pos.Y})
	return nil
}

// ResolveSend передаёт цель толкания
func (s *Simulation) ResolveSend(planetID string, target vec.Vec2) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.director.ResolveTarget(animation.KindSend, planetID, target); err != nil {
		return err
	}
	s.emit(eventbus.SendTarget{PlanetID: planetID, X: target.X, Y: target.Y})
	return nil
}

// CancelAnimation сбрасывает анимацию (например, бэкенд вернул ошибку)
func (s *Simulation) CancelAnimation(kind animation.Kind, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.director.Cancel(kind, key)
}

// Emote показывает эмоцию над своим кораблём и рассылает её
func (s *Simulation) Emote(name string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[s.cfg.PlayerID] = Marker{Kind: eventbus.TypeEmote, Name: name, Level: 1, Expires: now.Add(MarkerLifetime)}
	s.audio.Play(audio.SoundEmote)
	s.emit(eventbus.Emote{Name: name})
}

// Horn гудок корабля
func (s *Simulation) Horn(variant int, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[s.cfg.PlayerID] = Marker{Kind: eventbus.TypeHorn, Level: 1, Expires: now.Add(MarkerLifetime)}
	s.audio.Play(audio.SoundHorn)
	s.emit(eventbus.Horn{Variant: variant})
}

// applyEvents применяет накопленные события удалённых игроков
func (s *Simulation) applyEvents(now time.Time) {
	for _, env := range s.inbound.Drain() {
		s.applyEvent(env, now)
	}
}

func (s *Simulation) applyEvent(env *eventbus.Envelope, now time.Time) {
	ev, err := eventbus.DecodeEnvelope(env)
	if err != nil {
		s.logger.Debug("Событие от %s отброшено: %v", env.Source, err)
		return
	}
	eventsApplied.WithLabelValues(env.EventType).Inc()

	switch e := ev.(type) {
	case eventbus.WeaponFire:
		kind, err := combat.ParseWeaponKind(e.Weapon)
		if err != nil {
			s.logger.Debug("Выстрел %s: %v", env.Source, err)
			return
		}
		pos := vec.New(e.X, e.Y)
		if _, err := s.arsenal.SpawnEcho(kind, env.Source, pos, vec.New(e.VX, e.VY), e.TargetID); err != nil {
			s.logger.Debug("Эхо выстрела %s: %v", env.Source, err)
			return
		}
		if audio.ProximityLevel(s.space.Distance(s.ship.Pos, pos), HearingRadius) > 0 {
			s.audio.Play(weaponSound(kind))
		}

	case eventbus.EntityDestroy:
		p, ok := s.registry.Get(e.EntityID)
		if !ok {
			return
		}
		if err := s.director.StartDestroy(p, e.Variant); err == nil {
			s.audio.Play(audio.SoundExplosion)
		}

	case eventbus.SendStart:
		p, ok := s.registry.Get(e.PlanetID)
		if !ok {
			return
		}
		pusher := vec.New(e.X, e.Y)
		if rs, ok := s.remotes.RenderState(env.Source); ok {
			pusher = rs.Pos
		}
		if err := s.director.StartSend(env.Source, p, pusher, nil, true, now); err != nil {
			s.logger.Debug("Толкание %s от %s: %v", e.PlanetID, env.Source, err)
		}

	case eventbus.SendTarget:
		if err := s.director.ResolveTarget(animation.KindSend, env.Source, vec.New(e.X, e.Y)); err != nil {
			s.logger.Debug("Цель толкания от %s: %v", env.Source, err)
		}

	case eventbus.Emote:
		s.remoteMarker(env.Source, eventbus.TypeEmote, e.Name, audio.SoundEmote, now)

	case eventbus.Horn:
		s.remoteMarker(env.Source, eventbus.TypeHorn, "", audio.SoundHorn, now)
	}
}

// remoteMarker ставит значок над удалённым игроком; звук слышен только поблизости
func (s *Simulation) remoteMarker(playerID, kind, name string, snd audio.Sound, now time.Time) {
	level := 0.0
	if rs, ok := s.remotes.RenderState(playerID); ok {
		level = audio.ProximityLevel(s.space.Distance(s.ship.Pos, rs.Pos), HearingRadius)
	}
	s.markers[playerID] = Marker{Kind: kind, Name: name, Level: level, Expires: now.Add(MarkerLifetime)}
	if level > 0 {
		s.audio.Play(snd)
	}
}
