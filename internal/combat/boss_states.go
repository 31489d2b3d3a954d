package combat

// bossState состояние автомата: enter при входе, update возвращает
// следующее состояние (или себя), exit при выходе
type bossState interface {
	id() BossState
	enter(b *Boss)
	update(b *Boss, dt float64, arena Arena) bossState
	exit(b *Boss)
}

// inactiveState ожидание Start
type inactiveState struct{}

func (s *inactiveState) id() BossState { return BossInactive }

func (s *inactiveState) enter(b *Boss) {
	b.Health = b.cfg.MaxHealth
	b.Pos = b.Home
	b.lastPattern = PatternNone
	b.contactCooldown = 0
}

func (s *inactiveState) update(*Boss, float64, Arena) bossState { return s }

func (s *inactiveState) exit(*Boss) {}

// timedState общий таймер для состояний с фиксированной длительностью
type timedState struct {
	left float64
}

func (s *timedState) tick(dt float64) bool {
	s.left -= dt
	return s.left <= 0
}

// introState появление босса, урон не проходит
type introState struct {
	timedState
}

func newIntroState(ticks float64) *introState {
	return &introState{timedState{left: ticks}}
}

func (s *introState) id() BossState { return BossIntro }

func (s *introState) enter(*Boss) {}

func (s *introState) update(b *Boss, dt float64, _ Arena) bossState {
	if s.tick(dt) {
		return &activeState{cooldown: b.cfg.PatternCooldown / 2}
	}
	return s
}

func (s *introState) exit(*Boss) {}

// activeState цикл паттернов атаки
type activeState struct {
	pattern  Pattern
	phase    float64
	cooldown float64
}

func (s *activeState) id() BossState { return BossActive }

func (s *activeState) enter(*Boss) {}

func (s *activeState) update(b *Boss, dt float64, arena Arena) bossState {
	if b.Health <= 1 {
		return newSurrenderedState(b.cfg.SurrenderTicks)
	}
	if arena.Vitals != nil && arena.Vitals.Defeated() {
		return newPlayerDefeatedState(b.cfg.DefeatTicks)
	}

	if arena.Ship != nil {
		b.approach(dt, arena.Ship.Pos)
	}
	b.contact(dt, arena)

	if s.pattern.Kind == PatternNone {
		s.cooldown -= dt
		if s.cooldown > 0 {
			return s
		}
		kind := pickPattern(b.rng, b.lastPattern)
		b.lastPattern = kind
		s.pattern = NewPattern(kind)
		s.phase = 0
		b.logger.Debug("Босс %s: паттерн %s", b.ID, kind)
	}

	aim := b.aimAt(b.Pos)
	if arena.Ship != nil {
		aim = b.aimAt(arena.Ship.Pos)
	}
	b.fire(s.pattern.ShotsBetween(s.phase, s.phase+dt, aim, b.rng), arena.PlayerID)
	s.phase += dt

	if s.pattern.Done(s.phase) {
		s.pattern = Pattern{Kind: PatternNone}
		s.cooldown = b.cfg.PatternCooldown
		if b.Enraged() {
			s.cooldown = b.cfg.EnragedCooldown
		}
	}
	return s
}

func (s *activeState) exit(b *Boss) {
	b.clearProjectiles()
}

// surrenderedState босс сдался и больше не атакует
type surrenderedState struct {
	timedState
}

func newSurrenderedState(ticks float64) *surrenderedState {
	return &surrenderedState{timedState{left: ticks}}
}

func (s *surrenderedState) id() BossState { return BossSurrendered }

func (s *surrenderedState) enter(b *Boss) { b.Health = 1 }

func (s *surrenderedState) update(b *Boss, dt float64, _ Arena) bossState {
	if s.tick(dt) {
		return &lootDropState{timedState{left: b.cfg.LootTicks}}
	}
	return s
}

func (s *surrenderedState) exit(*Boss) {}

// lootDropState выпадение награды
type lootDropState struct {
	timedState
}

func (s *lootDropState) id() BossState { return BossLootDrop }

func (s *lootDropState) enter(*Boss) {}

func (s *lootDropState) update(_ *Boss, dt float64, _ Arena) bossState {
	if s.tick(dt) {
		return &victoryState{}
	}
	return s
}

func (s *lootDropState) exit(*Boss) {}

// victoryState конечное состояние
type victoryState struct{}

func (s *victoryState) id() BossState { return BossVictory }

func (s *victoryState) enter(*Boss) {}

func (s *victoryState) update(*Boss, float64, Arena) bossState { return s }

func (s *victoryState) exit(*Boss) {}

// playerDefeatedState игрок побеждён, пауза перед возрождением
type playerDefeatedState struct {
	timedState
}

func newPlayerDefeatedState(ticks float64) *playerDefeatedState {
	return &playerDefeatedState{timedState{left: ticks}}
}

func (s *playerDefeatedState) id() BossState { return BossPlayerDefeated }

func (s *playerDefeatedState) enter(*Boss) {}

func (s *playerDefeatedState) update(_ *Boss, dt float64, _ Arena) bossState {
	if s.tick(dt) {
		return &respawnState{}
	}
	return s
}

func (s *playerDefeatedState) exit(*Boss) {}

// respawnState возвращает игрока в точку возрождения и сбрасывает бой
type respawnState struct{}

func (s *respawnState) id() BossState { return BossRespawn }

func (s *respawnState) enter(*Boss) {}

func (s *respawnState) update(_ *Boss, _ float64, arena Arena) bossState {
	if arena.Vitals != nil {
		arena.Vitals.Respawn()
	}
	if arena.Ship != nil {
		arena.Ship.Teleport(arena.RespawnPos)
	}
	return &inactiveState{}
}

func (s *respawnState) exit(*Boss) {}
