package game

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/annel0/taskverse/internal/animation"
	"github.com/annel0/taskverse/internal/audio"
	"github.com/annel0/taskverse/internal/cache"
	"github.com/annel0/taskverse/internal/clock"
	"github.com/annel0/taskverse/internal/combat"
	"github.com/annel0/taskverse/internal/eventbus"
	"github.com/annel0/taskverse/internal/logging"
	"github.com/annel0/taskverse/internal/network"
	"github.com/annel0/taskverse/internal/physics"
	"github.com/annel0/taskverse/internal/storage"
	"github.com/annel0/taskverse/internal/vec"
	"github.com/annel0/taskverse/internal/world"
	"github.com/annel0/taskverse/internal/world/entity"
)

var (
	// ErrNotFound объект не найден в реестре
	ErrNotFound = errors.New("game: object not found")
	// ErrNoHome у игрока нет домашней зоны
	ErrNoHome = errors.New("game: player has no home zone")
	// ErrNotStarted Start ещё не вызывался
	ErrNotStarted = errors.New("game: simulation not started")
)

// SpawnOffset расстояние точки возрождения от центра домашней зоны
const SpawnOffset = 250.0

// Deps внешние сервисы симуляции. Пустые поля заменяются реализациями в памяти.
// Владелец закрывает хранилища сам, симуляция только пользуется ими.
type Deps struct {
	Time    clock.TimeProvider
	Audio   audio.Sink
	Sizes   cache.SizeCache
	Planets storage.PlanetStore
	Ships   storage.ShipStateRepo
	Logger  *logging.Logger
}

// Simulation клиентская симуляция: локальный корабль, удалённые игроки,
// анимации, бой и NPC. Tick вызывается одной горутиной игрового цикла;
// сетевые обработчики пишут только во входящие очереди.
type Simulation struct {
	mu sync.RWMutex

	cfg    Config
	space  world.Space
	time   clock.TimeProvider
	clock  *clock.FrameClock
	logger *logging.Logger

	registry *world.Registry
	zones    world.Zones
	director *animation.Director
	engine   *physics.Engine
	ship     *physics.Ship
	remotes  *network.RemotePlayers
	arsenal  *combat.Arsenal
	weapon   combat.WeaponKind
	vitals   *combat.PlayerVitals
	boss     *combat.Boss
	npcs     []*entity.ParametricNPC
	camera   *Camera

	markers    map[string]Marker
	scales     map[string]float64
	loops      map[audio.Loop]bool
	nukeTarget vec.Vec2

	inbound  *network.Inbox[*eventbus.Envelope]
	leaves   *network.Inbox[string]
	outbound *network.Inbox[eventbus.GameEvent]

	audio   audio.Sink
	sizes   cache.SizeCache
	planets storage.PlanetStore
	ships   storage.ShipStateRepo

	obs observers

	tick    uint64
	lastDt  float64
	lastNow time.Time
	started bool
}

// New создаёт симуляцию. Мир пуст до Start.
func New(cfg Config, deps Deps) *Simulation {
	if deps.Time == nil {
		deps.Time = clock.SystemTime{}
	}
	if deps.Audio == nil {
		deps.Audio = audio.NopSink{}
	}
	if deps.Sizes == nil {
		deps.Sizes = cache.NewMemorySizeCache(cfg.PlayerID)
	}
	if deps.Planets == nil {
		deps.Planets = storage.NewMemoryPlanetStore()
	}
	if deps.Ships == nil {
		deps.Ships = storage.NewMemoryShipStateRepo()
	}
	if cfg.Space.Size <= 0 {
		cfg.Space = world.NewSpace(0)
	}
	if cfg.Weapons == nil {
		cfg.Weapons = combat.DefaultSpecs()
	}
	if cfg.PlayerMaxHealth <= 0 {
		cfg.PlayerMaxHealth = PlayerMaxHealth
	}

	space := cfg.Space
	registry := world.NewRegistry(space)

	s := &Simulation{
		cfg:      cfg,
		space:    space,
		time:     deps.Time,
		clock:    clock.NewFrameClock(cfg.TargetFrameMs, cfg.DtCap),
		logger:   deps.Logger,
		registry: registry,
		director: animation.NewDirector(registry, cfg.Animation, deps.Logger),
		engine:   physics.NewEngine(cfg.Physics, space),
		ship:     physics.NewShip(vec.New(space.Size/2, space.Size/2), cfg.Mods),
		remotes:  network.NewRemotePlayers(space, cfg.Remote, deps.Time, deps.Logger),
		arsenal:  combat.NewArsenal(space, cfg.Weapons),
		weapon:   combat.WeaponRifle,
		vitals:   combat.NewPlayerVitals(cfg.PlayerMaxHealth),
		camera:   NewCamera(space, CameraSmoothing),
		markers:  make(map[string]Marker),
		scales:   make(map[string]float64),
		loops:    make(map[audio.Loop]bool),
		inbound:  network.NewInbox[*eventbus.Envelope](cfg.Remote.InboxCapacity),
		leaves:   network.NewInbox[string](64),
		outbound: network.NewInbox[eventbus.GameEvent](256),
		audio:    deps.Audio,
		sizes:    deps.Sizes,
		planets:  deps.Planets,
		ships:    deps.Ships,
	}
	s.director.AddObserver(animation.ObserverFunc(s.onAnimationFinished))
	return s
}

// PlayerID идентификатор локального игрока
func (s *Simulation) PlayerID() string { return s.cfg.PlayerID }

// Space пространство мира
func (s *Simulation) Space() world.Space { return s.space }

// Registry реестр объектов мира
func (s *Simulation) Registry() *world.Registry { return s.registry }

// RemotePlayers сервис удалённых игроков
func (s *Simulation) RemotePlayers() *network.RemotePlayers { return s.remotes }

// SetZones задаёт зоны мира
func (s *Simulation) SetZones(zones world.Zones) {
	s.mu.Lock()
	s.zones = append(world.Zones(nil), zones...)
	s.mu.Unlock()
}

// AddNPC добавляет параметрического NPC
func (s *Simulation) AddNPC(id string, kind entity.NPCKind, center vec.Vec2) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.npcs = append(s.npcs, entity.NewParametricNPC(id, kind, center, s.cfg.Seed, s.space))
}

// SpawnBoss создаёт неактивного босса в точке pos
func (s *Simulation) SpawnBoss(id string, pos vec.Vec2) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boss = combat.NewBoss(id, pos, s.cfg.Boss, s.space, s.cfg.Seed, s.logger)
	s.boss.AddObserver(combat.BossObserverFunc(s.onBossState))
}

// StartBossFight начинает бой; false, если босса нет или бой уже идёт
func (s *Simulation) StartBossFight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.boss == nil {
		return false
	}
	return s.boss.Start()
}

// Start инициализирует кеш размеров, загружает планеты и восстанавливает корабль
func (s *Simulation) Start(ctx context.Context) error {
	if err := s.sizes.Init(ctx); err != nil {
		return fmt.Errorf("init size cache: %w", err)
	}

	planets, found, err := s.planets.Load(ctx, s.cfg.PlayerID)
	if err != nil {
		return fmt.Errorf("load planets: %w", err)
	}

	s.mu.Lock()
	spawn := s.spawnPoint()
	if found {
		s.registry.ApplySync(planets)
		s.logger.Info("Загружено %d объектов мира", len(planets))
	} else {
		field := world.NewGenerator(s.cfg.Seed, s.space).GenerateField(spawn, s.cfg.FieldRadius)
		for _, p := range field {
			s.registry.Upsert(p)
		}
		planets = field
		s.logger.Info("Сгенерировано поле астероидов: %d объектов", len(field))
	}
	s.logger.Debug("%s", s.registry.IndexStats())
	s.mu.Unlock()

	s.refreshScales(ctx, planets)

	state, resumed, err := s.ships.Load(ctx, s.cfg.PlayerID)
	if err != nil {
		s.logger.Warn("Не удалось восстановить корабль: %v", err)
		resumed = false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if resumed {
		state.Apply(s.ship)
		s.ship.Pos = s.space.WrapIntoBounds(s.ship.Pos)
		s.obs.respawned(RespawnResume, s.ship.Pos)
		s.logger.Info("Сессия восстановлена: (%.0f, %.0f)", s.ship.Pos.X, s.ship.Pos.Y)
	} else {
		s.ship.Teleport(spawn)
	}
	s.camera.Snap(s.ship.Pos)
	s.started = true
	return nil
}

// Stop сохраняет корабль и планеты и освобождает кеш размеров
func (s *Simulation) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.started = false
	s.director.CancelAll()
	state := storage.ShipStateFrom(s.cfg.PlayerID, s.ship, s.time.Now())
	planets := s.registry.All()
	s.mu.Unlock()

	var errs []error
	if err := s.ships.Save(ctx, s.cfg.PlayerID, state); err != nil {
		errs = append(errs, fmt.Errorf("save ship: %w", err))
	}
	if err := s.planets.Save(ctx, s.cfg.PlayerID, planets); err != nil {
		errs = append(errs, fmt.Errorf("save planets: %w", err))
	}
	if err := s.sizes.Teardown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("teardown size cache: %w", err))
	}
	return errors.Join(errs...)
}

// ApplyPlanetSync применяет список объектов от бэкенда. Объекты под анимацией
// не трогаются, их новые данные применятся после завершения.
func (s *Simulation) ApplyPlanetSync(ctx context.Context, planets []world.Planet) world.MergeResult {
	s.mu.Lock()
	res := s.registry.ApplySync(planets)
	s.mu.Unlock()

	s.refreshScales(ctx, planets)
	return res
}

// refreshScales берёт масштабы планет из кеша, при промахе вычисляет и сохраняет
func (s *Simulation) refreshScales(ctx context.Context, planets []world.Planet) {
	scales := make(map[string]float64, len(planets))
	for _, p := range planets {
		scale, err := s.sizes.Get(ctx, p.ID)
		if err != nil {
			if !cache.IsCacheMiss(err) {
				s.logger.Debug("Кеш размеров недоступен для %s: %v", p.ID, err)
			}
			scale = planetScale(p)
			if err := s.sizes.Set(ctx, p.ID, scale); err != nil {
				s.logger.Debug("Не удалось сохранить размер %s: %v", p.ID, err)
			}
		}
		scales[p.ID] = scale
	}

	s.mu.Lock()
	for id, v := range scales {
		s.scales[id] = v
	}
	s.mu.Unlock()
}

// planetScale масштаб отрисовки: планеты задач растут с приоритетом и после выполнения
func planetScale(p world.Planet) float64 {
	if p.Kind != world.KindTask {
		return 1
	}
	scale := 1 + 0.1*vec.Clamp(float64(p.Priority), 0, 5)
	if p.Completed {
		scale *= 1.2
	}
	return scale
}

func (s *Simulation) scale(id string) float64 {
	if v, ok := s.scales[id]; ok && v > 0 {
		return v
	}
	return 1
}

// HandleRemoteUpdate принимает позицию удалённого игрока. Безопасно из любой горутины.
func (s *Simulation) HandleRemoteUpdate(playerID string, u network.PositionUpdate) {
	if playerID == s.cfg.PlayerID {
		return
	}
	s.remotes.OnRemoteUpdate(playerID, u)
}

// HandleEvent ставит входящее событие в очередь до следующего тика. Безопасно из любой горутины.
func (s *Simulation) HandleEvent(env *eventbus.Envelope) {
	if env == nil || env.Source == s.cfg.PlayerID {
		return
	}
	if !s.inbound.Put(env) {
		s.logger.Warn("Очередь входящих событий переполнена")
	}
}

// HandlePlayerLeft отмечает уход удалённого игрока. Безопасно из любой горутины.
func (s *Simulation) HandlePlayerLeft(playerID string) {
	if playerID == "" || playerID == s.cfg.PlayerID {
		return
	}
	s.leaves.Put(playerID)
}

// SetRemoteFallback задаёт позицию игрока из метаданных до первого снимка
func (s *Simulation) SetRemoteFallback(playerID string, pos vec.Vec2) {
	s.remotes.SetFallback(playerID, pos)
}

// DrainOutbound забирает исходящие игровые события для рассылки
func (s *Simulation) DrainOutbound() []eventbus.GameEvent {
	return s.outbound.Drain()
}

// LocalUpdate состояние локального корабля для периодической рассылки
func (s *Simulation) LocalUpdate() network.PositionUpdate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return network.PositionUpdate{
		X:         s.ship.Pos.X,
		Y:         s.ship.Pos.Y,
		VX:        s.ship.Vel.X,
		VY:        s.ship.Vel.Y,
		Rotation:  s.ship.Rotation,
		Thrusting: s.ship.Thrusting,
		Boosting:  s.ship.Boosting,
		Timestamp: s.time.Now().UnixMilli(),
	}
}

// Ship копия локального корабля
func (s *Simulation) Ship() physics.Ship {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.ship
}

// emit ставит событие в исходящую очередь
func (s *Simulation) emit(ev eventbus.GameEvent) {
	if !s.outbound.Put(ev) {
		s.logger.Warn("Исходящая очередь переполнена, событие %s вытеснено", ev.EventType())
	}
}

// Tick выполняет один кадр: входящие данные, анимации или физика, бой,
// NPC и камера. Никогда не блокируется на вводе-выводе. Возвращает dt.
func (s *Simulation) Tick(now time.Time, in physics.Input) float64 {
	begin := time.Now()
	defer func() {
		ticksTotal.Inc()
		tickDuration.Observe(time.Since(begin).Seconds())
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	dt := s.clock.Tick(now)
	s.tick++
	s.lastDt = dt
	s.lastNow = now

	s.applyLeaves()
	s.applyEvents(now)
	s.remotes.Update(now, dt)
	s.pruneRemotes(now)

	busy := s.director.Update(dt, now, s.ship)
	if !busy {
		s.stepShip(now, in, dt)
	}
	s.checkBlackHole()
	s.updateCombat(dt)
	s.updateNPCs(now, dt)
	s.expireMarkers(now)
	s.camera.Update(s.focus(), dt, s.zones)
	s.updateLoops()
	return dt
}

func (s *Simulation) applyLeaves() {
	for _, id := range s.leaves.Drain() {
		s.forgetRemote(id)
		s.remotes.Remove(id)
		s.logger.Info("Игрок %s покинул игру", id)
	}
}

func (s *Simulation) pruneRemotes(now time.Time) {
	for _, id := range s.remotes.PruneStale(now, s.cfg.PlayerStaleAfter) {
		s.forgetRemote(id)
	}
}

// forgetRemote убирает всё, что было привязано к удалённому игроку
func (s *Simulation) forgetRemote(id string) {
	delete(s.markers, id)
	if _, ok := s.director.Send(id); ok {
		if err := s.director.Cancel(animation.KindSend, id); err != nil {
			s.logger.Debug("Толкание %s не отменено: %v", id, err)
		}
	}
}

func (s *Simulation) stepShip(now time.Time, in physics.Input, dt float64) {
	res := s.engine.Step(s.ship, in, dt, s.obstacles())
	if len(res.Contacts) > 0 {
		s.audio.Play(audio.SoundCollision)
	}
	for i, c := range res.Contacts {
		s.obs.collided(c, res.FullSpeedHit && i == 0)
	}
	if res.FullSpeedHit {
		s.audio.Play(audio.SoundFullImpact)
	}
	if in.Fire {
		s.fire(now)
	}
}

// obstacles осязаемые объекты рядом с кораблём; разрушаемые анимацией не участвуют
func (s *Simulation) obstacles() []physics.Circle {
	planets := s.registry.Nearby(s.ship.Pos, ObstacleRadius)
	out := make([]physics.Circle, 0, len(planets))
	for _, p := range planets {
		if _, dying := s.director.Destroying(p.ID); dying {
			continue
		}
		out = append(out, physics.Circle{
			ID:         p.ID,
			Pos:        p.Pos,
			Radius:     p.Radius * s.scale(p.ID),
			Intangible: p.Intangible(),
		})
	}
	return out
}

func (s *Simulation) fire(now time.Time) {
	spec, ok := s.cfg.Weapons[s.weapon]
	if !ok {
		return
	}
	targetID := ""
	if spec.Homing() {
		targetID = s.nearestTarget()
	}
	p, err := s.arsenal.Fire(s.weapon, now, s.cfg.PlayerID, s.ship.Pos, s.ship.Rotation, s.ship.Vel, targetID)
	if err != nil {
		return
	}
	s.audio.Play(weaponSound(s.weapon))
	s.emit(eventbus.WeaponFire{
		Weapon:   s.weapon.String(),
		X:        p.Pos.X,
		Y:        p.Pos.Y,
		VX:       p.Vel.X,
		VY:       p.Vel.Y,
		Rotation: p.Rotation(),
		TargetID: targetID,
	})
}

// nearestTarget ближайшая цель для самонаведения: активный босс или разрушаемый объект
func (s *Simulation) nearestTarget() string {
	if s.boss != nil && s.boss.State() == combat.BossActive {
		if s.space.Distance(s.ship.Pos, s.boss.Pos) <= TargetRadius {
			return s.boss.ID
		}
	}
	best, bestDist := "", math.Inf(1)
	for _, p := range s.registry.Nearby(s.ship.Pos, TargetRadius) {
		if !p.Destructible() || s.registry.IsProtected(p.ID) {
			continue
		}
		if d := s.space.Distance(s.ship.Pos, p.Pos); d < bestDist {
			best, bestDist = p.ID, d
		}
	}
	return best
}

func weaponSound(k combat.WeaponKind) audio.Sound {
	switch k {
	case combat.WeaponPlasma:
		return audio.SoundPlasma
	case combat.WeaponRocket:
		return audio.SoundRocket
	case combat.WeaponNuke:
		return audio.SoundNuke
	default:
		return audio.SoundRifle
	}
}

// checkBlackHole возрождает корабль дома после пересечения горизонта событий
// и обновляет громкость гула ближайшей чёрной дыры
func (s *Simulation) checkBlackHole() {
	nearest := math.Inf(1)
	radius := 0.0
	for _, z := range s.zones {
		if z.Type != world.ZoneBlackHole {
			continue
		}
		if d := s.space.Distance(z.Center, s.ship.Pos); d < nearest {
			nearest, radius = d, z.InfluenceRadius()
		}
	}
	s.setLoop(audio.LoopBlackHole, audio.ProximityLevel(nearest, radius))

	if _, inside := s.zones.InsideBlackHole(s.space, s.ship.Pos); !inside {
		return
	}
	s.cancelExclusive(RespawnBlackHole)
	s.respawn(RespawnBlackHole, s.spawnPoint())
}

// cancelExclusive снимает анимацию корабля перед принудительным перемещением
func (s *Simulation) cancelExclusive(reason RespawnReason) {
	a := s.director.Exclusive()
	if a == nil {
		return
	}
	if err := s.director.Cancel(a.Kind(), ""); err != nil {
		s.logger.Debug("Анимация %s не отменена (%s): %v", a.Kind(), reason, err)
	}
}

func (s *Simulation) respawn(reason RespawnReason, pos vec.Vec2) {
	s.ship.Teleport(pos)
	s.camera.Snap(pos)
	respawnsTotal.WithLabelValues(string(reason)).Inc()
	s.logger.Info("Корабль возрождён (%s) в (%.0f, %.0f)", reason, pos.X, pos.Y)
	s.obs.respawned(reason, pos)
}

// spawnPoint точка рядом с домашней зоной игрока или центр мира
func (s *Simulation) spawnPoint() vec.Vec2 {
	if home, ok := s.zones.HomeOf(s.cfg.PlayerID); ok {
		return s.space.WrapIntoBounds(home.Center.Add(vec.New(0, -SpawnOffset)))
	}
	return vec.New(s.space.Size/2, s.space.Size/2)
}

func (s *Simulation) updateCombat(dt float64) {
	targets := combat.PlanetTargets(s.registry, s.ship.Pos, TargetRadius)
	if s.boss != nil && s.boss.State() != combat.BossInactive {
		targets = append(targets, s.boss.Target())
	}
	for _, h := range s.arsenal.Update(dt, targets) {
		s.onHit(h)
	}

	if s.boss == nil {
		return
	}
	arena := combat.Arena{
		PlayerID:   s.cfg.PlayerID,
		Ship:       s.ship,
		ShipRadius: s.ship.Radius(s.cfg.Physics),
		Vitals:     s.vitals,
		RespawnPos: s.spawnPoint(),
	}
	for _, h := range s.boss.Update(dt, arena) {
		s.onHit(h)
	}
}

func (s *Simulation) onHit(h combat.Hit) {
	projectileHits.WithLabelValues(h.Weapon.String()).Inc()
	s.obs.hit(h)
	if !h.Destroyed {
		return
	}
	if p, ok := s.registry.Get(h.TargetID); ok {
		s.destroyPlanet(p, "shatter")
	}
}

// destroyPlanet запускает разрушение и сообщает о нём остальным
func (s *Simulation) destroyPlanet(p world.Planet, variant string) {
	if err := s.director.StartDestroy(p, variant); err != nil {
		return
	}
	s.audio.Play(audio.SoundExplosion)
	s.emit(eventbus.EntityDestroy{EntityID: p.ID, Variant: variant})
}

// updateNPCs двигает NPC по общему для всех клиентов настенному времени
func (s *Simulation) updateNPCs(now time.Time, dt float64) {
	if len(s.npcs) == 0 {
		return
	}
	t := float64(now.UnixMilli()) / 1000
	nearest := math.Inf(1)
	for _, n := range s.npcs {
		n.Update(t, dt)
		if n.Kind != entity.NPCMerchant || !n.Visible() {
			continue
		}
		if d := s.space.Distance(s.ship.Pos, n.Pos); d < nearest {
			nearest = d
		}
	}
	s.setLoop(audio.LoopMerchant, audio.ProximityLevel(nearest, HearingRadius))
}

func (s *Simulation) expireMarkers(now time.Time) {
	for id, m := range s.markers {
		if now.After(m.Expires) {
			delete(s.markers, id)
		}
	}
}

// focus точка слежения камеры: поза активной анимации или корабль
func (s *Simulation) focus() vec.Vec2 {
	if a := s.director.Exclusive(); a != nil {
		return a.PoseAt(a.Progress()).Focus
	}
	return s.ship.Pos
}

func (s *Simulation) updateLoops() {
	s.setLoop(audio.LoopThrust, boolLevel(s.ship.Thrusting))
	s.setLoop(audio.LoopBoost, boolLevel(s.ship.Boosting))
	s.setLoop(audio.LoopBoss, boolLevel(s.boss != nil && s.boss.State() == combat.BossActive))
}

func boolLevel(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// setLoop включает, подстраивает или выключает зацикленный звук
func (s *Simulation) setLoop(l audio.Loop, level float64) {
	if level > 0 {
		if !s.loops[l] {
			s.audio.Start(l)
			s.loops[l] = true
		}
		s.audio.UpdateProximity(l, level)
		return
	}
	if s.loops[l] {
		s.audio.Stop(l)
		s.loops[l] = false
	}
}

func (s *Simulation) onAnimationFinished(c animation.Completion) {
	animationsFinished.WithLabelValues(c.Kind.String(), c.Reason).Inc()
	if c.Completed() {
		switch c.Kind {
		case animation.KindLanding:
			s.audio.Play(audio.SoundLanding)
		case animation.KindClaim:
			s.audio.Play(audio.SoundClaim)
		case animation.KindWarp:
			s.audio.Play(audio.SoundWarp)
		case animation.KindPortal:
			s.audio.Play(audio.SoundPortal)
		case animation.KindNuke:
			s.audio.Play(audio.SoundExplosion)
			s.detonate(s.nukeTarget)
		}
	}
	for _, o := range s.obs.animations {
		o.AnimationFinished(c)
	}
}

// detonate разрушает объекты в радиусе взрыва и ранит босса
func (s *Simulation) detonate(center vec.Vec2) {
	for _, p := range s.registry.Nearby(center, animation.NukeBlastRadius) {
		if !p.Destructible() || s.registry.IsProtected(p.ID) {
			continue
		}
		s.destroyPlanet(p, "nuke")
	}
	if s.boss != nil && s.space.Distance(center, s.boss.Pos) <= animation.NukeBlastRadius {
		s.boss.ApplyDamage(s.cfg.Weapons[combat.WeaponNuke].Damage)
	}
}

func (s *Simulation) onBossState(from, to combat.BossState) {
	switch to {
	case combat.BossIntro:
		s.audio.Play(audio.SoundBossIntro)
	case combat.BossVictory:
		s.audio.Play(audio.SoundVictory)
	case combat.BossPlayerDefeated:
		s.audio.Play(audio.SoundDefeat)
		s.cancelExclusive(RespawnDefeat)
	case combat.BossInactive:
		if from == combat.BossRespawn {
			s.camera.Snap(s.ship.Pos)
			respawnsTotal.WithLabelValues(string(RespawnDefeat)).Inc()
			s.obs.respawned(RespawnDefeat, s.ship.Pos)
		}
	}
	for _, o := range s.obs.boss {
		o.BossStateChanged(from, to)
	}
}
