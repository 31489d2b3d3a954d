package animation

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/annel0/taskverse/internal/logging"
	"github.com/annel0/taskverse/internal/physics"
	"github.com/annel0/taskverse/internal/vec"
	"github.com/annel0/taskverse/internal/world"
)

// Config таймауты анимаций, зависящих от внешних ответов
type Config struct {
	RemoteSendTimeout time.Duration
	LocalHoldTimeout  time.Duration
}

// DefaultConfig возвращает таймауты по умолчанию
func DefaultConfig() Config {
	return Config{
		RemoteSendTimeout: 5 * time.Second,
		LocalHoldTimeout:  10 * time.Second,
	}
}

// Причины завершения анимации
const (
	ReasonCompleted = "completed"
	ReasonCancelled = "cancelled"
	ReasonTimeout   = "timeout"
)

// Completion сведения о завершённой или отменённой анимации
type Completion struct {
	Kind   Kind
	Key    string // id планеты, сущности или удалённого игрока; пусто для корабля
	Pose   Pose   // последняя вычисленная поза (для entity-анимаций - поза объекта)
	Reason string
}

// Completed анимация дошла до конца
func (c Completion) Completed() bool { return c.Reason == ReasonCompleted }

// Observer получает уведомления о завершении анимаций
type Observer interface {
	AnimationFinished(c Completion)
}

// ObserverFunc адаптер функции к Observer
type ObserverFunc func(c Completion)

func (f ObserverFunc) AnimationFinished(c Completion) { f(c) }

// Director владеет всеми анимациями. Эксклюзивные анимации корабля
// взаимоисключающие, entity-анимации работают параллельно. Вызывается только
// из тика симуляции.
type Director struct {
	space    world.Space
	registry *world.Registry
	cfg      Config
	logger   *logging.Logger

	nuke    *Nuke
	portal  *Portal
	warp    *Warp
	claim   *Claim
	landing *Landing

	sends    map[string]*Send
	destroys map[string]*Destroy

	observers []Observer
}

// NewDirector создаёт директора анимаций над реестром планет
func NewDirector(registry *world.Registry, cfg Config, logger *logging.Logger) *Director {
	if cfg.RemoteSendTimeout <= 0 {
		cfg.RemoteSendTimeout = DefaultConfig().RemoteSendTimeout
	}
	if cfg.LocalHoldTimeout <= 0 {
		cfg.LocalHoldTimeout = DefaultConfig().LocalHoldTimeout
	}
	return &Director{
		space:    registry.Space(),
		registry: registry,
		cfg:      cfg,
		logger:   logger,
		sends:    make(map[string]*Send),
		destroys: make(map[string]*Destroy),
	}
}

// AddObserver подписывает наблюдателя на завершения
func (d *Director) AddObserver(o Observer) {
	d.observers = append(d.observers, o)
}

func (d *Director) notify(c Completion) {
	for _, o := range d.observers {
		o.AnimationFinished(c)
	}
}

// exclusiveInOrder активные эксклюзивные анимации в порядке приоритета
func (d *Director) exclusiveInOrder() []Animation {
	out := make([]Animation, 0, 1)
	if d.nuke != nil {
		out = append(out, d.nuke)
	}
	if d.portal != nil {
		out = append(out, d.portal)
	}
	if d.warp != nil {
		out = append(out, d.warp)
	}
	if d.claim != nil {
		out = append(out, d.claim)
	}
	if d.landing != nil {
		out = append(out, d.landing)
	}
	return out
}

// Exclusive текущая эксклюзивная анимация или nil
func (d *Director) Exclusive() Animation {
	if list := d.exclusiveInOrder(); len(list) > 0 {
		return list[0]
	}
	return nil
}

// Busy корабль под управлением анимации
func (d *Director) Busy() bool {
	return d.Exclusive() != nil
}

func (d *Director) clearExclusive(k Kind) {
	switch k {
	case KindNuke:
		d.nuke = nil
	case KindPortal:
		d.portal = nil
	case KindWarp:
		d.warp = nil
	case KindClaim:
		d.claim = nil
	case KindLanding:
		d.landing = nil
	}
}

// StartLanding начинает посадку на планету. Направление облёта совпадает
// с направлением текущего движения корабля вокруг планеты.
func (d *Director) StartLanding(ship *physics.Ship, planet world.Planet, shipRadius float64) error {
	if d.Busy() {
		return ErrAnimationBusy
	}
	center := d.space.UnwrapRelativeTo(ship.Pos, planet.Pos)
	radial := ship.Pos.Sub(center)
	entry := radial.Angle()
	if radial.LengthSq() < 1e-9 {
		entry = ship.Rotation + math.Pi
	}
	sweep := math.Pi / 2
	if radial.X*ship.Vel.Y-radial.Y*ship.Vel.X < 0 {
		sweep = -sweep
	}

	d.landing = NewLanding(LandingParams{
		PlanetID:      planet.ID,
		Start:         ship.Pos,
		StartRotation: ship.Rotation,
		Center:        center,
		PlanetRadius:  planet.Radius,
		EntryAngle:    entry,
		Sweep:         sweep,
		ShipRadius:    shipRadius,
	}, ship.Mods.LandingMultiplier())
	d.logger.Debug("Посадка на %s", planet.ID)
	return nil
}

// StartClaim начинает захват планеты; target == nil - цель придёт позже
func (d *Director) StartClaim(ship *physics.Ship, planet world.Planet, target *vec.Vec2) error {
	if d.Busy() {
		return ErrAnimationBusy
	}
	if d.registry.IsProtected(planet.ID) {
		return fmt.Errorf("claim %s: %w", planet.ID, ErrAnimationBusy)
	}
	var unwrapped *vec.Vec2
	if target != nil {
		t := d.space.UnwrapRelativeTo(ship.Pos, *target)
		unwrapped = &t
	}
	planetPos := d.space.UnwrapRelativeTo(ship.Pos, planet.Pos)
	d.registry.Protect(planet.ID)
	d.claim = NewClaim(planet.ID, ship.Pos, ship.Rotation, planetPos, unwrapped)
	return nil
}

// StartWarp начинает возвращение домой
func (d *Director) StartWarp(ship *physics.Ship, home vec.Vec2) error {
	if d.Busy() {
		return ErrAnimationBusy
	}
	d.warp = NewWarp(ship.Pos, ship.Rotation, d.space.UnwrapRelativeTo(ship.Pos, home))
	return nil
}

// StartPortal начинает переход через портал в точку exit
func (d *Director) StartPortal(ship *physics.Ship, exit vec.Vec2) error {
	if d.Busy() {
		return ErrAnimationBusy
	}
	d.portal = NewPortal(ship.Pos, ship.Rotation, d.space.WrapIntoBounds(exit))
	return nil
}

// StartNuke запускает ядерную ракету в target
func (d *Director) StartNuke(ship *physics.Ship, target vec.Vec2) error {
	if d.Busy() {
		return ErrAnimationBusy
	}
	d.nuke = NewNuke(ship.Pos, ship.Rotation, d.space.UnwrapRelativeTo(ship.Pos, target))
	return nil
}

// StartSend начинает толкание планеты. Для удалённых игроков key - id игрока,
// новое толкание того же игрока заменяет предыдущее.
func (d *Director) StartSend(key string, planet world.Planet, pusher vec.Vec2, target *vec.Vec2, remote bool, now time.Time) error {
	if old, ok := d.sends[key]; ok {
		if !remote {
			return fmt.Errorf("send %s: %w", key, ErrAnimationBusy)
		}
		d.finishSend(old, ReasonCancelled, false)
	}
	if d.registry.IsProtected(planet.ID) {
		return fmt.Errorf("send %s: %w", planet.ID, ErrAnimationBusy)
	}

	pusher = d.space.UnwrapRelativeTo(planet.Pos, pusher)
	var unwrapped *vec.Vec2
	if target != nil {
		t := d.space.UnwrapRelativeTo(planet.Pos, *target)
		unwrapped = &t
	}
	d.registry.Protect(planet.ID)
	d.sends[key] = NewSend(key, planet.ID, planet.Pos, pusher, unwrapped, remote, now)
	return nil
}

// StartDestroy начинает разрушение сущности; толкание этой сущности отменяется
func (d *Director) StartDestroy(planet world.Planet, variant string) error {
	if _, ok := d.destroys[planet.ID]; ok {
		return fmt.Errorf("destroy %s: %w", planet.ID, ErrAnimationBusy)
	}
	for _, s := range d.sortedSends() {
		if s.PlanetID == planet.ID {
			d.finishSend(s, ReasonCancelled, false)
		}
	}
	d.registry.Protect(planet.ID)
	d.destroys[planet.ID] = NewDestroy(planet.ID, variant, planet.Pos, planet.Radius)
	return nil
}

// ResolveTarget передаёт цель ожидающему захвату или толканию
func (d *Director) ResolveTarget(kind Kind, key string, target vec.Vec2) error {
	switch kind {
	case KindClaim:
		if d.claim == nil {
			return ErrNotActive
		}
		return d.claim.ResolveTarget(d.space.UnwrapRelativeTo(d.claim.path.Start, target))
	case KindSend:
		s, ok := d.sends[key]
		if !ok {
			return ErrNotActive
		}
		return s.ResolveTarget(d.space.UnwrapRelativeTo(s.Start, target))
	default:
		return fmt.Errorf("%s has no target: %w", kind, ErrNotActive)
	}
}

// Cancel сбрасывает анимацию при любом progress. Корабль и объект остаются
// в последней позиции, перемещение при необходимости выполняет вызывающий.
func (d *Director) Cancel(kind Kind, key string) error {
	switch kind {
	case KindSend:
		s, ok := d.sends[key]
		if !ok {
			return ErrNotActive
		}
		d.finishSend(s, ReasonCancelled, false)
		return nil
	case KindDestroy:
		ds, ok := d.destroys[key]
		if !ok {
			return ErrNotActive
		}
		ds.Cancel()
		delete(d.destroys, key)
		d.registry.ReleaseWithoutMove(key)
		d.notify(Completion{Kind: KindDestroy, Key: key, Pose: ds.Pose(), Reason: ReasonCancelled})
		return nil
	}

	for _, a := range d.exclusiveInOrder() {
		if a.Kind() == kind {
			d.abortExclusive(a, ReasonCancelled)
			return nil
		}
	}
	return ErrNotActive
}

// abortExclusive снимает эксклюзивную анимацию без перемещения; захваченная
// планета освобождается там, где стоит
func (d *Director) abortExclusive(a Animation, reason string) {
	a.Cancel()
	d.clearExclusive(a.Kind())
	c := Completion{Kind: a.Kind(), Pose: a.PoseAt(a.Progress()), Reason: reason}
	if cl, ok := a.(*Claim); ok {
		d.registry.ReleaseWithoutMove(cl.PlanetID)
		c.Key = cl.PlanetID
	}
	d.notify(c)
}

// CancelAll отменяет все анимации
func (d *Director) CancelAll() {
	for _, a := range d.exclusiveInOrder() {
		_ = d.Cancel(a.Kind(), "")
	}
	for _, s := range d.sortedSends() {
		d.finishSend(s, ReasonCancelled, false)
	}
	for _, id := range d.destroyIDs() {
		_ = d.Cancel(KindDestroy, id)
	}
}

// Send активное толкание по ключу
func (d *Director) Send(key string) (*Send, bool) {
	s, ok := d.sends[key]
	return s, ok
}

// Sends активные толкания, отсортированные по ключу
func (d *Director) Sends() []*Send {
	return d.sortedSends()
}

// Destroying активное разрушение сущности
func (d *Director) Destroying(id string) (*Destroy, bool) {
	ds, ok := d.destroys[id]
	return ds, ok
}

// Destroys активные разрушения, отсортированные по id
func (d *Director) Destroys() []*Destroy {
	ids := d.destroyIDs()
	out := make([]*Destroy, 0, len(ids))
	for _, id := range ids {
		out = append(out, d.destroys[id])
	}
	return out
}

// Update продвигает все анимации на dt. Возвращает true, если корабль
// в этом тике управлялся анимацией и физику надо пропустить.
func (d *Director) Update(dt float64, now time.Time, ship *physics.Ship) bool {
	d.updateSends(dt, now)
	d.updateDestroys(dt)
	return d.updateExclusive(dt, now, ship)
}

func (d *Director) updateExclusive(dt float64, now time.Time, ship *physics.Ship) bool {
	list := d.exclusiveInOrder()
	if len(list) == 0 {
		return false
	}
	// Выполняется не больше одной анимации за тик
	a := list[0]
	if cl, ok := a.(*Claim); ok && cl.HoldExpired(now, d.cfg.LocalHoldTimeout) {
		d.logger.Debug("Захват %s брошен: цель не пришла за %v", cl.PlanetID, d.cfg.LocalHoldTimeout)
		d.abortExclusive(a, ReasonTimeout)
		return false
	}
	done := a.Step(dt)
	ps := a.PoseAt(a.Progress())
	pos := d.space.WrapIntoBounds(ps.Pos)

	ship.Pos = pos
	ship.Rotation = vec.WrapAngle(ps.Rotation)
	ship.Vel = vec.Vec2{}
	ship.Thrusting = false
	ship.Boosting = false

	c := Completion{Kind: a.Kind(), Pose: ps, Reason: ReasonCompleted}
	if cl, ok := a.(*Claim); ok {
		planetPos := d.space.WrapIntoBounds(cl.PlanetPoseAt(cl.Progress()).Pos)
		c.Key = cl.PlanetID
		if done {
			d.registry.Release(cl.PlanetID, planetPos)
		} else {
			d.registry.SetPosition(cl.PlanetID, planetPos)
		}
	}
	if l, ok := a.(*Landing); ok {
		c.Key = l.Params.PlanetID
	}

	if done {
		d.clearExclusive(a.Kind())
		ship.Teleport(pos)
		d.logger.Debug("Анимация %s завершена", a.Kind())
		d.notify(c)
	}
	return true
}

func (d *Director) updateSends(dt float64, now time.Time) {
	for _, s := range d.sortedSends() {
		if s.Expired(now, d.cfg.RemoteSendTimeout, d.cfg.LocalHoldTimeout) {
			d.logger.Debug("Толкание %s брошено по таймауту", s.Key)
			d.finishSend(s, ReasonTimeout, false)
			continue
		}
		done := s.Step(dt)
		pos := d.space.WrapIntoBounds(s.Pose().Pos)
		if done {
			d.finishSend(s, ReasonCompleted, true)
			continue
		}
		d.registry.SetPosition(s.PlanetID, pos)
	}
}

// finishSend убирает толкание; при completed данные применяются в финальной точке
func (d *Director) finishSend(s *Send, reason string, completed bool) {
	s.Cancel()
	delete(d.sends, s.Key)
	ps := s.Pose()
	if completed {
		d.registry.Release(s.PlanetID, d.space.WrapIntoBounds(ps.Pos))
	} else {
		d.registry.ReleaseWithoutMove(s.PlanetID)
	}
	d.notify(Completion{Kind: KindSend, Key: s.Key, Pose: ps, Reason: reason})
}

func (d *Director) updateDestroys(dt float64) {
	for _, id := range d.destroyIDs() {
		ds := d.destroys[id]
		if !ds.Step(dt) {
			continue
		}
		delete(d.destroys, id)
		d.registry.Remove(id)
		d.notify(Completion{Kind: KindDestroy, Key: id, Pose: ds.Pose(), Reason: ReasonCompleted})
	}
}

func (d *Director) sortedSends() []*Send {
	keys := make([]string, 0, len(d.sends))
	for k := range d.sends {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*Send, 0, len(keys))
	for _, k := range keys {
		out = append(out, d.sends[k])
	}
	return out
}

func (d *Director) destroyIDs() []string {
	ids := make([]string, 0, len(d.destroys))
	for id := range d.destroys {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
