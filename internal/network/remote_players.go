package network

import (
	"sort"
	"sync"
	"time"

	"github.com/annel0/taskverse/internal/clock"
	"github.com/annel0/taskverse/internal/logging"
	"github.com/annel0/taskverse/internal/vec"
	"github.com/annel0/taskverse/internal/world"
)

// inboundUpdate обновление, ожидающее следующего тика
type inboundUpdate struct {
	playerID string
	snapshot Snapshot
}

// remotePlayer состояние одного удалённого игрока
type remotePlayer struct {
	buffer   *SnapshotBuffer
	render   RenderState
	fallback *vec.Vec2
	lastSeen time.Time
	newestTS int64
}

// RemotePlayersConfig параметры сервиса
type RemotePlayersConfig struct {
	Capacity      int
	InboxCapacity int
	Interpolation InterpolatorConfig
}

// RemotePlayers владеет буферами снимков и RenderState всех удалённых игроков.
// OnRemoteUpdate безопасно вызывать из сетевых горутин: обновления копятся во
// входящей очереди и применяются в Update, который вызывает тик симуляции.
type RemotePlayers struct {
	mu       sync.RWMutex
	players  map[string]*remotePlayer
	inbox    *Inbox[inboundUpdate]
	interp   *Interpolator
	time     clock.TimeProvider
	capacity int
	logger   *logging.Logger
}

// NewRemotePlayers создаёт сервис удалённых игроков
func NewRemotePlayers(space world.Space, cfg RemotePlayersConfig, tp clock.TimeProvider, logger *logging.Logger) *RemotePlayers {
	if tp == nil {
		tp = clock.SystemTime{}
	}
	if cfg.Capacity < 2 {
		cfg.Capacity = DefaultSnapshotCapacity
	}
	return &RemotePlayers{
		players:  make(map[string]*remotePlayer),
		inbox:    NewInbox[inboundUpdate](cfg.InboxCapacity),
		interp:   NewInterpolator(space, cfg.Interpolation),
		time:     tp,
		capacity: cfg.Capacity,
		logger:   logger,
	}
}

// Interpolator возвращает используемый интерполятор
func (rp *RemotePlayers) Interpolator() *Interpolator {
	return rp.interp
}

// OnRemoteUpdate принимает обновление позиции из сети и ставит на нём время получения.
// RenderState здесь не меняется.
func (rp *RemotePlayers) OnRemoteUpdate(playerID string, u PositionUpdate) {
	if playerID == "" {
		return
	}
	if !rp.inbox.Put(inboundUpdate{
		playerID: playerID,
		snapshot: Snapshot{PositionUpdate: u, ReceivedAt: rp.time.Now()},
	}) {
		rp.logger.Warn("Входящая очередь позиций переполнена, старое обновление отброшено")
	}
}

// SetFallback задаёт последнюю известную позицию игрока из метаданных (presence, бэкенд).
// Используется, пока для игрока нет ни одного снимка.
func (rp *RemotePlayers) SetFallback(playerID string, pos vec.Vec2) {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	p := rp.getOrCreateLocked(playerID)
	fb := pos
	p.fallback = &fb
}

// Remove удаляет игрока (вышел из игры)
func (rp *RemotePlayers) Remove(playerID string) {
	rp.mu.Lock()
	delete(rp.players, playerID)
	count := len(rp.players)
	rp.mu.Unlock()
	trackedPlayers.Set(float64(count))
}

// Update применяет накопленные обновления и продвигает RenderState каждого игрока на один тик
func (rp *RemotePlayers) Update(now time.Time, dt float64) {
	pending := rp.inbox.Drain()

	rp.mu.Lock()
	defer rp.mu.Unlock()

	for _, in := range pending {
		p := rp.getOrCreateLocked(in.playerID)

		// Обновление старше уже полученного по времени отправителя - переупорядоченный пакет
		if in.snapshot.Timestamp != 0 && in.snapshot.Timestamp < p.newestTS {
			snapshotsStale.Inc()
			continue
		}
		if in.snapshot.Timestamp > p.newestTS {
			p.newestTS = in.snapshot.Timestamp
		}

		if p.buffer.Push(in.snapshot) {
			snapshotsEvicted.Inc()
		}
		p.lastSeen = in.snapshot.ReceivedAt
		snapshotsIngested.Inc()
	}

	for _, p := range rp.players {
		if p.buffer.Len() == 0 {
			if p.fallback != nil && !p.render.initialized {
				p.render.Place(*p.fallback, 0)
			}
			continue
		}
		res := rp.interp.Step(&p.render, p.buffer, now, dt)
		if res.Capped {
			predictionsCapped.Inc()
		}
	}

	trackedPlayers.Set(float64(len(rp.players)))
}

// RenderState возвращает состояние игрока для отрисовки
func (rp *RemotePlayers) RenderState(playerID string) (RenderState, bool) {
	rp.mu.RLock()
	defer rp.mu.RUnlock()
	p, ok := rp.players[playerID]
	if !ok || !p.render.initialized {
		return RenderState{}, false
	}
	return p.render, true
}

// Snapshots возвращает копию буфера снимков игрока
func (rp *RemotePlayers) Snapshots(playerID string) []Snapshot {
	rp.mu.RLock()
	defer rp.mu.RUnlock()
	p, ok := rp.players[playerID]
	if !ok {
		return nil
	}
	return p.buffer.Snapshots()
}

// IDs возвращает отсортированный список отслеживаемых игроков
func (rp *RemotePlayers) IDs() []string {
	rp.mu.RLock()
	defer rp.mu.RUnlock()
	ids := make([]string, 0, len(rp.players))
	for id := range rp.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// PruneStale удаляет игроков, от которых не было обновлений дольше staleAfter.
// Возвращает удалённые идентификаторы.
func (rp *RemotePlayers) PruneStale(now time.Time, staleAfter time.Duration) []string {
	if staleAfter <= 0 {
		return nil
	}
	rp.mu.Lock()
	defer rp.mu.Unlock()

	var removed []string
	for id, p := range rp.players {
		if p.lastSeen.IsZero() {
			continue
		}
		if now.Sub(p.lastSeen) > staleAfter {
			delete(rp.players, id)
			removed = append(removed, id)
		}
	}
	sort.Strings(removed)
	if len(removed) > 0 {
		rp.logger.Info("Удалены неактивные игроки: %v", removed)
	}
	trackedPlayers.Set(float64(len(rp.players)))
	return removed
}

func (rp *RemotePlayers) getOrCreateLocked(playerID string) *remotePlayer {
	p, ok := rp.players[playerID]
	if !ok {
		p = &remotePlayer{buffer: NewSnapshotBuffer(rp.capacity)}
		rp.players[playerID] = p
	}
	return p
}
