package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/annel0/taskverse/internal/physics"
	"github.com/annel0/taskverse/internal/vec"
)

// ShipState последнее состояние локального корабля для возобновления сессии
type ShipState struct {
	PlayerID string            `json:"player_id"`
	Pos      vec.Vec2          `json:"pos"`
	Vel      vec.Vec2          `json:"vel"`
	Rotation float64           `json:"rotation"`
	Mods     physics.Modifiers `json:"mods"`
	SavedAt  time.Time         `json:"saved_at"`
}

// ShipStateFrom снимок корабля
func ShipStateFrom(playerID string, ship *physics.Ship, now time.Time) ShipState {
	return ShipState{
		PlayerID: playerID,
		Pos:      ship.Pos,
		Vel:      ship.Vel,
		Rotation: ship.Rotation,
		Mods:     ship.Mods,
		SavedAt:  now,
	}
}

// Apply восстанавливает корабль из снимка
func (s ShipState) Apply(ship *physics.Ship) {
	ship.Teleport(s.Pos)
	ship.Vel = s.Vel
	ship.Rotation = s.Rotation
	ship.Mods = s.Mods
}

// ShipStateRepo сохраняет состояние корабля между сессиями.
// Состояние привязано к userID, а не к id сессии.
type ShipStateRepo interface {
	Save(ctx context.Context, userID string, state ShipState) error
	// Load возвращает false, если состояние не сохранялось (первый вход).
	Load(ctx context.Context, userID string) (ShipState, bool, error)
	Delete(ctx context.Context, userID string) error
	Close() error
}

// MemoryShipStateRepo реализует ShipStateRepo в памяти.
// Используется, когда Redis недоступен, и в тестах.
type MemoryShipStateRepo struct {
	mu   sync.RWMutex
	data map[string]ShipState
}

// NewMemoryShipStateRepo создаёт пустой репозиторий
func NewMemoryShipStateRepo() *MemoryShipStateRepo {
	return &MemoryShipStateRepo{data: make(map[string]ShipState)}
}

func (r *MemoryShipStateRepo) Save(ctx context.Context, userID string, state ShipState) error {
	if err := validateShipState(userID, state); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[userID] = state
	return nil
}

func (r *MemoryShipStateRepo) Load(ctx context.Context, userID string) (ShipState, bool, error) {
	if userID == "" {
		return ShipState{}, false, fmt.Errorf("пустой userID")
	}
	select {
	case <-ctx.Done():
		return ShipState{}, false, ctx.Err()
	default:
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.data[userID]
	return state, ok, nil
}

func (r *MemoryShipStateRepo) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, userID)
	return nil
}

func (r *MemoryShipStateRepo) Close() error { return nil }

// validateShipState отклоняет состояния, которые нельзя восстановить
func validateShipState(userID string, state ShipState) error {
	if userID == "" {
		return fmt.Errorf("пустой userID")
	}
	if !state.Pos.IsFinite() || !state.Vel.IsFinite() {
		return fmt.Errorf("некорректная позиция корабля: %+v", state.Pos)
	}
	return nil
}
