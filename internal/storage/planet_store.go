package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/annel0/taskverse/internal/world"
)

// ErrStoreClosed хранилище уже закрыто
var ErrStoreClosed = errors.New("storage: store closed")

// PlanetStore локальный кеш списка планет пользователя.
// Позволяет показать мир до прихода первой синхронизации.
type PlanetStore interface {
	// Save заменяет сохранённый список планет пользователя.
	Save(ctx context.Context, userID string, planets []world.Planet) error

	// Load возвращает сохранённый список; false - для пользователя ничего нет.
	Load(ctx context.Context, userID string) ([]world.Planet, bool, error)

	// Close освобождает ресурсы хранилища.
	Close() error
}

// MemoryPlanetStore реализует PlanetStore в памяти.
// Данные теряются при перезапуске.
type MemoryPlanetStore struct {
	mu     sync.RWMutex
	data   map[string][]world.Planet
	closed bool
}

// NewMemoryPlanetStore создаёт пустое хранилище
func NewMemoryPlanetStore() *MemoryPlanetStore {
	return &MemoryPlanetStore{data: make(map[string][]world.Planet)}
}

func (s *MemoryPlanetStore) Save(ctx context.Context, userID string, planets []world.Planet) error {
	if userID == "" {
		return fmt.Errorf("пустой userID")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.data[userID] = append([]world.Planet(nil), planets...)
	return nil
}

func (s *MemoryPlanetStore) Load(ctx context.Context, userID string) ([]world.Planet, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ErrStoreClosed
	}
	planets, ok := s.data[userID]
	if !ok {
		return nil, false, nil
	}
	return append([]world.Planet(nil), planets...), true, nil
}

func (s *MemoryPlanetStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
