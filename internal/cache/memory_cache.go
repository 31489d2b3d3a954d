package cache

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/annel0/taskverse/internal/logging"
)

// MemorySizeCache SizeCache в памяти процесса
type MemorySizeCache struct {
	mu          sync.RWMutex
	userID      string
	scales      map[string]float64
	ready       bool
	invalidator Invalidator

	hits   int64
	misses int64
}

// NewMemorySizeCache создаёт кеш пользователя userID
func NewMemorySizeCache(userID string) *MemorySizeCache {
	return &MemorySizeCache{userID: userID}
}

// WithInvalidator подключает рассылку инвалидаций между узлами
func (m *MemorySizeCache) WithInvalidator(inv Invalidator) *MemorySizeCache {
	m.invalidator = inv
	return m
}

func (m *MemorySizeCache) Init(ctx context.Context) error {
	m.mu.Lock()
	if m.ready {
		m.mu.Unlock()
		return ErrAlreadyInit
	}
	m.scales = make(map[string]float64)
	m.ready = true
	m.mu.Unlock()

	if m.invalidator != nil {
		if err := m.invalidator.SubscribeInvalidations(ctx, m.dropKey); err != nil {
			return err
		}
	}
	logging.Info("Size cache (memory) initialized for %s", m.userID)
	return nil
}

func (m *MemorySizeCache) Get(_ context.Context, planetID string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return 0, ErrNotInitialized
	}
	scale, ok := m.scales[planetID]
	if !ok {
		m.misses++
		return 0, ErrCacheMiss
	}
	m.hits++
	return scale, nil
}

func (m *MemorySizeCache) Set(_ context.Context, planetID string, scale float64) error {
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale <= 0 {
		return ErrInvalidScale
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return ErrNotInitialized
	}
	m.scales[planetID] = scale
	return nil
}

func (m *MemorySizeCache) Invalidate(ctx context.Context, planetID string) error {
	if err := m.dropKey(planetID); err != nil {
		return err
	}
	if m.invalidator != nil {
		return m.invalidator.PublishInvalidation(ctx, sizeKey("", m.userID, planetID))
	}
	return nil
}

// dropKey удаляет запись; принимает и полный ключ из уведомления
func (m *MemorySizeCache) dropKey(key string) error {
	planetID := planetFromKey(m.userID, key)
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return ErrNotInitialized
	}
	delete(m.scales, planetID)
	return nil
}

func (m *MemorySizeCache) Teardown(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return nil
	}
	m.scales = nil
	m.ready = false
	logging.Info("Size cache (memory) torn down for %s", m.userID)
	return nil
}

func (m *MemorySizeCache) GetMetrics() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Metrics{
		TotalRequests: m.hits + m.misses,
		CacheHits:     m.hits,
		CacheMisses:   m.misses,
		HitRatio:      hitRatio(m.hits, m.misses),
		TotalKeys:     int64(len(m.scales)),
		LastUpdate:    time.Now(),
	}
}
