package cache

import (
	"context"
	"errors"
	"time"
)

// SizeCache хранит масштаб радиуса планет одного пользователя.
// Экземпляр принадлежит симуляции: Init при старте, Teardown при выходе.
//
// Использование:
//
//	c := NewMemorySizeCache("user-1")
//	_ = c.Init(ctx)
//	scale, err := c.Get(ctx, "planet-7")
//	err = c.Set(ctx, "planet-7", 1.25)
//	_ = c.Teardown(ctx)
type SizeCache interface {
	// Init подготавливает кеш к работе. Повторный вызов без Teardown - ошибка.
	Init(ctx context.Context) error

	// Get возвращает масштаб планеты или ErrCacheMiss.
	Get(ctx context.Context, planetID string) (float64, error)

	// Set сохраняет масштаб планеты.
	Set(ctx context.Context, planetID string, scale float64) error

	// Invalidate удаляет запись и уведомляет другие узлы.
	Invalidate(ctx context.Context, planetID string) error

	// Teardown очищает записи пользователя и освобождает ресурсы.
	Teardown(ctx context.Context) error

	// GetMetrics возвращает метрики кеша.
	GetMetrics() Metrics
}

// Invalidator рассылает и принимает уведомления об инвалидации ключей.
type Invalidator interface {
	PublishInvalidation(ctx context.Context, key string) error
	SubscribeInvalidations(ctx context.Context, handler InvalidationHandler) error
	Close() error
}

// InvalidationHandler обрабатывает уведомления об инвалидации кеша.
type InvalidationHandler func(key string) error

// Metrics счётчики обращений к кешу
type Metrics struct {
	TotalRequests int64     `json:"total_requests"`
	CacheHits     int64     `json:"cache_hits"`
	CacheMisses   int64     `json:"cache_misses"`
	HitRatio      float64   `json:"hit_ratio"`
	TotalKeys     int64     `json:"total_keys"`
	LastUpdate    time.Time `json:"last_update"`
}

// Ошибки кеша
var (
	ErrCacheMiss      = errors.New("cache miss")
	ErrNotInitialized = errors.New("cache not initialized")
	ErrAlreadyInit    = errors.New("cache already initialized")
	ErrInvalidScale   = errors.New("invalid planet scale")
)

// IsCacheMiss проверяет, является ли ошибка промахом кеша.
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

func hitRatio(hits, misses int64) float64 {
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

// NewSizeCache выбирает реализацию: Redis при заданном адресе, иначе память
func NewSizeCache(cfg RedisConfig, userID string, inv Invalidator) SizeCache {
	if cfg.Addr == "" {
		return NewMemorySizeCache(userID).WithInvalidator(inv)
	}
	return NewRedisSizeCache(cfg, userID, inv)
}
