package cache

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/taskverse/internal/logging"
)

// RedisConfig настройки Redis-кеша размеров
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "taskverse:size:",
		TTL:       time.Hour,
	}
}

// RedisSizeCache SizeCache поверх Redis: ключ prefix + userID + ":" + planetID.
type RedisSizeCache struct {
	client      *redis.Client
	config      RedisConfig
	userID      string
	invalidator Invalidator
	ready       atomic.Bool

	totalRequests int64
	hits          int64
	misses        int64
}

// NewRedisSizeCache создаёт кеш; соединение проверяется в Init
func NewRedisSizeCache(config RedisConfig, userID string, invalidator Invalidator) *RedisSizeCache {
	if config.KeyPrefix == "" {
		config.KeyPrefix = DefaultRedisConfig().KeyPrefix
	}
	return &RedisSizeCache{
		client: redis.NewClient(&redis.Options{
			Addr:         config.Addr,
			Password:     config.Password,
			DB:           config.DB,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		}),
		config:      config,
		userID:      userID,
		invalidator: invalidator,
	}
}

func (r *RedisSizeCache) Init(ctx context.Context) error {
	if r.ready.Load() {
		return ErrAlreadyInit
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	if r.invalidator != nil {
		// Удалённые инвалидации уже удалили ключ в Redis, локального состояния нет
		if err := r.invalidator.SubscribeInvalidations(ctx, func(key string) error {
			logging.Debug("Size cache: remote invalidation %s", key)
			return nil
		}); err != nil {
			return err
		}
	}
	r.ready.Store(true)
	logging.Info("Size cache (redis) initialized: %s user=%s", r.config.Addr, r.userID)
	return nil
}

func (r *RedisSizeCache) key(planetID string) string {
	return sizeKey(r.config.KeyPrefix, r.userID, planetID)
}

func (r *RedisSizeCache) Get(ctx context.Context, planetID string) (float64, error) {
	if !r.ready.Load() {
		return 0, ErrNotInitialized
	}
	atomic.AddInt64(&r.totalRequests, 1)

	val, err := r.client.Get(ctx, r.key(planetID)).Result()
	if err == redis.Nil {
		atomic.AddInt64(&r.misses, 1)
		return 0, ErrCacheMiss
	}
	if err != nil {
		atomic.AddInt64(&r.misses, 1)
		return 0, fmt.Errorf("redis get error: %w", err)
	}
	scale, err := strconv.ParseFloat(val, 64)
	if err != nil {
		atomic.AddInt64(&r.misses, 1)
		return 0, fmt.Errorf("corrupt scale for %s: %w", planetID, err)
	}
	atomic.AddInt64(&r.hits, 1)
	return scale, nil
}

func (r *RedisSizeCache) Set(ctx context.Context, planetID string, scale float64) error {
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale <= 0 {
		return ErrInvalidScale
	}
	if !r.ready.Load() {
		return ErrNotInitialized
	}
	value := strconv.FormatFloat(scale, 'g', -1, 64)
	if err := r.client.Set(ctx, r.key(planetID), value, r.config.TTL).Err(); err != nil {
		logging.Error("Redis Set error for planet %s: %v", planetID, err)
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}

func (r *RedisSizeCache) Invalidate(ctx context.Context, planetID string) error {
	if !r.ready.Load() {
		return ErrNotInitialized
	}
	key := r.key(planetID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete error: %w", err)
	}
	if r.invalidator != nil {
		if err := r.invalidator.PublishInvalidation(ctx, key); err != nil {
			logging.Error("Failed to publish invalidation for key %s: %v", key, err)
		}
	}
	return nil
}

// Teardown удаляет все ключи пользователя и закрывает соединение
func (r *RedisSizeCache) Teardown(ctx context.Context) error {
	if !r.ready.CompareAndSwap(true, false) {
		return nil
	}
	pattern := r.config.KeyPrefix + r.userID + ":*"
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logging.Warn("Size cache scan failed: %v", err)
	}
	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			logging.Warn("Size cache cleanup failed: %v", err)
		}
	}
	if r.invalidator != nil {
		_ = r.invalidator.Close()
	}
	logging.Info("Size cache (redis) torn down, removed %d keys", len(keys))
	return r.client.Close()
}

func (r *RedisSizeCache) GetMetrics() Metrics {
	hits := atomic.LoadInt64(&r.hits)
	misses := atomic.LoadInt64(&r.misses)
	return Metrics{
		TotalRequests: atomic.LoadInt64(&r.totalRequests),
		CacheHits:     hits,
		CacheMisses:   misses,
		HitRatio:      hitRatio(hits, misses),
		LastUpdate:    time.Now(),
	}
}

func sizeKey(prefix, userID, planetID string) string {
	return prefix + userID + ":" + planetID
}

// planetFromKey извлекает id планеты из полного ключа; короткий ключ возвращается как есть
func planetFromKey(userID, key string) string {
	marker := userID + ":"
	if idx := strings.Index(key, marker); idx >= 0 {
		return key[idx+len(marker):]
	}
	return key
}
