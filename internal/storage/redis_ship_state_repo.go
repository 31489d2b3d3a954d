package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/taskverse/internal/logging"
)

// RedisConfig настройки подключения к Redis
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
		KeyPrefix: "taskverse:ship:",
		TTL:       7 * 24 * time.Hour,
	}
}

// RedisShipStateRepo хранит состояние корабля в Redis как JSON
type RedisShipStateRepo struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    *logging.Logger
}

// NewRedisShipStateRepo подключается к Redis и проверяет соединение
func NewRedisShipStateRepo(ctx context.Context, config RedisConfig, logger *logging.Logger) (*RedisShipStateRepo, error) {
	if config.KeyPrefix == "" {
		config.KeyPrefix = DefaultRedisConfig().KeyPrefix
	}
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Connected to Redis at %s", config.Addr)
	return &RedisShipStateRepo{
		client:    client,
		keyPrefix: config.KeyPrefix,
		ttl:       config.TTL,
		logger:    logger,
	}, nil
}

func (r *RedisShipStateRepo) key(userID string) string {
	return r.keyPrefix + userID
}

func (r *RedisShipStateRepo) Save(ctx context.Context, userID string, state ShipState) error {
	if err := validateShipState(userID, state); err != nil {
		return err
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal ship state: %w", err)
	}
	if err := r.client.Set(ctx, r.key(userID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save ship state: %w", err)
	}
	return nil
}

func (r *RedisShipStateRepo) Load(ctx context.Context, userID string) (ShipState, bool, error) {
	if userID == "" {
		return ShipState{}, false, fmt.Errorf("пустой userID")
	}
	data, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if err == redis.Nil {
		return ShipState{}, false, nil
	}
	if err != nil {
		return ShipState{}, false, fmt.Errorf("failed to get ship state: %w", err)
	}
	var state ShipState
	if err := json.Unmarshal(data, &state); err != nil {
		// Испорченная запись трактуется как первый вход
		r.logger.Warn("Повреждённое состояние корабля %s: %v", userID, err)
		return ShipState{}, false, nil
	}
	return state, true, nil
}

func (r *RedisShipStateRepo) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, r.key(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete ship state: %w", err)
	}
	return nil
}

func (r *RedisShipStateRepo) Close() error {
	return r.client.Close()
}
