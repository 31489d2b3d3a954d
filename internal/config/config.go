package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации клиента и relay-сервера.
// Все секции имеют рабочие значения по умолчанию (см. Default).
type Config struct {
	World         WorldConfig         `yaml:"world"`
	Physics       PhysicsConfig       `yaml:"physics"`
	Interpolation InterpolationConfig `yaml:"interpolation"`
	Network       NetworkConfig       `yaml:"network"`
	EventBus      EventBusConfig      `yaml:"eventbus"`
	Storage       StorageConfig       `yaml:"storage"`
	Cache         CacheConfig         `yaml:"cache"`
	API           APIConfig           `yaml:"api"`
	Telemetry     TelemetryConfig     `yaml:"telemetry"`
	LogLevel      string              `yaml:"log_level"`
}

type WorldConfig struct {
	Size float64 `yaml:"size"`
	Seed int64   `yaml:"seed"`
}

type PhysicsConfig struct {
	DtCap          float64 `yaml:"dt_cap"`
	TargetFrameMs  float64 `yaml:"target_frame_ms"`
	SpeedBonus     int     `yaml:"speed_bonus"`
	SizeBonus      int     `yaml:"size_bonus"`
	LandingBonus   int     `yaml:"landing_bonus"`
	WrapMargin     float64 `yaml:"wrap_margin"`
	Restitution    float64 `yaml:"restitution"`
	ShipMaxSpeed   float64 `yaml:"ship_max_speed"`
	ShipBoostSpeed float64 `yaml:"ship_boost_speed"`
}

// InterpolationConfig содержит настраиваемые параметры сглаживания удалённых игроков.
// Значения подобраны эмпирически, поэтому вынесены в конфиг.
type InterpolationConfig struct {
	SnapshotCapacity int     `yaml:"snapshot_capacity"`
	PredictionCapMs  float64 `yaml:"prediction_cap_ms"`
	LerpRate         float64 `yaml:"lerp_rate"`
	ExactMode        bool    `yaml:"exact_mode"`
	ExactDelayMs     float64 `yaml:"exact_delay_ms"`
}

type NetworkConfig struct {
	RelayAddr         string        `yaml:"relay_addr"`
	ListenAddr        string        `yaml:"listen_addr"`
	PlayerID          string        `yaml:"player_id"`
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`
	RemoteSendTimeout time.Duration `yaml:"remote_send_timeout"`
	LocalHoldTimeout  time.Duration `yaml:"local_hold_timeout"`
	UseZstd           bool          `yaml:"use_zstd"`
	InboxCapacity     int           `yaml:"inbox_capacity"`
	PlayerStaleAfter  time.Duration `yaml:"player_stale_after"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Capacity  int    `yaml:"capacity"`
}

type StorageConfig struct {
	DataPath  string `yaml:"data_path"`
	RedisAddr string `yaml:"redis_addr"`
	UserID    string `yaml:"user_id"`
}

type CacheConfig struct {
	RedisAddr string        `yaml:"redis_addr"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

type APIConfig struct {
	Port    int  `yaml:"port"`
	Enabled bool `yaml:"enabled"`
}

type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Endpoint    string  `yaml:"endpoint"`     // host:port OTLP HTTP, пусто - localhost:4318
	SampleRatio float64 `yaml:"sample_ratio"` // 0 - все трейсы
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		World: WorldConfig{
			Size: 10000,
			Seed: 1234,
		},
		Physics: PhysicsConfig{
			DtCap:          3.0,
			TargetFrameMs:  1000.0 / 60.0,
			WrapMargin:     50,
			Restitution:    0.5,
			ShipMaxSpeed:   8,
			ShipBoostSpeed: 16,
		},
		Interpolation: InterpolationConfig{
			SnapshotCapacity: 30,
			PredictionCapMs:  200,
			LerpRate:         0.15,
			ExactDelayMs:     100,
		},
		Network: NetworkConfig{
			PlayerID:          "local",
			BroadcastInterval: 50 * time.Millisecond,
			RemoteSendTimeout: 5 * time.Second,
			LocalHoldTimeout:  10 * time.Second,
			InboxCapacity:     1024,
			PlayerStaleAfter:  10 * time.Second,
		},
		EventBus: EventBusConfig{
			Stream:    "TASKVERSE",
			Retention: 1,
			Capacity:  256,
		},
		Storage: StorageConfig{
			DataPath: "data",
			UserID:   "local",
		},
		Cache: CacheConfig{
			KeyPrefix: "taskverse:size:",
			TTL:       time.Hour,
		},
		API: APIConfig{
			Port: 0,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "taskverse-client",
		},
		LogLevel: "info",
	}
}

// GetRelayAddr возвращает адрес relay-сервера: config -> env -> default
func (n *NetworkConfig) GetRelayAddr() string {
	return getStringWithEnvFallback(n.RelayAddr, "GAME_RELAY_ADDR", "127.0.0.1:7780")
}

// GetListenAddr возвращает адрес, на котором слушает relay-сервер
func (n *NetworkConfig) GetListenAddr() string {
	return getStringWithEnvFallback(n.ListenAddr, "GAME_RELAY_LISTEN", ":7780")
}

// GetPort возвращает порт debug API с поддержкой fallback значений
func (a *APIConfig) GetPort() int {
	return getPortWithEnvFallback(a.Port, "GAME_API_PORT", 8090)
}

// GetURL возвращает адрес NATS; пустая строка означает in-memory шину
func (e *EventBusConfig) GetURL() string {
	return getStringWithEnvFallback(e.URL, "GAME_NATS_URL", "")
}

// GetRedisAddr возвращает адрес Redis для хранилища; пустая строка - память
func (s *StorageConfig) GetRedisAddr() string {
	return getStringWithEnvFallback(s.RedisAddr, "GAME_REDIS_ADDR", "")
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

func getStringWithEnvFallback(configValue, envVar, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	return defaultValue
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV GAME_CONFIG; если и он пуст - возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("GAME_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет значения, от которых зависит корректность симуляции
func (c *Config) Validate() error {
	if c.World.Size <= 0 {
		return fmt.Errorf("world.size должен быть > 0, получено %v", c.World.Size)
	}
	if c.Physics.DtCap < 1 {
		return fmt.Errorf("physics.dt_cap должен быть >= 1, получено %v", c.Physics.DtCap)
	}
	if c.Physics.TargetFrameMs <= 0 {
		return fmt.Errorf("physics.target_frame_ms должен быть > 0")
	}
	if c.Interpolation.SnapshotCapacity < 2 {
		return fmt.Errorf("interpolation.snapshot_capacity должен быть >= 2")
	}
	if c.Interpolation.LerpRate <= 0 || c.Interpolation.LerpRate > 1 {
		return fmt.Errorf("interpolation.lerp_rate вне диапазона (0,1]: %v", c.Interpolation.LerpRate)
	}
	if c.Interpolation.PredictionCapMs < 0 {
		return fmt.Errorf("interpolation.prediction_cap_ms не может быть отрицательным")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry.sample_ratio вне диапазона [0,1]: %v", c.Telemetry.SampleRatio)
	}
	return nil
}
