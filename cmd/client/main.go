package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/annel0/taskverse/internal/api"
	"github.com/annel0/taskverse/internal/audio"
	"github.com/annel0/taskverse/internal/cache"
	"github.com/annel0/taskverse/internal/config"
	"github.com/annel0/taskverse/internal/eventbus"
	"github.com/annel0/taskverse/internal/game"
	"github.com/annel0/taskverse/internal/logging"
	"github.com/annel0/taskverse/internal/network"
	"github.com/annel0/taskverse/internal/observability"
	"github.com/annel0/taskverse/internal/storage"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config path (defaults to $GAME_CONFIG)")
		playerID   = flag.String("player", "", "player id, overrides network.player_id")
		offline    = flag.Bool("offline", false, "run without connecting to the relay")
		duration   = flag.Duration("duration", 0, "stop after this long (0 - until signal)")
	)
	flag.Parse()

	if err := logging.InitDefaultLogger("client"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer func() { _ = logging.GetLoggerManager().CloseAll() }()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("❌ Ошибка загрузки конфигурации: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	if err := run(ctx, cfg, *playerID, *offline); err != nil {
		logging.Error("❌ Клиент завершился с ошибкой: %v", err)
		os.Exit(1)
	}
	logging.Info("👋 Клиент остановлен")
}

func run(ctx context.Context, cfg *config.Config, playerID string, offline bool) error {
	gcfg := game.FromConfig(cfg, playerID)
	playerID = gcfg.PlayerID

	gameLog := logging.GetGameLogger()
	netLog := logging.GetNetworkLogger()
	storageLog := logging.GetStorageLogger()
	apiLog := logging.GetAPILogger()
	logging.GetLoggerManager().SetLevelAll(logging.ParseLevel(cfg.LogLevel), logging.DEBUG)

	logging.Info("🚀 Запуск клиента: игрок=%s, мир=%.0f, seed=%d", playerID, gcfg.Space.Size, gcfg.Seed)

	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, observability.Options{
			ServiceName: cfg.Telemetry.ServiceName,
			Endpoint:    cfg.Telemetry.Endpoint,
			SampleRatio: cfg.Telemetry.SampleRatio,
		})
		if err != nil {
			logging.Warn("OpenTelemetry не инициализирован: %v", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	// === ХРАНИЛИЩА ===
	planets, err := openPlanetStore(cfg, storageLog)
	if err != nil {
		return err
	}
	defer planets.Close()

	ships, err := openShipRepo(ctx, cfg, storageLog)
	if err != nil {
		return err
	}
	defer ships.Close()

	// === ШИНА СОБЫТИЙ ===
	bus, err := openBus(cfg, netLog)
	if err != nil {
		return err
	}
	if bus != nil {
		defer bus.Close()
	}

	var inv cache.Invalidator
	if url := cfg.EventBus.GetURL(); url != "" {
		n, err := cache.NewNATSInvalidator(cache.InvalidatorConfig{NATSURL: url, Logger: storageLog}, playerID)
		if err != nil {
			logging.Warn("Инвалидация кеша размеров отключена: %v", err)
		} else {
			defer n.Close()
			inv = n
		}
	}
	sizes := cache.NewSizeCache(cache.RedisConfig{
		Addr:      cfg.Cache.RedisAddr,
		KeyPrefix: cfg.Cache.KeyPrefix,
		TTL:       cfg.Cache.TTL,
	}, cfg.Storage.UserID, inv)

	// === СИМУЛЯЦИЯ ===
	sim := game.New(gcfg, game.Deps{
		Sizes:   sizes,
		Planets: planets,
		Ships:   ships,
		Audio:   audio.LogSink{Logger: gameLog},
		Logger:  gameLog,
	})
	populateDemoWorld(sim, gcfg)

	if err := sim.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := sim.Stop(context.Background()); err != nil {
			logging.Error("Ошибка сохранения сессии: %v", err)
		}
	}()

	// === ТРАНСПОРТ ===
	var transport game.Transport
	if !offline {
		session, err := connectRelay(ctx, cfg, playerID, sim, netLog)
		if err != nil {
			return err
		}
		defer func() {
			_ = session.Send(context.Background(), &network.Frame{Type: network.FrameLeave, PlayerID: playerID})
			_ = session.Close()
		}()
		transport = session

		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()
		go func() {
			select {
			case <-session.Done():
				netLog.Warn("Соединение с relay потеряно")
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	if bus != nil {
		sub, err := sim.SubscribeBus(ctx, bus)
		if err != nil {
			return err
		}
		defer sub.Unsubscribe()
	}

	// === DEBUG API ===
	if cfg.API.Enabled {
		srv := api.NewDebugServer(api.Config{
			Port:   cfg.API.GetPort(),
			World:  sim,
			Bus:    bus,
			Sizes:  sizes,
			Logger: apiLog,
		})
		if err := srv.Start(); err != nil {
			return err
		}
		defer func() { _ = srv.Shutdown(context.Background()) }()
	}

	broadcaster := game.NewBroadcaster(sim, transport, bus, cfg.Network.BroadcastInterval, netLog)
	pilot := game.NewAutopilot(gcfg.Seed, sim.Space())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return broadcaster.Run(gctx) })
	g.Go(func() error { return sim.Run(gctx, pilot) })

	logging.Info("✅ Клиент запущен")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func openPlanetStore(cfg *config.Config, logger *logging.Logger) (storage.PlanetStore, error) {
	if cfg.Storage.DataPath == "" {
		return storage.NewMemoryPlanetStore(), nil
	}
	return storage.NewBadgerPlanetStore(filepath.Join(cfg.Storage.DataPath, "planets"), logger)
}

func openShipRepo(ctx context.Context, cfg *config.Config, logger *logging.Logger) (storage.ShipStateRepo, error) {
	addr := cfg.Storage.GetRedisAddr()
	if addr == "" {
		return storage.NewMemoryShipStateRepo(), nil
	}
	rc := storage.DefaultRedisConfig()
	rc.Addr = addr
	repo, err := storage.NewRedisShipStateRepo(ctx, rc, logger)
	if err != nil {
		logger.Warn("Redis недоступен (%v), состояние корабля хранится в памяти", err)
		return storage.NewMemoryShipStateRepo(), nil
	}
	return repo, nil
}

// openBus подключает JetStream; без адреса NATS события идут кадрами через relay
func openBus(cfg *config.Config, logger *logging.Logger) (eventbus.EventBus, error) {
	url := cfg.EventBus.GetURL()
	if url == "" {
		return nil, nil
	}
	retention := time.Duration(cfg.EventBus.Retention) * time.Hour
	bus, err := eventbus.NewJetStreamBus(url, cfg.EventBus.Stream, retention)
	if err != nil {
		return nil, err
	}
	if _, err := eventbus.StartLoggingListener(bus, logger); err != nil {
		logger.Warn("Логирование событий шины отключено: %v", err)
	}
	exporter := eventbus.NewMetricsExporter(bus, "jetstream")
	exporter.Start()
	return &exportedBus{EventBus: bus, exporter: exporter}, nil
}

// exportedBus останавливает экспортер метрик вместе с шиной
type exportedBus struct {
	eventbus.EventBus
	exporter *eventbus.MetricsExporter
}

func (b *exportedBus) Close() error {
	b.exporter.Stop()
	return b.EventBus.Close()
}

func connectRelay(ctx context.Context, cfg *config.Config, playerID string, sim *game.Simulation, logger *logging.Logger) (*network.KCPSession, error) {
	codec, err := network.NewCodec(cfg.Network.UseZstd)
	if err != nil {
		return nil, err
	}
	session, err := network.DialKCP(ctx, cfg.Network.GetRelayAddr(), codec, sim.FrameHandler(), logger)
	if err != nil {
		return nil, err
	}
	if err := session.Send(ctx, &network.Frame{Type: network.FrameHello, PlayerID: playerID}); err != nil {
		_ = session.Close()
		return nil, err
	}
	return session, nil
}
