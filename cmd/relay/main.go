package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/annel0/taskverse/internal/api"
	"github.com/annel0/taskverse/internal/config"
	"github.com/annel0/taskverse/internal/logging"
	"github.com/annel0/taskverse/internal/network"
	"github.com/annel0/taskverse/internal/observability"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config path (defaults to $GAME_CONFIG)")
		listen     = flag.String("listen", "", "KCP listen address, overrides network.listen_addr")
	)
	flag.Parse()

	if err := logging.InitDefaultLogger("relay"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer func() { _ = logging.GetLoggerManager().CloseAll() }()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("❌ Ошибка загрузки конфигурации: %v", err)
		os.Exit(1)
	}

	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(context.Background(), observability.Options{
			ServiceName: "taskverse-relay",
			Endpoint:    cfg.Telemetry.Endpoint,
			SampleRatio: cfg.Telemetry.SampleRatio,
		})
		if err != nil {
			logging.Warn("OpenTelemetry не инициализирован: %v", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	addr := *listen
	if addr == "" {
		addr = cfg.Network.GetListenAddr()
	}

	codec, err := network.NewCodec(cfg.Network.UseZstd)
	if err != nil {
		logging.Error("❌ Ошибка создания кодека: %v", err)
		os.Exit(1)
	}

	netLog := logging.GetNetworkLogger()
	netLog.SetLevels(logging.ParseLevel(cfg.LogLevel), logging.DEBUG)

	relay := network.NewRelay(addr, codec, netLog)
	if err := relay.Start(); err != nil {
		logging.Error("❌ Ошибка запуска relay: %v", err)
		os.Exit(1)
	}
	logging.Info("🎮 Relay слушает KCP %s", relay.Addr())

	var srv *api.DebugServer
	if cfg.API.Enabled {
		srv = api.NewDebugServer(api.Config{
			Port:    cfg.API.GetPort(),
			Service: "relay_api",
			Logger:  logging.GetAPILogger(),
		})
		if err := srv.Start(); err != nil {
			logging.Error("❌ Ошибка запуска debug API: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	logging.Info("📡 Получен сигнал завершения, клиентов: %d", relay.ClientCount())

	if srv != nil {
		if err := srv.Shutdown(context.Background()); err != nil {
			logging.Error("Ошибка остановки debug API: %v", err)
		}
	}
	if err := relay.Stop(); err != nil {
		logging.Error("Ошибка остановки relay: %v", err)
	}
	logging.Info("👋 Relay остановлен")
}
