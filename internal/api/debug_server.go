package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/taskverse/internal/cache"
	"github.com/annel0/taskverse/internal/eventbus"
	"github.com/annel0/taskverse/internal/game"
	"github.com/annel0/taskverse/internal/logging"
	"github.com/annel0/taskverse/internal/middleware"
	"github.com/annel0/taskverse/internal/network"
)

// World источник состояния для отладочных эндпоинтов. Реализуется game.Simulation.
type World interface {
	Frame() game.Frame
	RemotePlayers() *network.RemotePlayers
}

// Config параметры отладочного сервера
type Config struct {
	Port    int
	Service string // пространство имён HTTP-метрик и имя сервиса в трейсах
	World   World
	Bus     eventbus.EventBus // необязательно
	Sizes   cache.SizeCache   // необязательно
	Logger  *logging.Logger
}

// DebugServer HTTP API только для чтения: здоровье процесса, метрики,
// снимок мира и состояние удалённых игроков
type DebugServer struct {
	router  *gin.Engine
	cfg     Config
	metrics *ProcessMetrics
	logger  *logging.Logger

	httpServer *http.Server
	listener   net.Listener
}

// HealthProcess показатели процесса в /health
type HealthProcess struct {
	Uptime     string  `json:"uptime"`
	MemoryMB   float64 `json:"memory_mb"`
	CPUPercent float64 `json:"cpu_percent"`
	Goroutines int     `json:"goroutines"`
}

// HealthResponse ответ /health
type HealthResponse struct {
	Status  string        `json:"status"`
	Time    int64         `json:"time"`
	Tick    uint64        `json:"tick"`
	Process HealthProcess `json:"process"`
}

// PlayerResponse подробности об удалённом игроке
type PlayerResponse struct {
	PlayerID  string              `json:"player_id"`
	Render    network.RenderState `json:"render"`
	Snapshots []network.Snapshot  `json:"snapshots"`
}

// StatsResponse счётчики шины событий и кеша размеров
type StatsResponse struct {
	Bus   *eventbus.Stats `json:"bus,omitempty"`
	Cache *cache.Metrics  `json:"cache,omitempty"`
}

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewDebugServer создаёт сервер и настраивает маршруты
func NewDebugServer(cfg Config) *DebugServer {
	if cfg.Service == "" {
		cfg.Service = "debug_api"
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New() // без стандартного logger
	router.Use(gin.Recovery())

	// === Observability middleware ===
	router.Use(otelgin.Middleware(cfg.Service))
	router.Use(middleware.NewRequestLogger(cfg.Logger).Handler())
	promMw := middleware.NewPrometheusMiddleware(cfg.Service)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	s := &DebugServer{
		router:  router,
		cfg:     cfg,
		metrics: NewProcessMetrics(),
		logger:  cfg.Logger,
	}
	s.setupRoutes()
	return s
}

func (s *DebugServer) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.GET("/world", s.handleWorld)
		api.GET("/players", s.handlePlayers)
		api.GET("/players/:id", s.handlePlayer)
		api.GET("/stats", s.handleStats)
	}
}

// Handler http.Handler сервера (для httptest и встраивания)
func (s *DebugServer) Handler() http.Handler {
	return s.router
}

func (s *DebugServer) handleHealth(c *gin.Context) {
	resp := HealthResponse{
		Status:  "ok",
		Time:    time.Now().Unix(),
		Process: s.metrics.Snapshot(),
	}
	if s.cfg.World != nil {
		resp.Tick = s.cfg.World.Frame().Tick
	}
	c.JSON(http.StatusOK, resp)
}

func (s *DebugServer) handleWorld(c *gin.Context) {
	if s.cfg.World == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "simulation is not attached"})
		return
	}
	c.JSON(http.StatusOK, s.cfg.World.Frame())
}

func (s *DebugServer) handlePlayers(c *gin.Context) {
	if s.cfg.World == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "simulation is not attached"})
		return
	}
	remotes := s.cfg.World.Frame().Remotes
	sort.Slice(remotes, func(i, j int) bool { return remotes[i].PlayerID < remotes[j].PlayerID })
	c.JSON(http.StatusOK, gin.H{
		"players": remotes,
		"total":   len(remotes),
	})
}

func (s *DebugServer) handlePlayer(c *gin.Context) {
	if s.cfg.World == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "simulation is not attached"})
		return
	}
	id := c.Param("id")
	remotes := s.cfg.World.RemotePlayers()
	rs, ok := remotes.RenderState(id)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("player %s is not tracked", id)})
		return
	}
	c.JSON(http.StatusOK, PlayerResponse{
		PlayerID:  id,
		Render:    rs,
		Snapshots: remotes.Snapshots(id),
	})
}

func (s *DebugServer) handleStats(c *gin.Context) {
	var resp StatsResponse
	if s.cfg.Bus != nil {
		st := s.cfg.Bus.Metrics()
		resp.Bus = &st
	}
	if s.cfg.Sizes != nil {
		m := s.cfg.Sizes.GetMetrics()
		resp.Cache = &m
	}
	c.JSON(http.StatusOK, resp)
}

// Start начинает слушать порт в отдельной горутине
func (s *DebugServer) Start() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("listen debug api: %w", err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Ошибка debug API: %v", err)
		}
	}()

	s.logger.Info("Debug API запущен на http://%s", ln.Addr())
	return nil
}

// Addr адрес, на котором слушает сервер после Start
func (s *DebugServer) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown корректно останавливает сервер
func (s *DebugServer) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown debug api: %w", err)
	}
	s.logger.Info("Debug API остановлен")
	return nil
}
