package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/taskverse/internal/cache"
	"github.com/annel0/taskverse/internal/clock"
	"github.com/annel0/taskverse/internal/eventbus"
	"github.com/annel0/taskverse/internal/game"
	"github.com/annel0/taskverse/internal/network"
	"github.com/annel0/taskverse/internal/physics"
	"github.com/annel0/taskverse/internal/storage"
	"github.com/annel0/taskverse/internal/world"
)

func newSim(t *testing.T) (*game.Simulation, cache.SizeCache) {
	t.Helper()
	ctx := context.Background()
	mt := clock.NewMockTime(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

	planets := storage.NewMemoryPlanetStore()
	require.NoError(t, planets.Save(ctx, "local", []world.Planet{
		{ID: "p1", Kind: world.KindTask, Radius: 60, Priority: 1},
	}))
	sizes := cache.NewMemorySizeCache("local")

	sim := game.New(game.DefaultConfig("local"), game.Deps{Time: mt, Planets: planets, Sizes: sizes})
	require.NoError(t, sim.Start(ctx))

	sim.HandleRemoteUpdate("bob", network.PositionUpdate{X: 10, Y: 20, Timestamp: 1})
	sim.Tick(mt.Now(), physics.Input{})
	return sim, sizes
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestDebugServer_Health(t *testing.T) {
	sim, _ := newSim(t)
	s := NewDebugServer(Config{World: sim})

	w := get(t, s.Handler(), "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, uint64(1), resp.Tick)
	assert.Greater(t, resp.Process.Goroutines, 0)
	assert.NotEmpty(t, w.Header().Get("X-Trace-Id"))
}

func TestDebugServer_World(t *testing.T) {
	sim, _ := newSim(t)
	s := NewDebugServer(Config{World: sim})

	w := get(t, s.Handler(), "/api/world")
	require.Equal(t, http.StatusOK, w.Code)

	var f game.Frame
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &f))
	assert.Equal(t, "local", f.PlayerID)
	require.Len(t, f.Planets, 1)
	assert.Equal(t, "p1", f.Planets[0].ID)
	assert.InDelta(t, 1.1, f.Planets[0].Scale, 1e-9)
	assert.NotNil(t, f.Shots)
}

func TestDebugServer_Players(t *testing.T) {
	sim, _ := newSim(t)
	s := NewDebugServer(Config{World: sim})

	w := get(t, s.Handler(), "/api/players")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Players []game.RemoteView `json:"players"`
		Total   int               `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "bob", list.Players[0].PlayerID)

	w = get(t, s.Handler(), "/api/players/bob")
	require.Equal(t, http.StatusOK, w.Code)
	var p PlayerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "bob", p.PlayerID)
	assert.InDelta(t, 10, p.Render.Pos.X, 1e-9)
	assert.Len(t, p.Snapshots, 1)

	w = get(t, s.Handler(), "/api/players/nobody")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDebugServer_WithoutWorld(t *testing.T) {
	s := NewDebugServer(Config{})
	assert.Equal(t, http.StatusServiceUnavailable, get(t, s.Handler(), "/api/world").Code)
	assert.Equal(t, http.StatusOK, get(t, s.Handler(), "/health").Code)
}

func TestDebugServer_Stats(t *testing.T) {
	sim, sizes := newSim(t)
	bus := eventbus.NewMemoryBus(8)
	t.Cleanup(func() { _ = bus.Close() })

	s := NewDebugServer(Config{World: sim, Bus: bus, Sizes: sizes})
	w := get(t, s.Handler(), "/api/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var st StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	require.NotNil(t, st.Bus)
	require.NotNil(t, st.Cache)
	assert.Equal(t, int64(1), st.Cache.CacheMisses)
}

func TestDebugServer_Metrics(t *testing.T) {
	s := NewDebugServer(Config{})
	get(t, s.Handler(), "/health")

	w := get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "debug_api_http_request_duration_seconds")
}

func TestDebugServer_StartShutdown(t *testing.T) {
	s := NewDebugServer(Config{Port: 0})
	require.NoError(t, s.Start())
	require.NotEmpty(t, s.Addr())

	_, port, err := net.SplitHostPort(s.Addr())
	require.NoError(t, err)
	resp, err := http.Get("http://127.0.0.1:" + port + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, s.Shutdown(context.Background()))
}
