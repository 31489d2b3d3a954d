package cache

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/taskverse/internal/clock"
)

// fakeInvalidator запоминает публикации и позволяет имитировать чужие уведомления
type fakeInvalidator struct {
	mu        sync.Mutex
	published []string
	handler   InvalidationHandler
	closed    bool
}

func (f *fakeInvalidator) PublishInvalidation(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, key)
	return nil
}

func (f *fakeInvalidator) SubscribeInvalidations(_ context.Context, h InvalidationHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = h
	return nil
}

func (f *fakeInvalidator) Close() error {
	f.closed = true
	return nil
}

func TestMemorySizeCache_Lifecycle(t *testing.T) {
	ctx := context.Background()
	c := NewMemorySizeCache("user-1")

	_, err := c.Get(ctx, "p1")
	assert.ErrorIs(t, err, ErrNotInitialized)

	require.NoError(t, c.Init(ctx))
	assert.ErrorIs(t, c.Init(ctx), ErrAlreadyInit)

	_, err = c.Get(ctx, "p1")
	assert.True(t, IsCacheMiss(err))

	require.NoError(t, c.Set(ctx, "p1", 1.5))
	scale, err := c.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1.5, scale)

	m := c.GetMetrics()
	assert.Equal(t, int64(1), m.CacheHits)
	assert.Equal(t, int64(1), m.CacheMisses)
	assert.Equal(t, 0.5, m.HitRatio)
	assert.Equal(t, int64(1), m.TotalKeys)

	require.NoError(t, c.Teardown(ctx))
	_, err = c.Get(ctx, "p1")
	assert.ErrorIs(t, err, ErrNotInitialized)

	// После Teardown кеш можно поднять заново, уже пустым
	require.NoError(t, c.Init(ctx))
	_, err = c.Get(ctx, "p1")
	assert.True(t, IsCacheMiss(err))
}

func TestMemorySizeCache_RejectsInvalidScale(t *testing.T) {
	ctx := context.Background()
	c := NewMemorySizeCache("u")
	require.NoError(t, c.Init(ctx))

	for _, bad := range []float64{0, -1} {
		assert.ErrorIs(t, c.Set(ctx, "p", bad), ErrInvalidScale)
	}
}

func TestMemorySizeCache_Invalidation(t *testing.T) {
	ctx := context.Background()
	inv := &fakeInvalidator{}
	c := NewMemorySizeCache("user-1").WithInvalidator(inv)
	require.NoError(t, c.Init(ctx))

	require.NoError(t, c.Set(ctx, "p1", 2))
	require.NoError(t, c.Set(ctx, "p2", 3))

	require.NoError(t, c.Invalidate(ctx, "p1"))
	assert.Equal(t, []string{"user-1:p1"}, inv.published)
	_, err := c.Get(ctx, "p1")
	assert.True(t, IsCacheMiss(err))

	// Уведомление от другого узла с полным ключом
	require.NotNil(t, inv.handler)
	require.NoError(t, inv.handler("taskverse:size:user-1:p2"))
	_, err = c.Get(ctx, "p2")
	assert.True(t, IsCacheMiss(err))
}

func TestPlanetFromKey(t *testing.T) {
	assert.Equal(t, "p:9", planetFromKey("u", "prefix:u:p:9"))
	assert.Equal(t, "plain", planetFromKey("u", "plain"))
}

func TestNewSizeCache_PicksBackend(t *testing.T) {
	_, isMem := NewSizeCache(RedisConfig{}, "u", nil).(*MemorySizeCache)
	assert.True(t, isMem)
	_, isRedis := NewSizeCache(RedisConfig{Addr: "127.0.0.1:1"}, "u", nil).(*RedisSizeCache)
	assert.True(t, isRedis)
}

func TestRedisSizeCache_Roundtrip(t *testing.T) {
	addr := os.Getenv("GAME_REDIS_ADDR")
	if addr == "" {
		t.Skip("GAME_REDIS_ADDR не задан")
	}
	ctx := context.Background()
	cfg := DefaultRedisConfig()
	cfg.Addr = addr
	cfg.TTL = time.Minute
	userID := "test-" + time.Now().Format("150405.000000")

	c := NewRedisSizeCache(cfg, userID, nil)
	require.NoError(t, c.Init(ctx))

	_, err := c.Get(ctx, "p1")
	assert.True(t, IsCacheMiss(err))

	require.NoError(t, c.Set(ctx, "p1", 1.25))
	scale, err := c.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1.25, scale)

	require.NoError(t, c.Invalidate(ctx, "p1"))
	_, err = c.Get(ctx, "p1")
	assert.True(t, IsCacheMiss(err))

	require.NoError(t, c.Set(ctx, "p2", 2))
	require.NoError(t, c.Teardown(ctx))

	// Teardown удалил ключи пользователя
	c2 := NewRedisSizeCache(cfg, userID, nil)
	require.NoError(t, c2.Init(ctx))
	defer c2.Teardown(ctx)
	_, err = c2.Get(ctx, "p2")
	assert.True(t, IsCacheMiss(err))
}

func TestDedupeSet_Window(t *testing.T) {
	mt := clock.NewMockTime(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	d := newDedupeSet(5*time.Second, mt)

	assert.True(t, d.mark("u:p1"))
	assert.False(t, d.mark("u:p1"))
	assert.True(t, d.mark("u:p2"))

	mt.Advance(5 * time.Second)
	assert.Equal(t, 2, d.prune())
	assert.True(t, d.mark("u:p1"))
}

func TestNATSInvalidator_SkipsOwnMessages(t *testing.T) {
	url := os.Getenv("GAME_NATS_URL")
	if url == "" {
		t.Skip("GAME_NATS_URL не задан")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := NewNATSInvalidator(InvalidatorConfig{NATSURL: url, Subject: "taskverse.test.size"}, "a")
	require.NoError(t, err)
	defer a.Close()
	b, err := NewNATSInvalidator(InvalidatorConfig{NATSURL: url, Subject: "taskverse.test.size"}, "b")
	require.NoError(t, err)
	defer b.Close()

	got := make(chan string, 4)
	require.NoError(t, a.SubscribeInvalidations(ctx, func(key string) error { got <- "a:" + key; return nil }))
	require.NoError(t, b.SubscribeInvalidations(ctx, func(key string) error { got <- "b:" + key; return nil }))

	require.NoError(t, a.PublishInvalidation(ctx, "k1"))

	select {
	case msg := <-got:
		assert.Equal(t, "b:k1", msg)
	case <-time.After(2 * time.Second):
		t.Fatal("уведомление не доставлено")
	}
	select {
	case msg := <-got:
		t.Fatalf("лишнее уведомление %s", msg)
	case <-time.After(200 * time.Millisecond):
	}
}
