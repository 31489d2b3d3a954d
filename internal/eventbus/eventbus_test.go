package eventbus

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu     sync.Mutex
	events []*Envelope
}

func (c *collector) handle(_ context.Context, ev *Envelope) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

func (c *collector) snapshot() []*Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Envelope(nil), c.events...)
}

func TestMemoryBus_DeliversInOrder(t *testing.T) {
	bus := NewMemoryBus(64)
	defer bus.Close()

	var got collector
	_, err := bus.Subscribe(context.Background(), Filter{}, got.handle)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		env, err := NewEnvelope("alice", Horn{Variant: i})
		require.NoError(t, err)
		require.NoError(t, bus.Publish(context.Background(), env))
	}

	require.Eventually(t, func() bool { return len(got.snapshot()) == 20 }, time.Second, 5*time.Millisecond)
	for i, env := range got.snapshot() {
		ev, err := DecodeEnvelope(env)
		require.NoError(t, err)
		assert.Equal(t, Horn{Variant: i}, ev)
	}
	assert.Equal(t, uint64(20), bus.Metrics().Published)
}

func TestMemoryBus_Filters(t *testing.T) {
	bus := NewMemoryBus(16)
	defer bus.Close()

	var fires, remote collector
	_, err := bus.Subscribe(context.Background(), Filter{Types: []string{TypeWeaponFire}}, fires.handle)
	require.NoError(t, err)
	_, err = bus.Subscribe(context.Background(), Filter{ExcludeSources: []string{"me"}}, remote.handle)
	require.NoError(t, err)

	mine, _ := NewEnvelope("me", WeaponFire{Weapon: "rifle"})
	theirs, _ := NewEnvelope("bob", Emote{Name: "wave"})
	require.NoError(t, bus.Publish(context.Background(), mine))
	require.NoError(t, bus.Publish(context.Background(), theirs))

	require.Eventually(t, func() bool {
		return len(fires.snapshot()) == 1 && len(remote.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, TypeWeaponFire, fires.snapshot()[0].EventType)
	assert.Equal(t, "bob", remote.snapshot()[0].Source)
}

func TestMemoryBus_UnsubscribeAndClose(t *testing.T) {
	bus := NewMemoryBus(4)

	var got collector
	sub, err := bus.Subscribe(context.Background(), Filter{}, got.handle)
	require.NoError(t, err)
	sub.Unsubscribe()

	env, _ := NewEnvelope("a", Horn{})
	require.NoError(t, bus.Publish(context.Background(), env))
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, got.snapshot())

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())
	assert.True(t, errors.Is(bus.Publish(context.Background(), env), ErrBusClosed))
	_, err = bus.Subscribe(context.Background(), Filter{}, got.handle)
	assert.True(t, errors.Is(err, ErrBusClosed))
}

func TestGameEvents_EncodeDecode(t *testing.T) {
	events := []GameEvent{
		WeaponFire{Weapon: "rocket", X: 1, Y: 2, VX: 3, VY: 4, Rotation: 0.5, TargetID: "boss"},
		EntityDestroy{EntityID: "ast-1-2", Variant: "asteroid"},
		SendStart{PlanetID: "task-7", X: 10, Y: 20},
		SendTarget{PlanetID: "task-7", X: 900, Y: 40},
		Emote{Name: "wave"},
	}
	for _, ev := range events {
		data, err := Encode(ev)
		require.NoError(t, err)
		back, err := Decode(ev.EventType(), data)
		require.NoError(t, err)
		assert.Equal(t, ev, back)
	}

	_, err := Decode("Teleport", nil)
	assert.True(t, errors.Is(err, ErrUnknownEvent))

	_, err = Decode(TypeEmote, []byte{0xc1})
	assert.Error(t, err)
}

func TestNewEnvelope_Priority(t *testing.T) {
	destroy, err := NewEnvelope("a", EntityDestroy{EntityID: "x"})
	require.NoError(t, err)
	horn, err := NewEnvelope("a", Horn{})
	require.NoError(t, err)

	assert.NotEqual(t, destroy.ID, horn.ID)
	assert.GreaterOrEqual(t, destroy.Priority, 5)
	assert.Less(t, horn.Priority, 5)
}

func TestMetricsExporter_CollectsDeltas(t *testing.T) {
	bus := NewMemoryBus(8)
	defer bus.Close()
	exp := NewMetricsExporter(bus, "unit-test")

	env, _ := NewEnvelope("a", Horn{})
	require.NoError(t, bus.Publish(context.Background(), env))
	require.NoError(t, bus.Publish(context.Background(), env))

	exp.Collect()
	exp.Collect()
	assert.Equal(t, 2.0, testutil.ToFloat64(busPublished.WithLabelValues("unit-test")))
}

func TestJetStreamBus_RoundTrip(t *testing.T) {
	url := os.Getenv("GAME_NATS_URL")
	if url == "" {
		t.Skip("GAME_NATS_URL не задан")
	}

	bus, err := NewJetStreamBus(url, "TASKVERSE_TEST", time.Minute)
	require.NoError(t, err)
	defer bus.Close()

	var got collector
	sub, err := bus.Subscribe(context.Background(), Filter{Types: []string{TypeEmote}, ExcludeSources: []string{"me"}}, got.handle)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	mine, _ := NewEnvelope("me", Emote{Name: "skip"})
	theirs, _ := NewEnvelope("bob", Emote{Name: "wave"})
	require.NoError(t, bus.Publish(context.Background(), mine))
	require.NoError(t, bus.Publish(context.Background(), theirs))

	require.Eventually(t, func() bool { return len(got.snapshot()) == 1 }, 3*time.Second, 10*time.Millisecond)
	ev, err := DecodeEnvelope(got.snapshot()[0])
	require.NoError(t, err)
	assert.Equal(t, Emote{Name: "wave"}, ev)
}

func TestDescribeEnvelope(t *testing.T) {
	cases := []struct {
		ev   GameEvent
		want string
	}{
		{WeaponFire{Weapon: "rocket", X: 10, Y: 20, TargetID: "boss"}, "rocket из (10, 20) по boss"},
		{WeaponFire{Weapon: "plasma", X: 1, Y: 2}, "plasma из (1, 2)"},
		{EntityDestroy{EntityID: "ast-1", Variant: "nuke"}, "уничтожен ast-1 [nuke]"},
		{SendStart{PlanetID: "p1", X: 5, Y: 6}, "толкает p1 из (5, 6)"},
		{SendTarget{PlanetID: "p1", X: 7, Y: 8}, "цель p1: (7, 8)"},
		{Emote{Name: "wave"}, "эмоция wave"},
		{Horn{Variant: 2}, "гудок #2"},
	}
	for _, tc := range cases {
		t.Run(tc.ev.EventType(), func(t *testing.T) {
			env, err := NewEnvelope("alice", tc.ev)
			require.NoError(t, err)
			assert.Equal(t, tc.want, describeEnvelope(env))
		})
	}

	broken := &Envelope{EventType: "Teleport", Payload: []byte{1, 2}}
	assert.Contains(t, describeEnvelope(broken), "нечитаемое событие (2B)")
}

func TestStartLoggingListener_Subscribes(t *testing.T) {
	bus := NewMemoryBus(8)
	defer bus.Close()

	sub, err := StartLoggingListener(bus, nil)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	env, err := NewEnvelope("alice", Horn{})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), env))
	require.Eventually(t, func() bool { return bus.Metrics().Consumed == 1 }, time.Second, 5*time.Millisecond)
}
