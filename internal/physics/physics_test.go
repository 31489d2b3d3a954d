package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/taskverse/internal/vec"
	"github.com/annel0/taskverse/internal/world"
)

func newEngine() *Engine {
	return NewEngine(DefaultParams(), world.NewSpace(10000))
}

func TestStep_ThrustFromRest(t *testing.T) {
	e := newEngine()
	ship := NewShip(vec.New(100, 100), Modifiers{})

	prevSpeed := 0.0
	for i := 0; i < 60; i++ {
		e.Step(ship, Input{Thrust: true}, 1, nil)
		speed := ship.Speed()
		assert.Greater(t, speed, prevSpeed, "tick %d", i)
		assert.LessOrEqual(t, speed, ShipMaxSpeed)
		prevSpeed = speed
	}

	assert.Greater(t, ship.Pos.X, 100.0)
	assert.InDelta(t, 100.0, ship.Pos.Y, 1e-9)
	assert.True(t, ship.Thrusting)
}

func TestStep_FrameRateIndependence(t *testing.T) {
	e := newEngine()
	full := NewShip(vec.New(100, 100), Modifiers{})
	half := NewShip(vec.New(100, 100), Modifiers{})
	full.Rotation, half.Rotation = 0.3, 0.3

	for _, n := range []int{60, 120} {
		for i := 0; i < n; i++ {
			e.Step(full, Input{Thrust: true}, 1, nil)
		}
		for i := 0; i < 2*n; i++ {
			e.Step(half, Input{Thrust: true}, 0.5, nil)
		}
		assert.InDelta(t, full.Pos.X, half.Pos.X, 1.5)
		assert.InDelta(t, full.Pos.Y, half.Pos.Y, 1.5)
		assert.InDelta(t, full.Speed(), half.Speed(), 0.05)
	}
}

func TestStep_RotationFrameRateIndependence(t *testing.T) {
	e := newEngine()
	full := NewShip(vec.New(0, 0), Modifiers{})
	half := NewShip(vec.New(0, 0), Modifiers{})

	for i := 0; i < 30; i++ {
		e.Step(full, Input{Right: true}, 1, nil)
	}
	for i := 0; i < 60; i++ {
		e.Step(half, Input{Right: true}, 0.5, nil)
	}
	assert.InDelta(t, 30*ShipRotationSpeed, full.Rotation, 1e-9)
	assert.InDelta(t, full.Rotation, half.Rotation, 1e-9)
}

func TestStep_FrictionAndBrake(t *testing.T) {
	e := newEngine()
	coast := NewShip(vec.New(0, 0), Modifiers{})
	brake := NewShip(vec.New(0, 0), Modifiers{})
	coast.Vel = vec.New(5, 0)
	brake.Vel = vec.New(5, 0)

	e.Step(coast, Input{}, 1, nil)
	e.Step(brake, Input{Brake: true}, 1, nil)

	assert.InDelta(t, 5*ShipFriction, coast.Vel.X, 1e-9)
	assert.InDelta(t, 5*ShipFriction*ShipBrake, brake.Vel.X, 1e-9)
}

func TestStep_BoostRaisesCap(t *testing.T) {
	e := newEngine()
	ship := NewShip(vec.New(0, 0), Modifiers{})
	ship.Vel = vec.New(ShipMaxSpeed, 0)

	e.Step(ship, Input{Thrust: true, Boost: true}, 1, nil)
	assert.Greater(t, ship.Speed(), ShipMaxSpeed)
	assert.True(t, ship.Boosting)

	for i := 0; i < 600; i++ {
		e.Step(ship, Input{Thrust: true, Boost: true}, 1, nil)
	}
	assert.LessOrEqual(t, ship.Speed(), ShipBoostMaxSpeed+1e-9)

	// Без буста скорость сразу ограничивается обычным пределом
	e.Step(ship, Input{Thrust: true}, 1, nil)
	assert.LessOrEqual(t, ship.Speed(), ShipMaxSpeed+1e-9)
}

func TestStep_SpeedBonus(t *testing.T) {
	e := newEngine()
	ship := NewShip(vec.New(0, 0), Modifiers{SpeedBonus: 5})
	for i := 0; i < 1000; i++ {
		e.Step(ship, Input{Thrust: true}, 1, nil)
	}
	assert.InDelta(t, ShipMaxSpeed*1.5, ship.Speed(), 1e-6)
}

func TestStep_KnockbackSkipsClamp(t *testing.T) {
	e := newEngine()
	ship := NewShip(vec.New(5000, 5000), Modifiers{})
	ship.ApplyKnockback(vec.New(30, 0), 10)

	e.Step(ship, Input{}, 1, nil)
	assert.Greater(t, ship.Speed(), ShipMaxSpeed)
	assert.True(t, ship.InKnockback())

	for i := 0; i < 10; i++ {
		e.Step(ship, Input{}, 1, nil)
	}
	assert.False(t, ship.InKnockback())
	assert.LessOrEqual(t, ship.Speed(), ShipMaxSpeed+1e-9)
}

func TestStep_CollisionPushOutAndReflect(t *testing.T) {
	e := newEngine()
	ship := NewShip(vec.New(940, 1000), Modifiers{})
	ship.Vel = vec.New(8, 0)
	planet := Circle{ID: "p", Pos: vec.New(1000, 1000), Radius: 40}

	res := e.Step(ship, Input{}, 1, []Circle{planet})

	require.Len(t, res.Contacts, 1)
	assert.Equal(t, "p", res.Contacts[0].ID)
	assert.InDelta(t, 940, ship.Pos.X, 1e-9, "вытолкнут на сумму радиусов")
	assert.Less(t, ship.Vel.X, 0.0, "скорость отражена")
	assert.Less(t, math.Abs(ship.Vel.X), 8*ShipFriction)
	assert.True(t, res.FullSpeedHit)

	// Повторный удар в течение секунды не даёт события
	ship.Vel = vec.New(8, 0)
	res = e.Step(ship, Input{}, 1, []Circle{planet})
	require.Len(t, res.Contacts, 1)
	assert.False(t, res.FullSpeedHit)
}

func TestStep_IntangibleIgnored(t *testing.T) {
	e := newEngine()
	ship := NewShip(vec.New(1000, 1000), Modifiers{})
	res := e.Step(ship, Input{}, 1, []Circle{{ID: "dust", Pos: vec.New(1000, 1000), Radius: 50, Intangible: true}})
	assert.Empty(t, res.Contacts)
	assert.Equal(t, vec.New(1000, 1000), ship.Pos)
}

func TestResolveCircle_ZeroDistanceNudge(t *testing.T) {
	space := world.NewSpace(10000)
	pos, vel, c, hit := ResolveCircle(space, vec.New(500, 500), vec.Vec2{}, 20, Circle{Pos: vec.New(500, 500), Radius: 30}, 0.5, 1)

	require.True(t, hit)
	assert.True(t, pos.IsFinite())
	assert.True(t, vel.IsFinite())
	assert.Equal(t, vec.New(1, 0), c.Normal)
	assert.InDelta(t, 550, pos.X, 1e-9)
}

func TestResolveCircle_AcrossEdge(t *testing.T) {
	space := world.NewSpace(10000)
	pos, _, _, hit := ResolveCircle(space, vec.New(5, 100), vec.New(-3, 0), 20, Circle{Pos: vec.New(9990, 100), Radius: 20}, 0.5, 1)

	require.True(t, hit)
	assert.InDelta(t, 30, pos.X, 1e-9)
}

func TestStep_WrapsWithMargin(t *testing.T) {
	e := newEngine()
	ship := NewShip(vec.New(10049, 10), Modifiers{})
	ship.Vel = vec.New(4, 0)
	e.Step(ship, Input{}, 1, nil)
	assert.Less(t, ship.Pos.X, 100.0)
}

func TestSteerToward(t *testing.T) {
	assert.InDelta(t, 0.1, SteerToward(0, 1, 0.1), 1e-12)
	assert.InDelta(t, -0.1, SteerToward(0, -1, 0.1), 1e-12)
	assert.InDelta(t, 0.05, SteerToward(0, 0.05, 0.1), 1e-12)
	// Кратчайшая дуга через ±π: поворот в положительную сторону с переносом угла
	got := SteerToward(math.Pi-0.05, -math.Pi+0.05, 0.2)
	assert.InDelta(t, -math.Pi+0.05, got, 1e-9)
	got = SteerToward(math.Pi-0.05, -math.Pi+0.05, 0.06)
	assert.InDelta(t, -math.Pi+0.01, got, 1e-9)
}

func TestApplyHoming_ConstantSpeedAndTurnLimit(t *testing.T) {
	space := world.NewSpace(10000)
	profile := HomingProfile{Speed: 6, MaxTurn: 0.05}

	vel := ApplyHoming(space, vec.New(0, 0), vec.New(6, 0), vec.New(0, 500), profile, 1)
	assert.InDelta(t, 6, vel.Length(), 1e-9)
	assert.InDelta(t, 0.05, vel.Angle(), 1e-9)
}
