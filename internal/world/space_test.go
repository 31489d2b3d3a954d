package world

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/annel0/taskverse/internal/vec"
)

func TestWrappedDelta_ShortestPath(t *testing.T) {
	s := NewSpace(10000)

	tests := []struct {
		name   string
		a, b   vec.Vec2
		dx, dy float64
	}{
		{"прямо", vec.New(100, 100), vec.New(200, 150), 100, 50},
		{"через правый край", vec.New(9990, 0), vec.New(10, 0), 20, 0},
		{"через левый край", vec.New(10, 0), vec.New(9990, 0), -20, 0},
		{"через верх и низ", vec.New(0, 50), vec.New(0, 9950), 0, -100},
		{"вне границ", vec.New(-30, 0), vec.New(10020, 0), 50, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dx, dy, dist := s.WrappedDelta(tt.a, tt.b)
			assert.InDelta(t, tt.dx, dx, 1e-9)
			assert.InDelta(t, tt.dy, dy, 1e-9)
			assert.InDelta(t, vec.New(tt.dx, tt.dy).Length(), dist, 1e-9)
		})
	}
}

func TestUnwrapRelativeTo(t *testing.T) {
	s := NewSpace(10000)

	p := s.UnwrapRelativeTo(vec.New(9990, 5000), vec.New(10, 5000))
	assert.InDelta(t, 10010, p.X, 1e-9)
	assert.InDelta(t, 5000, p.Y, 1e-9)

	p = s.UnwrapRelativeTo(vec.New(5, 5), vec.New(9995, 9995))
	assert.InDelta(t, -5, p.X, 1e-9)
	assert.InDelta(t, -5, p.Y, 1e-9)
}

func TestWrapIntoBounds(t *testing.T) {
	s := NewSpace(10000)

	assert.Equal(t, vec.New(10, 9990), s.WrapIntoBounds(vec.New(10010, -10)))
	assert.Equal(t, vec.New(0, 0), s.WrapIntoBounds(vec.New(10000, 20000)))

	p := s.WrapIntoBounds(vec.New(-1e-13, 5))
	assert.GreaterOrEqual(t, p.X, 0.0)
	assert.Less(t, p.X, 10000.0)
}

func TestWrapWithMargin(t *testing.T) {
	s := NewSpace(10000)

	// В пределах отступа переноса нет
	assert.Equal(t, vec.New(-40, 10040), s.WrapWithMargin(vec.New(-40, 10040), 50))

	p := s.WrapWithMargin(vec.New(-51, 10051), 50)
	assert.InDelta(t, 9949, p.X, 1e-9)
	assert.InDelta(t, 51, p.Y, 1e-9)

	// Телепорт далеко за пределы нормализуется полностью
	p = s.WrapWithMargin(vec.New(35000, 0), 50)
	assert.InDelta(t, 5000, p.X, 1e-9)
}

// Перенос через край не меняет тороидальное расстояние до соседней точки
func TestWrapContinuity(t *testing.T) {
	s := NewSpace(10000)
	other := vec.New(9900, 5000)

	before := vec.New(9999.5, 5000)
	after := s.WrapIntoBounds(vec.New(10000.5, 5000))

	assert.InDelta(t, 0.5, after.X, 1e-9)
	assert.InDelta(t, 1.0, s.Distance(before, after), 1e-9)
	assert.InDelta(t, s.Distance(other, before)+1, s.Distance(other, after), 1e-9)
}

func TestZones_Nearest(t *testing.T) {
	s := NewSpace(10000)
	zones := Zones{
		{ID: "home", Center: vec.New(100, 100), Type: ZoneHome, OwnerID: "u1", Radius: 1000},
		{ID: "far", Center: vec.New(5000, 5000), Radius: 1000},
		{ID: "hole", Center: vec.New(9900, 100), Type: ZoneBlackHole, Radius: 500},
	}

	z, d, ok := zones.Nearest(s, vec.New(9950, 100))
	assert.True(t, ok)
	assert.Equal(t, "hole", z.ID)
	assert.InDelta(t, 50, d, 1e-9)

	_, _, ok = zones.Nearest(s, vec.New(2500, 2500))
	assert.False(t, ok)

	home, ok := zones.HomeOf("u1")
	assert.True(t, ok)
	assert.Equal(t, "home", home.ID)

	_, inside := zones.InsideBlackHole(s, vec.New(9990, 100))
	assert.True(t, inside)
	_, inside = zones.InsideBlackHole(s, vec.New(9500, 100))
	assert.False(t, inside)
}

func TestParseZoneType(t *testing.T) {
	for _, zt := range []ZoneType{ZoneNeutral, ZoneHome, ZonePlayer, ZoneBlackHole} {
		assert.Equal(t, zt, ParseZoneType(zt.String()))
	}
}
