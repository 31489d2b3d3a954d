package entity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/annel0/taskverse/internal/vec"
	"github.com/annel0/taskverse/internal/world"
)

func TestParametricNPC_Deterministic(t *testing.T) {
	space := world.NewSpace(10000)
	a := NewParametricNPC("m1", NPCMerchant, vec.New(5000, 5000), 7, space)
	b := NewParametricNPC("m1", NPCMerchant, vec.New(5000, 5000), 7, space)

	for _, ts := range []float64{0, 1.5, 1234.25, 1.7e9} {
		assert.Equal(t, a.Evaluate(ts), b.Evaluate(ts))
	}

	// Повторный вызов не зависит от истории
	first := a.Evaluate(42)
	a.Update(10, 1)
	a.Update(50, 1)
	assert.Equal(t, first, a.Evaluate(42))
}

func TestParametricNPC_VelocityMatchesFiniteDifference(t *testing.T) {
	space := world.NewSpace(10000)
	for _, kind := range []NPCKind{NPCMerchant, NPCCreature} {
		n := NewParametricNPC("n", kind, vec.New(0, 0), 3, space)
		const h = 1e-3
		for _, ts := range []float64{0, 10, 333.3} {
			p0 := n.Path.Position(ts - h)
			p1 := n.Path.Position(ts + h)
			fd := p1.Sub(p0).Mul(1 / (2 * h))
			v := n.Evaluate(ts).Vel
			assert.InDelta(t, fd.X, v.X, 1e-3, "kind=%s t=%v", kind, ts)
			assert.InDelta(t, fd.Y, v.Y, 1e-3, "kind=%s t=%v", kind, ts)
		}
	}
}

func TestParametricNPC_PositionWrapped(t *testing.T) {
	space := world.NewSpace(10000)
	n := NewParametricNPC("c", NPCCreature, vec.New(9990, 10), 11, space)
	for i := 0; i < 200; i++ {
		s := n.Evaluate(float64(i) * 3.7)
		assert.True(t, s.Pos.X >= 0 && s.Pos.X < space.Size)
		assert.True(t, s.Pos.Y >= 0 && s.Pos.Y < space.Size)
	}
}

func TestParametricNPC_HeadingSmoothing(t *testing.T) {
	space := world.NewSpace(10000)
	n := NewParametricNPC("m", NPCMerchant, vec.New(5000, 5000), 5, space)

	n.Update(100, 1)
	assert.InDelta(t, n.Evaluate(100).Heading, n.Heading, 1e-12, "первый кадр берёт курс сразу")

	// Курс меняется плавно: шаг не больше доли от оставшегося угла
	prev := n.Heading
	n.Update(100+1.0/60, 1)
	target := n.Evaluate(100 + 1.0/60).Heading
	step := math.Abs(vec.AngleDiff(prev, n.Heading))
	assert.LessOrEqual(t, step, math.Abs(vec.AngleDiff(prev, target))+1e-12)
	assert.True(t, n.Heading >= -math.Pi && n.Heading <= math.Pi)
}

func TestParametricNPC_OpacityCycle(t *testing.T) {
	space := world.NewSpace(10000)
	c := NewParametricNPC("c", NPCCreature, vec.New(0, 0), 9, space)

	minOp, maxOp := 1.0, 0.0
	for i := 0; i < 500; i++ {
		op := c.Evaluate(float64(i) * 0.2).Opacity
		minOp = math.Min(minOp, op)
		maxOp = math.Max(maxOp, op)
	}
	assert.Less(t, minOp, 0.05)
	assert.Greater(t, maxOp, 0.95)

	m := NewParametricNPC("m", NPCMerchant, vec.New(0, 0), 9, space)
	assert.Equal(t, 1.0, m.Evaluate(123).Opacity)
}
