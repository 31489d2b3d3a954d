package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/taskverse/internal/vec"
)

func TestMergePlanets_IncomingWins(t *testing.T) {
	old := []Planet{
		{ID: "a", Pos: vec.New(1, 1)},
		{ID: "b", Pos: vec.New(2, 2)},
	}
	incoming := []Planet{
		{ID: "a", Pos: vec.New(10, 10), Completed: true},
		{ID: "c", Pos: vec.New(3, 3)},
	}

	res := MergePlanets(old, incoming, nil)

	require.Len(t, res.Planets, 2)
	assert.Equal(t, "a", res.Planets[0].ID)
	assert.True(t, res.Planets[0].Completed)
	assert.Equal(t, "c", res.Planets[1].ID)
	assert.Empty(t, res.Stashed)
}

func TestMergePlanets_ProtectedKeepsCurrent(t *testing.T) {
	old := []Planet{
		{ID: "a", Pos: vec.New(1, 1)},
		{ID: "moving", Pos: vec.New(500, 500)},
		{ID: "gone-but-moving", Pos: vec.New(7, 7)},
	}
	incoming := []Planet{
		{ID: "moving", Pos: vec.New(0, 0), Completed: true},
		{ID: "a", Pos: vec.New(1, 1)},
	}
	protected := NewProtectedSet("moving", "gone-but-moving")

	res := MergePlanets(old, incoming, protected)

	byID := map[string]Planet{}
	for _, p := range res.Planets {
		byID[p.ID] = p
	}
	require.Len(t, byID, 3)
	assert.Equal(t, vec.New(500, 500), byID["moving"].Pos)
	assert.False(t, byID["moving"].Completed)
	assert.Contains(t, byID, "gone-but-moving")

	stashed, ok := res.Stashed["moving"]
	require.True(t, ok)
	assert.True(t, stashed.Completed)
}

func TestMergePlanets_DoesNotMutateInputs(t *testing.T) {
	old := []Planet{{ID: "a", Pos: vec.New(1, 1)}}
	incoming := []Planet{{ID: "a", Pos: vec.New(2, 2)}}

	_ = MergePlanets(old, incoming, NewProtectedSet("a"))

	assert.Equal(t, vec.New(1, 1), old[0].Pos)
	assert.Equal(t, vec.New(2, 2), incoming[0].Pos)
}

func TestMergePlanets_DuplicateIncomingIgnored(t *testing.T) {
	incoming := []Planet{{ID: "a", Priority: 1}, {ID: "a", Priority: 2}}
	res := MergePlanets(nil, incoming, nil)
	require.Len(t, res.Planets, 1)
	assert.Equal(t, 1, res.Planets[0].Priority)
}
