package network

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotBuffer_EvictsOldestBeyondCapacity(t *testing.T) {
	buf := NewSnapshotBuffer(DefaultSnapshotCapacity)
	base := time.Unix(1000, 0)

	evictions := 0
	for i := 0; i < 45; i++ {
		if buf.Push(Snapshot{PositionUpdate: PositionUpdate{X: float64(i)}, ReceivedAt: base.Add(time.Duration(i) * time.Millisecond)}) {
			evictions++
		}
	}

	assert.Equal(t, 30, buf.Len())
	assert.Equal(t, 15, evictions)

	oldest, ok := buf.Oldest()
	require.True(t, ok)
	assert.Equal(t, 15.0, oldest.X)

	latest, ok := buf.Latest()
	require.True(t, ok)
	assert.Equal(t, 44.0, latest.X)
}

func TestSnapshotBuffer_Bracket(t *testing.T) {
	buf := NewSnapshotBuffer(10)
	base := time.Unix(0, 0)
	for i := 0; i < 3; i++ {
		buf.Push(Snapshot{PositionUpdate: PositionUpdate{X: float64(i)}, ReceivedAt: base.Add(time.Duration(i) * 50 * time.Millisecond)})
	}

	before, after, hb, ha := buf.Bracket(base.Add(70 * time.Millisecond))
	require.True(t, hb)
	require.True(t, ha)
	assert.Equal(t, 1.0, before.X)
	assert.Equal(t, 2.0, after.X)

	before, _, hb, ha = buf.Bracket(base.Add(time.Second))
	assert.True(t, hb)
	assert.False(t, ha)
	assert.Equal(t, 2.0, before.X)

	_, after, hb, ha = buf.Bracket(base.Add(-time.Second))
	assert.False(t, hb)
	assert.True(t, ha)
	assert.Equal(t, 0.0, after.X)
}

func TestInbox_DropsOldestWhenFull(t *testing.T) {
	in := NewInbox[int](3)
	for i := 0; i < 5; i++ {
		in.Put(i)
	}
	assert.Equal(t, []int{2, 3, 4}, in.Drain())
	assert.Equal(t, uint64(2), in.Dropped())
	assert.Nil(t, in.Drain())
}
