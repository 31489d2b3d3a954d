package network

import (
	"time"

	"github.com/annel0/taskverse/internal/vec"
)

// DefaultSnapshotCapacity размер буфера снимков на одного удалённого игрока
const DefaultSnapshotCapacity = 30

// PositionUpdate состояние корабля, которое клиент рассылает остальным.
// Скорости в px за тик 60 Гц, Timestamp - время отправителя в миллисекундах.
type PositionUpdate struct {
	X         float64
	Y         float64
	VX        float64
	VY        float64
	Rotation  float64
	Thrusting bool
	Boosting  bool
	Timestamp int64
}

// Pos позиция обновления
func (u PositionUpdate) Pos() vec.Vec2 {
	return vec.Vec2{X: u.X, Y: u.Y}
}

// Vel скорость обновления
func (u PositionUpdate) Vel() vec.Vec2 {
	return vec.Vec2{X: u.VX, Y: u.VY}
}

// Snapshot неизменяемый снимок: обновление плюс локальное время получения
type Snapshot struct {
	PositionUpdate
	ReceivedAt time.Time
}

// SnapshotBuffer FIFO снимков одного игрока в порядке получения.
// При переполнении вытесняется самый старый снимок.
type SnapshotBuffer struct {
	capacity  int
	snapshots []Snapshot
}

// NewSnapshotBuffer создаёт буфер заданной ёмкости
func NewSnapshotBuffer(capacity int) *SnapshotBuffer {
	if capacity < 2 {
		capacity = DefaultSnapshotCapacity
	}
	return &SnapshotBuffer{
		capacity:  capacity,
		snapshots: make([]Snapshot, 0, capacity),
	}
}

// Push добавляет снимок; возвращает true, если был вытеснен старый
func (b *SnapshotBuffer) Push(s Snapshot) bool {
	evicted := false
	if len(b.snapshots) >= b.capacity {
		// Удаляем старый снимок
		b.snapshots = append(b.snapshots[:0], b.snapshots[1:]...)
		evicted = true
	}
	b.snapshots = append(b.snapshots, s)
	return evicted
}

// Latest возвращает последний полученный снимок
func (b *SnapshotBuffer) Latest() (Snapshot, bool) {
	if len(b.snapshots) == 0 {
		return Snapshot{}, false
	}
	return b.snapshots[len(b.snapshots)-1], true
}

// Oldest возвращает самый старый снимок в буфере
func (b *SnapshotBuffer) Oldest() (Snapshot, bool) {
	if len(b.snapshots) == 0 {
		return Snapshot{}, false
	}
	return b.snapshots[0], true
}

// Len количество снимков
func (b *SnapshotBuffer) Len() int {
	return len(b.snapshots)
}

// Capacity ёмкость буфера
func (b *SnapshotBuffer) Capacity() int {
	return b.capacity
}

// Snapshots возвращает копию содержимого от старых к новым
func (b *SnapshotBuffer) Snapshots() []Snapshot {
	out := make([]Snapshot, len(b.snapshots))
	copy(out, b.snapshots)
	return out
}

// Bracket находит пару снимков вокруг момента t по времени получения:
// before - последний с ReceivedAt <= t, after - первый с ReceivedAt > t.
// hasBefore/hasAfter сообщают, найдены ли соответствующие снимки.
func (b *SnapshotBuffer) Bracket(t time.Time) (before, after Snapshot, hasBefore, hasAfter bool) {
	for i := len(b.snapshots) - 1; i >= 0; i-- {
		s := b.snapshots[i]
		if !s.ReceivedAt.After(t) {
			before, hasBefore = s, true
			if i+1 < len(b.snapshots) {
				after, hasAfter = b.snapshots[i+1], true
			}
			return
		}
	}
	if len(b.snapshots) > 0 {
		after, hasAfter = b.snapshots[0], true
	}
	return
}
