package network

import "sync"

// Inbox потокобезопасная очередь между сетевыми горутинами и тиком симуляции.
// Сеть только добавляет, тик забирает всё разом. При переполнении вытесняются
// самые старые элементы.
type Inbox[T any] struct {
	mu       sync.Mutex
	items    []T
	capacity int
	dropped  uint64
}

// NewInbox создаёт очередь заданной ёмкости
func NewInbox[T any](capacity int) *Inbox[T] {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Inbox[T]{capacity: capacity}
}

// Put добавляет элемент; возвращает false, если пришлось вытеснить старый
func (in *Inbox[T]) Put(item T) bool {
	in.mu.Lock()
	defer in.mu.Unlock()

	ok := true
	if len(in.items) >= in.capacity {
		in.items = in.items[1:]
		in.dropped++
		ok = false
	}
	in.items = append(in.items, item)
	return ok
}

// Drain забирает все накопленные элементы в порядке поступления
func (in *Inbox[T]) Drain() []T {
	in.mu.Lock()
	defer in.mu.Unlock()

	if len(in.items) == 0 {
		return nil
	}
	out := in.items
	in.items = make([]T, 0, len(out))
	return out
}

// Len количество ожидающих элементов
func (in *Inbox[T]) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.items)
}

// Dropped сколько элементов было вытеснено
func (in *Inbox[T]) Dropped() uint64 {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.dropped
}
