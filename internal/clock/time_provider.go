package clock

import (
	"sync"
	"time"
)

// TimeProvider источник текущего времени. Симуляция и сеть получают его при
// конструировании, чтобы тесты могли управлять временем.
type TimeProvider interface {
	Now() time.Time
}

// SystemTime возвращает реальное время с монотонными показаниями
type SystemTime struct{}

// Now возвращает time.Now()
func (SystemTime) Now() time.Time {
	return time.Now()
}

// MockTime управляемый источник времени для тестов
type MockTime struct {
	mu          sync.RWMutex
	currentTime time.Time
}

// NewMockTime создаёт mock с заданным стартовым временем
func NewMockTime(start time.Time) *MockTime {
	return &MockTime{currentTime: start}
}

// Now возвращает текущее mock-время
func (m *MockTime) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentTime
}

// Set устанавливает текущее время
func (m *MockTime) Set(t time.Time) {
	m.mu.Lock()
	m.currentTime = t
	m.mu.Unlock()
}

// Advance сдвигает время на d
func (m *MockTime) Advance(d time.Duration) {
	m.mu.Lock()
	m.currentTime = m.currentTime.Add(d)
	m.mu.Unlock()
}
