package world

import (
	"fmt"
	"math"
	"sync"

	"github.com/annel0/taskverse/internal/vec"
)

// SpatialIndex пространственная сетка для быстрого поиска объектов на торе.
// Ячейки нумеруются по модулю числа ячеек на сторону, поэтому запрос у края
// мира находит объекты с противоположной стороны.
type SpatialIndex struct {
	space    Space
	cellSize float64
	perSide  int

	mu       sync.RWMutex
	cells    map[cellKey]map[string]*indexedEntry
	entities map[string]*indexedEntry
}

// cellKey представляет ключ ячейки в пространственной сетке
type cellKey struct {
	x, y int
}

// indexedEntry представляет индексированный объект
type indexedEntry struct {
	id     string
	pos    vec.Vec2
	radius float64
	cells  []cellKey
}

// NewSpatialIndex создаёт новый пространственный индекс
func NewSpatialIndex(space Space, cellSize float64) *SpatialIndex {
	if cellSize <= 0 {
		cellSize = 500.0
	}
	perSide := int(math.Ceil(space.Size / cellSize))
	if perSide < 1 {
		perSide = 1
	}

	return &SpatialIndex{
		space:    space,
		cellSize: cellSize,
		perSide:  perSide,
		cells:    make(map[cellKey]map[string]*indexedEntry),
		entities: make(map[string]*indexedEntry),
	}
}

// Insert добавляет объект в индекс или обновляет его позицию
func (si *SpatialIndex) Insert(id string, pos vec.Vec2, radius float64) {
	si.mu.Lock()
	defer si.mu.Unlock()

	if old, exists := si.entities[id]; exists {
		si.unlinkLocked(old)
	}

	entry := &indexedEntry{
		id:     id,
		pos:    si.space.WrapIntoBounds(pos),
		radius: radius,
	}
	entry.cells = si.cellsAround(entry.pos, radius)

	for _, key := range entry.cells {
		cell, ok := si.cells[key]
		if !ok {
			cell = make(map[string]*indexedEntry)
			si.cells[key] = cell
		}
		cell[id] = entry
	}
	si.entities[id] = entry
}

// Update обновляет позицию объекта в индексе
func (si *SpatialIndex) Update(id string, pos vec.Vec2, radius float64) {
	si.Insert(id, pos, radius)
}

// Remove удаляет объект из индекса
func (si *SpatialIndex) Remove(id string) {
	si.mu.Lock()
	defer si.mu.Unlock()

	entry, exists := si.entities[id]
	if !exists {
		return
	}
	si.unlinkLocked(entry)
	delete(si.entities, id)
}

// Clear удаляет все объекты
func (si *SpatialIndex) Clear() {
	si.mu.Lock()
	si.cells = make(map[cellKey]map[string]*indexedEntry)
	si.entities = make(map[string]*indexedEntry)
	si.mu.Unlock()
}

// QueryRange возвращает идентификаторы объектов, чей круг пересекает круг (center, radius)
func (si *SpatialIndex) QueryRange(center vec.Vec2, radius float64) []string {
	si.mu.RLock()
	defer si.mu.RUnlock()

	center = si.space.WrapIntoBounds(center)
	seen := make(map[string]struct{})
	result := make([]string, 0)

	for _, key := range si.cellsAround(center, radius) {
		cell, ok := si.cells[key]
		if !ok {
			continue
		}
		for id, entry := range cell {
			if _, wasSeen := seen[id]; wasSeen {
				continue
			}
			seen[id] = struct{}{}
			if si.space.Distance(center, entry.pos) <= radius+entry.radius {
				result = append(result, id)
			}
		}
	}

	return result
}

// GetCellCount возвращает количество активных ячеек
func (si *SpatialIndex) GetCellCount() int {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return len(si.cells)
}

// GetEntityCount возвращает количество индексированных объектов
func (si *SpatialIndex) GetEntityCount() int {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return len(si.entities)
}

// GetStats возвращает статистику индекса
func (si *SpatialIndex) GetStats() string {
	si.mu.RLock()
	defer si.mu.RUnlock()

	total, maxPerCell := 0, 0
	for _, cell := range si.cells {
		total += len(cell)
		if len(cell) > maxPerCell {
			maxPerCell = len(cell)
		}
	}

	avg := 0.0
	if len(si.cells) > 0 {
		avg = float64(total) / float64(len(si.cells))
	}

	return fmt.Sprintf("SpatialIndex Stats: %d entities, %d cells, avg %.2f entities/cell, max %d entities/cell",
		len(si.entities), len(si.cells), avg, maxPerCell)
}

// Вспомогательные методы

func (si *SpatialIndex) unlinkLocked(entry *indexedEntry) {
	for _, key := range entry.cells {
		if cell, ok := si.cells[key]; ok {
			delete(cell, entry.id)
			if len(cell) == 0 {
				delete(si.cells, key)
			}
		}
	}
}

// cellsAround возвращает ключи ячеек, пересекающихся с квадратом вокруг круга, с учётом склейки
func (si *SpatialIndex) cellsAround(center vec.Vec2, radius float64) []cellKey {
	minX := int(math.Floor((center.X - radius) / si.cellSize))
	maxX := int(math.Floor((center.X + radius) / si.cellSize))
	minY := int(math.Floor((center.Y - radius) / si.cellSize))
	maxY := int(math.Floor((center.Y + radius) / si.cellSize))

	// Круг больше мира - достаточно всех ячеек
	if maxX-minX+1 > si.perSide {
		minX, maxX = 0, si.perSide-1
	}
	if maxY-minY+1 > si.perSide {
		minY, maxY = 0, si.perSide-1
	}

	seen := make(map[cellKey]struct{})
	cells := make([]cellKey, 0, (maxX-minX+1)*(maxY-minY+1))
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			key := cellKey{x: mod(x, si.perSide), y: mod(y, si.perSide)}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			cells = append(cells, key)
		}
	}
	return cells
}

func mod(a, n int) int {
	a %= n
	if a < 0 {
		a += n
	}
	return a
}
