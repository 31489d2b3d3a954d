package world

import (
	"sort"
	"sync"

	"github.com/annel0/taskverse/internal/vec"
)

// Registry хранит живые объекты мира, множество защищённых идентификаторов и
// отложенные внешние данные для них. Мутации выполняет только тик симуляции,
// чтение безопасно из других горутин (debug API).
type Registry struct {
	space Space

	mu        sync.RWMutex
	planets   map[string]*Planet
	protected ProtectedSet
	stash     map[string]Planet
	index     *SpatialIndex
}

// NewRegistry создаёт пустой реестр
func NewRegistry(space Space) *Registry {
	return &Registry{
		space:     space,
		planets:   make(map[string]*Planet),
		protected: make(ProtectedSet),
		stash:     make(map[string]Planet),
		index:     NewSpatialIndex(space, 500),
	}
}

// Space возвращает пространство реестра
func (r *Registry) Space() Space {
	return r.space
}

// Upsert добавляет или заменяет объект
func (r *Registry) Upsert(p Planet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upsertLocked(p)
}

func (r *Registry) upsertLocked(p Planet) {
	cp := p
	r.planets[p.ID] = &cp
	r.index.Insert(p.ID, p.Pos, p.Radius)
}

// Get возвращает копию объекта
func (r *Registry) Get(id string) (Planet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.planets[id]
	if !ok {
		return Planet{}, false
	}
	return *p, true
}

// Mutate применяет fn к объекту на месте; возвращает false, если объекта нет
func (r *Registry) Mutate(id string, fn func(p *Planet)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.planets[id]
	if !ok {
		return false
	}
	fn(p)
	r.index.Insert(p.ID, p.Pos, p.Radius)
	return true
}

// SetPosition перемещает объект (используется анимациями)
func (r *Registry) SetPosition(id string, pos vec.Vec2) bool {
	return r.Mutate(id, func(p *Planet) { p.Pos = pos })
}

// Remove удаляет объект вместе с защитой и отложенными данными
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.planets, id)
	delete(r.stash, id)
	r.protected.Delete(id)
	r.index.Remove(id)
}

// All возвращает копии всех объектов, отсортированные по идентификатору
func (r *Registry) All() []Planet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Planet, 0, len(r.planets))
	for _, p := range r.planets {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len количество объектов
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.planets)
}

// Nearby возвращает копии объектов, пересекающих круг (center, radius)
func (r *Registry) Nearby(center vec.Vec2, radius float64) []Planet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.index.QueryRange(center, radius)
	sort.Strings(ids)
	out := make([]Planet, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.planets[id]; ok {
			out = append(out, *p)
		}
	}
	return out
}

// IndexStats сводка пространственного индекса для отладочного лога
func (r *Registry) IndexStats() string {
	return r.index.GetStats()
}

// Protect помечает объект как управляемый анимацией
func (r *Registry) Protect(id string) {
	r.mu.Lock()
	r.protected.Add(id)
	r.mu.Unlock()
}

// IsProtected проверяет защиту объекта
func (r *Registry) IsProtected(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.protected.Has(id)
}

// Protected возвращает копию множества защищённых идентификаторов
func (r *Registry) Protected() ProtectedSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return NewProtectedSet(r.protected.IDs()...)
}

// Stashed возвращает отложенные данные объекта
func (r *Registry) Stashed(id string) (Planet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.stash[id]
	return p, ok
}

// Release снимает защиту по завершении анимации. Если за время анимации пришли
// внешние данные, они применяются, но позицией объекта остаётся finalPos -
// последняя вычисленная анимацией позиция.
func (r *Registry) Release(id string, finalPos vec.Vec2) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.protected.Delete(id)
	if pending, ok := r.stash[id]; ok {
		delete(r.stash, id)
		pending.Pos = finalPos
		r.upsertLocked(pending)
		return
	}
	if p, ok := r.planets[id]; ok {
		p.Pos = finalPos
		r.index.Insert(p.ID, p.Pos, p.Radius)
	}
}

// ReleaseWithoutMove снимает защиту при отмене анимации: отложенные данные
// применяются как есть, без подстановки позиции
func (r *Registry) ReleaseWithoutMove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.protected.Delete(id)
	if pending, ok := r.stash[id]; ok {
		delete(r.stash, id)
		r.upsertLocked(pending)
	}
}

// ApplySync применяет массовую синхронизацию с бэкендом через MergePlanets
func (r *Registry) ApplySync(incoming []Planet) MergeResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := make([]Planet, 0, len(r.planets))
	for _, p := range r.planets {
		old = append(old, *p)
	}
	sort.Slice(old, func(i, j int) bool { return old[i].ID < old[j].ID })

	res := MergePlanets(old, incoming, r.protected)

	r.planets = make(map[string]*Planet, len(res.Planets))
	r.index.Clear()
	for _, p := range res.Planets {
		r.upsertLocked(p)
	}
	for id, p := range res.Stashed {
		r.stash[id] = p
	}
	return res
}
