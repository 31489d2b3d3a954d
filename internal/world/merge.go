package world

import "sort"

// ProtectedSet множество идентификаторов объектов, которыми сейчас управляет анимация.
// Внешняя синхронизация не должна перезаписывать их состояние.
type ProtectedSet map[string]struct{}

// NewProtectedSet создаёт множество из списка идентификаторов
func NewProtectedSet(ids ...string) ProtectedSet {
	ps := make(ProtectedSet, len(ids))
	for _, id := range ids {
		ps[id] = struct{}{}
	}
	return ps
}

// Has проверяет наличие идентификатора
func (ps ProtectedSet) Has(id string) bool {
	_, ok := ps[id]
	return ok
}

// Add добавляет идентификатор
func (ps ProtectedSet) Add(id string) {
	ps[id] = struct{}{}
}

// Delete удаляет идентификатор
func (ps ProtectedSet) Delete(id string) {
	delete(ps, id)
}

// IDs возвращает отсортированный список идентификаторов
func (ps ProtectedSet) IDs() []string {
	ids := make([]string, 0, len(ps))
	for id := range ps {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// MergeResult результат слияния списков объектов
type MergeResult struct {
	// Planets итоговый список: входящие данные, кроме защищённых объектов
	Planets []Planet
	// Stashed входящие версии защищённых объектов, применяются после завершения анимации
	Stashed map[string]Planet
}

// MergePlanets сливает текущий список с пришедшим по идентификатору.
// Для незащищённых объектов побеждают входящие данные, объекты, которых нет во
// входящем списке, удаляются. Защищённые объекты сохраняют текущее состояние, а
// их входящая версия откладывается в Stashed. Функция не изменяет аргументы.
func MergePlanets(old, incoming []Planet, protected ProtectedSet) MergeResult {
	oldByID := make(map[string]Planet, len(old))
	for _, p := range old {
		oldByID[p.ID] = p
	}

	result := MergeResult{
		Planets: make([]Planet, 0, len(incoming)),
		Stashed: make(map[string]Planet),
	}
	placed := make(map[string]struct{}, len(incoming))

	for _, p := range incoming {
		if _, dup := placed[p.ID]; dup {
			continue
		}
		if protected.Has(p.ID) {
			result.Stashed[p.ID] = p
			if cur, ok := oldByID[p.ID]; ok {
				result.Planets = append(result.Planets, cur)
				placed[p.ID] = struct{}{}
			}
			continue
		}
		result.Planets = append(result.Planets, p)
		placed[p.ID] = struct{}{}
	}

	// Защищённые объекты, отсутствующие во входящих данных, остаются на месте
	for _, p := range old {
		if _, ok := placed[p.ID]; ok {
			continue
		}
		if protected.Has(p.ID) {
			result.Planets = append(result.Planets, p)
			placed[p.ID] = struct{}{}
		}
	}

	return result
}
