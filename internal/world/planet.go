package world

import "github.com/annel0/taskverse/internal/vec"

// PlanetKind тип объекта мира
type PlanetKind int

const (
	// KindTask планета задачи, защищена щитом от снарядов
	KindTask PlanetKind = iota
	// KindHome домашняя планета игрока, защищена щитом
	KindHome
	// KindAsteroid разрушаемый астероид с запасом прочности
	KindAsteroid
	// KindDecoration декоративный объект без столкновений
	KindDecoration
)

// String возвращает имя типа
func (k PlanetKind) String() string {
	switch k {
	case KindTask:
		return "task"
	case KindHome:
		return "home"
	case KindAsteroid:
		return "asteroid"
	case KindDecoration:
		return "decoration"
	default:
		return "unknown"
	}
}

// Planet объект мира: планета задачи, астероид или декорация
type Planet struct {
	ID        string     `json:"id" msgpack:"id"`
	Kind      PlanetKind `json:"kind" msgpack:"kind"`
	Pos       vec.Vec2   `json:"pos" msgpack:"pos"`
	Radius    float64    `json:"radius" msgpack:"radius"`
	OwnerID   string     `json:"owner_id,omitempty" msgpack:"owner_id,omitempty"`
	ZoneID    string     `json:"zone_id,omitempty" msgpack:"zone_id,omitempty"`
	TaskID    string     `json:"task_id,omitempty" msgpack:"task_id,omitempty"`
	Priority  int        `json:"priority,omitempty" msgpack:"priority,omitempty"`
	Completed bool       `json:"completed,omitempty" msgpack:"completed,omitempty"`
	Health    float64    `json:"health,omitempty" msgpack:"health,omitempty"`
	MaxHealth float64    `json:"max_health,omitempty" msgpack:"max_health,omitempty"`
	Color     string     `json:"color,omitempty" msgpack:"color,omitempty"`
}

// Destructible объект теряет прочность от попаданий
func (p *Planet) Destructible() bool {
	return p.Kind == KindAsteroid
}

// Shielded объект отражает снаряды
func (p *Planet) Shielded() bool {
	return p.Kind == KindTask || p.Kind == KindHome
}

// Intangible объект не участвует в столкновениях
func (p *Planet) Intangible() bool {
	return p.Kind == KindDecoration
}

// ApplyDamage уменьшает прочность разрушаемого объекта.
// Возвращает true только для попадания, обнулившего прочность.
func (p *Planet) ApplyDamage(amount float64) bool {
	if !p.Destructible() || amount <= 0 || p.Health <= 0 {
		return false
	}
	p.Health -= amount
	if p.Health <= 0 {
		p.Health = 0
		return true
	}
	return false
}
