package world

import "github.com/annel0/taskverse/internal/vec"

// ZoneType тип зоны мира
type ZoneType int

const (
	ZoneNeutral ZoneType = iota
	ZoneHome
	ZonePlayer
	ZoneBlackHole
)

// String возвращает имя типа зоны в формате бэкенда
func (z ZoneType) String() string {
	switch z {
	case ZoneHome:
		return "home"
	case ZonePlayer:
		return "player"
	case ZoneBlackHole:
		return "black_hole"
	default:
		return "neutral"
	}
}

// ParseZoneType обратное преобразование для String
func ParseZoneType(s string) ZoneType {
	switch s {
	case "home":
		return ZoneHome
	case "player":
		return ZonePlayer
	case "black_hole", "blackhole":
		return ZoneBlackHole
	default:
		return ZoneNeutral
	}
}

const (
	// DefaultZoneRadius радиус влияния зоны (подкраска камеры, принадлежность планет)
	DefaultZoneRadius = 2500.0
	// BlackHoleHorizon радиус горизонта событий чёрной дыры
	BlackHoleHorizon = 150.0
)

// Zone неизменяемое описание зоны мира
type Zone struct {
	ID      string
	Name    string
	Center  vec.Vec2
	Color   string
	OwnerID string // пусто - ничья зона
	Type    ZoneType
	Radius  float64
}

// InfluenceRadius радиус зоны с подстановкой значения по умолчанию
func (z Zone) InfluenceRadius() float64 {
	if z.Radius <= 0 {
		return DefaultZoneRadius
	}
	return z.Radius
}

// Owned сообщает, есть ли у зоны владелец
func (z Zone) Owned() bool {
	return z.OwnerID != ""
}

// Zones набор зон мира
type Zones []Zone

// Nearest возвращает ближайшую зону, в радиус влияния которой попадает точка
func (zs Zones) Nearest(space Space, p vec.Vec2) (Zone, float64, bool) {
	var (
		best     Zone
		bestDist float64
		found    bool
	)
	for _, z := range zs {
		d := space.Distance(z.Center, p)
		if d > z.InfluenceRadius() {
			continue
		}
		if !found || d < bestDist {
			best, bestDist, found = z, d, true
		}
	}
	return best, bestDist, found
}

// ByID ищет зону по идентификатору
func (zs Zones) ByID(id string) (Zone, bool) {
	for _, z := range zs {
		if z.ID == id {
			return z, true
		}
	}
	return Zone{}, false
}

// HomeOf возвращает домашнюю зону игрока
func (zs Zones) HomeOf(ownerID string) (Zone, bool) {
	for _, z := range zs {
		if z.Type == ZoneHome && z.OwnerID == ownerID {
			return z, true
		}
	}
	return Zone{}, false
}

// InsideBlackHole проверяет, пересекла ли точка горизонт событий какой-либо чёрной дыры
func (zs Zones) InsideBlackHole(space Space, p vec.Vec2) (Zone, bool) {
	for _, z := range zs {
		if z.Type != ZoneBlackHole {
			continue
		}
		if space.Distance(z.Center, p) < BlackHoleHorizon {
			return z, true
		}
	}
	return Zone{}, false
}
