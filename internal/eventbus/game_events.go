package eventbus

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Типы игровых событий
const (
	TypeWeaponFire    = "WeaponFire"
	TypeEntityDestroy = "EntityDestroy"
	TypeSendStart     = "SendStart"
	TypeSendTarget    = "SendTarget"
	TypeEmote         = "Emote"
	TypeHorn          = "Horn"
)

// ErrUnknownEvent тип события не поддерживается
var ErrUnknownEvent = errors.New("eventbus: unknown event type")

// GameEvent полезная нагрузка игрового события
type GameEvent interface {
	EventType() string
}

// WeaponFire выстрел игрока; у получателей порождает косметическое эхо
type WeaponFire struct {
	Weapon   string  `msgpack:"w"`
	X        float64 `msgpack:"x"`
	Y        float64 `msgpack:"y"`
	VX       float64 `msgpack:"vx"`
	VY       float64 `msgpack:"vy"`
	Rotation float64 `msgpack:"r"`
	TargetID string  `msgpack:"t,omitempty"`
}

func (WeaponFire) EventType() string { return TypeWeaponFire }

// EntityDestroy уничтожение сущности с вариантом анимации
type EntityDestroy struct {
	EntityID string `msgpack:"id"`
	Variant  string `msgpack:"variant,omitempty"`
}

func (EntityDestroy) EventType() string { return TypeEntityDestroy }

// SendStart начало толкания планеты; цель ещё неизвестна
type SendStart struct {
	PlanetID string  `msgpack:"id"`
	X        float64 `msgpack:"x"`
	Y        float64 `msgpack:"y"`
}

func (SendStart) EventType() string { return TypeSendStart }

// SendTarget цель толкания, полученная от backend
type SendTarget struct {
	PlanetID string  `msgpack:"id"`
	X        float64 `msgpack:"x"`
	Y        float64 `msgpack:"y"`
}

func (SendTarget) EventType() string { return TypeSendTarget }

// Emote эмоция над кораблём игрока
type Emote struct {
	Name string `msgpack:"name"`
}

func (Emote) EventType() string { return TypeEmote }

// Horn гудок корабля
type Horn struct {
	Variant int `msgpack:"variant,omitempty"`
}

func (Horn) EventType() string { return TypeHorn }

// Encode сериализует полезную нагрузку события
func Encode(ev GameEvent) ([]byte, error) {
	data, err := msgpack.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ev.EventType(), err)
	}
	return data, nil
}

// Decode восстанавливает событие по типу и полезной нагрузке
func Decode(eventType string, data []byte) (GameEvent, error) {
	var ev GameEvent
	switch eventType {
	case TypeWeaponFire:
		var v WeaponFire
		if err := msgpack.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", eventType, err)
		}
		ev = v
	case TypeEntityDestroy:
		var v EntityDestroy
		if err := msgpack.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", eventType, err)
		}
		ev = v
	case TypeSendStart:
		var v SendStart
		if err := msgpack.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", eventType, err)
		}
		ev = v
	case TypeSendTarget:
		var v SendTarget
		if err := msgpack.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", eventType, err)
		}
		ev = v
	case TypeEmote:
		var v Emote
		if err := msgpack.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", eventType, err)
		}
		ev = v
	case TypeHorn:
		var v Horn
		if err := msgpack.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", eventType, err)
		}
		ev = v
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, eventType)
	}
	return ev, nil
}

// priorityOf уничтожение и толкание важнее косметики
func priorityOf(eventType string) int {
	switch eventType {
	case TypeEntityDestroy, TypeSendStart, TypeSendTarget:
		return 7
	default:
		return 3
	}
}

// NewEnvelope упаковывает игровое событие игрока source в Envelope
func NewEnvelope(source string, ev GameEvent) (*Envelope, error) {
	payload, err := Encode(ev)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: ev.EventType(),
		Version:   1,
		Priority:  priorityOf(ev.EventType()),
		Payload:   payload,
	}, nil
}

// DecodeEnvelope извлекает игровое событие из Envelope
func DecodeEnvelope(env *Envelope) (GameEvent, error) {
	return Decode(env.EventType, env.Payload)
}
