package network

import (
	"errors"
	"fmt"
	"math"

	"github.com/klauspost/compress/zstd"
	"google.golang.org/protobuf/encoding/protowire"
)

// FrameType тип сетевого кадра
type FrameType uint8

const (
	FrameUnknown FrameType = iota
	// FrameHello первый кадр клиента: регистрирует идентификатор игрока на relay
	FrameHello
	// FramePosition периодическая рассылка состояния корабля
	FramePosition
	// FrameEvent игровое событие (выстрел, уничтожение, отправка, эмоция)
	FrameEvent
	// FrameLeave игрок покинул игру
	FrameLeave
)

// String имя типа для метрик и логов
func (t FrameType) String() string {
	switch t {
	case FrameHello:
		return "hello"
	case FramePosition:
		return "position"
	case FrameEvent:
		return "event"
	case FrameLeave:
		return "leave"
	default:
		return "unknown"
	}
}

var (
	// ErrShortFrame кадр короче заголовка
	ErrShortFrame = errors.New("short frame")
	// ErrUnknownFrame неизвестный тип кадра
	ErrUnknownFrame = errors.New("unknown frame type")
	// ErrMalformed повреждённые данные
	ErrMalformed = errors.New("malformed frame")
)

// Frame единица обмена клиент <-> relay
type Frame struct {
	Type      FrameType
	PlayerID  string
	Seq       uint64
	Position  *PositionUpdate
	EventType string
	Payload   []byte
}

// Номера полей кадра
const (
	fieldType      protowire.Number = 1
	fieldPlayerID  protowire.Number = 2
	fieldSeq       protowire.Number = 3
	fieldPosition  protowire.Number = 4
	fieldEventType protowire.Number = 5
	fieldPayload   protowire.Number = 6
)

// Номера полей позиции
const (
	posX         protowire.Number = 1
	posY         protowire.Number = 2
	posVX        protowire.Number = 3
	posVY        protowire.Number = 4
	posRotation  protowire.Number = 5
	posThrusting protowire.Number = 6
	posBoosting  protowire.Number = 7
	posTimestamp protowire.Number = 8
)

// Флаги первого байта кадра
const (
	flagRaw  byte = 0
	flagZstd byte = 1
)

// Codec кодирует кадры в формат protobuf wire и при необходимости сжимает zstd.
// Экземпляр безопасен для конкурентного использования.
type Codec struct {
	compress     bool
	compressor   *zstd.Encoder
	decompressor *zstd.Decoder
}

// NewCodec создаёт кодек. Распаковка zstd поддерживается всегда, сжатие - только при compress.
func NewCodec(compress bool) (*Codec, error) {
	c := &Codec{compress: compress}

	var err error
	if compress {
		c.compressor, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			return nil, fmt.Errorf("failed to create compressor: %w", err)
		}
	}
	c.decompressor, err = zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create decompressor: %w", err)
	}
	return c, nil
}

// Marshal сериализует кадр
func (c *Codec) Marshal(f *Frame) ([]byte, error) {
	if f.Type == FrameUnknown || f.Type > FrameLeave {
		return nil, ErrUnknownFrame
	}

	body := make([]byte, 0, 96)
	body = protowire.AppendTag(body, fieldType, protowire.VarintType)
	body = protowire.AppendVarint(body, uint64(f.Type))
	if f.PlayerID != "" {
		body = protowire.AppendTag(body, fieldPlayerID, protowire.BytesType)
		body = protowire.AppendString(body, f.PlayerID)
	}
	if f.Seq != 0 {
		body = protowire.AppendTag(body, fieldSeq, protowire.VarintType)
		body = protowire.AppendVarint(body, f.Seq)
	}
	if f.Position != nil {
		body = protowire.AppendTag(body, fieldPosition, protowire.BytesType)
		body = protowire.AppendBytes(body, marshalPosition(f.Position))
	}
	if f.EventType != "" {
		body = protowire.AppendTag(body, fieldEventType, protowire.BytesType)
		body = protowire.AppendString(body, f.EventType)
	}
	if len(f.Payload) > 0 {
		body = protowire.AppendTag(body, fieldPayload, protowire.BytesType)
		body = protowire.AppendBytes(body, f.Payload)
	}

	if c.compress && c.compressor != nil {
		out := []byte{flagZstd}
		return c.compressor.EncodeAll(body, out), nil
	}
	return append([]byte{flagRaw}, body...), nil
}

// Unmarshal разбирает кадр; неизвестные поля пропускаются
func (c *Codec) Unmarshal(data []byte) (*Frame, error) {
	if len(data) < 1 {
		return nil, ErrShortFrame
	}

	body := data[1:]
	switch data[0] {
	case flagRaw:
	case flagZstd:
		decompressed, err := c.decompressor.DecodeAll(body, nil)
		if err != nil {
			return nil, fmt.Errorf("decompression failed: %w", err)
		}
		body = decompressed
	default:
		return nil, fmt.Errorf("%w: flags %d", ErrMalformed, data[0])
	}

	f := &Frame{}
	for len(body) > 0 {
		num, typ, n := protowire.ConsumeTag(body)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		body = body[n:]

		switch {
		case num == fieldType && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(body)
			if m < 0 {
				return nil, fmt.Errorf("%w: type", ErrMalformed)
			}
			f.Type = FrameType(v)
			n = m
		case num == fieldPlayerID && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(body)
			if m < 0 {
				return nil, fmt.Errorf("%w: player id", ErrMalformed)
			}
			f.PlayerID = v
			n = m
		case num == fieldSeq && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(body)
			if m < 0 {
				return nil, fmt.Errorf("%w: seq", ErrMalformed)
			}
			f.Seq = v
			n = m
		case num == fieldPosition && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(body)
			if m < 0 {
				return nil, fmt.Errorf("%w: position", ErrMalformed)
			}
			pos, err := unmarshalPosition(v)
			if err != nil {
				return nil, err
			}
			f.Position = pos
			n = m
		case num == fieldEventType && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(body)
			if m < 0 {
				return nil, fmt.Errorf("%w: event type", ErrMalformed)
			}
			f.EventType = v
			n = m
		case num == fieldPayload && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(body)
			if m < 0 {
				return nil, fmt.Errorf("%w: payload", ErrMalformed)
			}
			f.Payload = append([]byte(nil), v...)
			n = m
		default:
			n = protowire.ConsumeFieldValue(num, typ, body)
			if n < 0 {
				return nil, fmt.Errorf("%w: field %d", ErrMalformed, num)
			}
		}
		body = body[n:]
	}

	if f.Type == FrameUnknown || f.Type > FrameLeave {
		return nil, ErrUnknownFrame
	}
	return f, nil
}

func marshalPosition(p *PositionUpdate) []byte {
	b := make([]byte, 0, 64)
	b = appendDouble(b, posX, p.X)
	b = appendDouble(b, posY, p.Y)
	b = appendDouble(b, posVX, p.VX)
	b = appendDouble(b, posVY, p.VY)
	b = appendDouble(b, posRotation, p.Rotation)
	if p.Thrusting {
		b = protowire.AppendTag(b, posThrusting, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
	}
	if p.Boosting {
		b = protowire.AppendTag(b, posBoosting, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
	}
	if p.Timestamp != 0 {
		b = protowire.AppendTag(b, posTimestamp, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(p.Timestamp))
	}
	return b
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func unmarshalPosition(b []byte) (*PositionUpdate, error) {
	p := &PositionUpdate{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: position tag", ErrMalformed)
		}
		b = b[n:]

		switch typ {
		case protowire.Fixed64Type:
			v, m := protowire.ConsumeFixed64(b)
			if m < 0 {
				return nil, fmt.Errorf("%w: position field %d", ErrMalformed, num)
			}
			f := math.Float64frombits(v)
			switch num {
			case posX:
				p.X = f
			case posY:
				p.Y = f
			case posVX:
				p.VX = f
			case posVY:
				p.VY = f
			case posRotation:
				p.Rotation = f
			}
			n = m
		case protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return nil, fmt.Errorf("%w: position field %d", ErrMalformed, num)
			}
			switch num {
			case posThrusting:
				p.Thrusting = v != 0
			case posBoosting:
				p.Boosting = v != 0
			case posTimestamp:
				p.Timestamp = protowire.DecodeZigZag(v)
			}
			n = m
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("%w: position field %d", ErrMalformed, num)
			}
		}
		b = b[n:]
	}

	if !p.Pos().IsFinite() || !p.Vel().IsFinite() || math.IsNaN(p.Rotation) || math.IsInf(p.Rotation, 0) {
		return nil, fmt.Errorf("%w: non-finite position", ErrMalformed)
	}
	return p, nil
}
