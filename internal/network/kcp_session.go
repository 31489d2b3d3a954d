package network

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xtaci/kcp-go/v5"

	"github.com/annel0/taskverse/internal/logging"
)

// ErrSessionClosed сессия закрыта
var ErrSessionClosed = errors.New("session closed")

// FrameHandler обработчик входящих кадров. Вызывается из горутины приёма,
// поэтому должен только складывать данные в потокобезопасные очереди.
type FrameHandler func(f *Frame)

// SessionStats статистика сессии
type SessionStats struct {
	FramesSent     uint64
	FramesReceived uint64
	BytesSent      uint64
	BytesReceived  uint64
	DecodeErrors   uint64
}

// KCPSession надёжный UDP-канал до relay (или до клиента на стороне relay).
// Кадры передаются в потоковом режиме KCP с заголовком длины.
type KCPSession struct {
	conn    *kcp.UDPSession
	codec   *Codec
	handler FrameHandler
	logger  *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	sendBuffer chan []byte
	seq        atomic.Uint64

	framesSent     atomic.Uint64
	framesReceived atomic.Uint64
	bytesSent      atomic.Uint64
	bytesReceived  atomic.Uint64
	decodeErrors   atomic.Uint64

	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
}

// DialKCP устанавливает соединение с relay
func DialKCP(ctx context.Context, addr string, codec *Codec, handler FrameHandler, logger *logging.Logger) (*KCPSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := kcp.DialWithOptions(addr, nil, 10, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	s := newKCPSession(conn, codec, handler, logger)
	logger.Info("KCP сессия подключена: addr=%s", addr)
	return s, nil
}

// newKCPSession настраивает соединение и запускает циклы приёма и отправки
func newKCPSession(conn *kcp.UDPSession, codec *Codec, handler FrameHandler, logger *logging.Logger) *KCPSession {
	ctx, cancel := context.WithCancel(context.Background())

	// Настраиваем KCP параметры для игрового трафика
	conn.SetStreamMode(true)
	conn.SetWriteDelay(false)
	conn.SetNoDelay(1, 20, 2, 1) // Агрессивные настройки для игр
	conn.SetWindowSize(512, 512) // Увеличиваем окно для пропускной способности
	conn.SetMtu(1400)            // Стандартный MTU для интернета

	s := &KCPSession{
		conn:       conn,
		codec:      codec,
		handler:    handler,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		sendBuffer: make(chan []byte, 256),
		done:       make(chan struct{}),
	}

	s.wg.Add(2)
	go s.sendLoop()
	go s.receiveLoop()
	return s
}

// Send сериализует кадр и ставит его в очередь отправки
func (s *KCPSession) Send(ctx context.Context, f *Frame) error {
	if f.Seq == 0 {
		f.Seq = s.seq.Add(1)
	}
	data, err := s.codec.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to serialize frame: %w", err)
	}
	if err := s.sendRaw(ctx, data); err != nil {
		return err
	}
	framesSent.WithLabelValues(f.Type.String()).Inc()
	return nil
}

// SendPosition отправляет состояние корабля
func (s *KCPSession) SendPosition(ctx context.Context, playerID string, u PositionUpdate) error {
	return s.Send(ctx, &Frame{Type: FramePosition, PlayerID: playerID, Position: &u})
}

// SendEvent отправляет игровое событие
func (s *KCPSession) SendEvent(ctx context.Context, playerID, eventType string, payload []byte) error {
	return s.Send(ctx, &Frame{Type: FrameEvent, PlayerID: playerID, EventType: eventType, Payload: payload})
}

// sendRaw ставит уже сериализованный кадр в очередь
func (s *KCPSession) sendRaw(ctx context.Context, data []byte) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}

	select {
	case s.sendBuffer <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return ErrSessionClosed
	}
}

// Done закрывается, когда сессия завершена (Close или обрыв соединения)
func (s *KCPSession) Done() <-chan struct{} {
	return s.done
}

// RemoteAddr возвращает адрес удалённого узла
func (s *KCPSession) RemoteAddr() string {
	return s.conn.RemoteAddr().String()
}

// Stats возвращает статистику сессии
func (s *KCPSession) Stats() SessionStats {
	return SessionStats{
		FramesSent:     s.framesSent.Load(),
		FramesReceived: s.framesReceived.Load(),
		BytesSent:      s.bytesSent.Load(),
		BytesReceived:  s.bytesReceived.Load(),
		DecodeErrors:   s.decodeErrors.Load(),
	}
}

// Close закрывает сессию и ждёт завершения горутин
func (s *KCPSession) Close() error {
	s.shutdown(nil)
	s.wg.Wait()
	return s.closeErr
}

func (s *KCPSession) shutdown(cause error) {
	s.closeOnce.Do(func() {
		s.cancel()
		// Закрытие соединения разблокирует Read в цикле приёма
		s.closeErr = s.conn.Close()
		close(s.done)
		if cause != nil {
			s.logger.Warn("KCP сессия %s завершена: %v", s.RemoteAddr(), cause)
		} else {
			s.logger.Info("KCP сессия %s закрыта", s.RemoteAddr())
		}
	})
}

// sendLoop обрабатывает отправку кадров
func (s *KCPSession) sendLoop() {
	defer s.wg.Done()

	for {
		select {
		case data := <-s.sendBuffer:
			if err := s.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				s.logger.Debug("SetWriteDeadline: %v", err)
			}
			if err := writeFrame(s.conn, data); err != nil {
				go s.shutdown(fmt.Errorf("failed to write data: %w", err))
				return
			}
			s.framesSent.Add(1)
			s.bytesSent.Add(uint64(len(data) + 4))
		case <-s.ctx.Done():
			return
		}
	}
}

// receiveLoop читает кадры и передаёт их обработчику
func (s *KCPSession) receiveLoop() {
	defer s.wg.Done()

	reader := bufio.NewReaderSize(s.conn, 64*1024)
	for {
		data, err := readFrame(reader)
		if err != nil {
			select {
			case <-s.ctx.Done():
			default:
				go s.shutdown(err)
			}
			return
		}

		s.bytesReceived.Add(uint64(len(data) + 4))
		frame, err := s.codec.Unmarshal(data)
		if err != nil {
			s.decodeErrors.Add(1)
			decodeErrors.Inc()
			s.logger.Warn("Не удалось разобрать кадр: %v", err)
			continue
		}

		s.framesReceived.Add(1)
		framesReceived.WithLabelValues(frame.Type.String()).Inc()
		if s.handler != nil {
			s.handler(frame)
		}
	}
}
