package network

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/xtaci/kcp-go/v5"

	"github.com/annel0/taskverse/internal/logging"
)

// relayClient подключённый к relay клиент
type relayClient struct {
	mu       sync.RWMutex
	playerID string
	left     bool
	session  *KCPSession
}

func (c *relayClient) id() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

func (c *relayClient) setID(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playerID != "" || id == "" {
		return false
	}
	c.playerID = id
	return true
}

// markLeft отмечает явный выход; возвращает false, если выход уже был
func (c *relayClient) markLeft() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.left {
		return false
	}
	c.left = true
	return true
}

// Relay KCP-сервер, пересылающий кадры каждого клиента всем остальным.
// Состояние игры relay не хранит: он только подставляет идентификатор
// отправителя и рассылает кадр.
type Relay struct {
	addr   string
	codec  *Codec
	logger *logging.Logger

	listener *kcp.Listener

	mu      sync.RWMutex
	clients map[*relayClient]struct{}

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewRelay создаёт relay-сервер
func NewRelay(addr string, codec *Codec, logger *logging.Logger) *Relay {
	ctx, cancel := context.WithCancel(context.Background())
	return &Relay{
		addr:    addr,
		codec:   codec,
		logger:  logger,
		clients: make(map[*relayClient]struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start начинает приём подключений
func (r *Relay) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("relay already running")
	}

	listener, err := kcp.ListenWithOptions(r.addr, nil, 0, 0)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", r.addr, err)
	}

	r.listener = listener
	r.running = true

	r.wg.Add(1)
	go r.acceptLoop()

	r.logger.Info("Relay запущен на %s", listener.Addr().String())
	return nil
}

// Addr фактический адрес (полезно при порте 0)
func (r *Relay) Addr() net.Addr {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.listener == nil {
		return nil
	}
	return r.listener.Addr()
}

// Stop закрывает слушатель и все клиентские сессии
func (r *Relay) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	r.cancel()
	err := r.listener.Close()

	clients := make([]*relayClient, 0, len(r.clients))
	for c := range r.clients {
		clients = append(clients, c)
	}
	r.mu.Unlock()

	for _, c := range clients {
		c.session.Close()
	}
	r.wg.Wait()

	r.logger.Info("Relay остановлен")
	return err
}

// ClientCount количество подключённых клиентов
func (r *Relay) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// PlayerIDs идентификаторы представившихся клиентов
func (r *Relay) PlayerIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.clients))
	for c := range r.clients {
		if id := c.id(); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// acceptLoop принимает входящие соединения
func (r *Relay) acceptLoop() {
	defer r.wg.Done()

	for {
		conn, err := r.listener.AcceptKCP()
		if err != nil {
			select {
			case <-r.ctx.Done():
				return
			default:
			}
			r.logger.Error("Ошибка приёма соединения: %v", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}

		client := &relayClient{}
		client.session = newKCPSession(conn, r.codec, func(f *Frame) {
			r.onFrame(client, f)
		}, r.logger)

		r.mu.Lock()
		r.clients[client] = struct{}{}
		count := len(r.clients)
		r.mu.Unlock()
		relayClients.Set(float64(count))

		r.logger.Info("Клиент подключился: %s (всего %d)", client.session.RemoteAddr(), count)

		r.wg.Add(1)
		go r.watch(client)
	}
}

// watch ждёт завершения сессии клиента и оповещает остальных
func (r *Relay) watch(c *relayClient) {
	defer r.wg.Done()

	select {
	case <-c.session.Done():
	case <-r.ctx.Done():
		return
	}

	r.mu.Lock()
	delete(r.clients, c)
	count := len(r.clients)
	r.mu.Unlock()
	relayClients.Set(float64(count))

	if id := c.id(); id != "" && c.markLeft() {
		r.logger.Info("Игрок %s отключился", id)
		r.broadcast(c, &Frame{Type: FrameLeave, PlayerID: id})
	}
}

// onFrame вызывается из горутины приёма клиента
func (r *Relay) onFrame(c *relayClient, f *Frame) {
	if f.Type == FrameHello {
		if c.setID(f.PlayerID) {
			r.logger.Info("Игрок %s представился", f.PlayerID)
		}
		return
	}

	id := c.id()
	if id == "" {
		// Клиент не представился - берём идентификатор из первого кадра
		if !c.setID(f.PlayerID) {
			return
		}
		id = f.PlayerID
	}
	f.PlayerID = id

	if f.Type == FrameLeave {
		if !c.markLeft() {
			return
		}
		r.logger.Info("Игрок %s вышел", id)
		r.broadcast(c, f)
		// Обработчик выполняется в цикле приёма сессии, Close здесь заблокировал бы его
		c.session.shutdown(nil)
		return
	}

	r.broadcast(c, f)
}

// broadcast рассылает кадр всем клиентам, кроме отправителя
func (r *Relay) broadcast(from *relayClient, f *Frame) {
	data, err := r.codec.Marshal(f)
	if err != nil {
		r.logger.Error("Не удалось сериализовать кадр: %v", err)
		return
	}

	r.mu.RLock()
	targets := make([]*relayClient, 0, len(r.clients))
	for c := range r.clients {
		if c != from {
			targets = append(targets, c)
		}
	}
	r.mu.RUnlock()

	for _, c := range targets {
		ctx, cancel := context.WithTimeout(r.ctx, 100*time.Millisecond)
		if err := c.session.sendRaw(ctx, data); err != nil {
			r.logger.Debug("Кадр для %s не отправлен: %v", c.id(), err)
		}
		cancel()
	}
	framesSent.WithLabelValues(f.Type.String()).Add(float64(len(targets)))
}
