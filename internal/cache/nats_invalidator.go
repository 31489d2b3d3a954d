package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/annel0/taskverse/internal/clock"
	"github.com/annel0/taskverse/internal/logging"
)

// InvalidatorConfig параметры рассылки инвалидаций масштабов
type InvalidatorConfig struct {
	NATSURL       string
	Subject       string
	MaxReconnects int
	ReconnectWait time.Duration
	DedupeWindow  time.Duration
	Logger        *logging.Logger
	Time          clock.TimeProvider
}

func (c *InvalidatorConfig) applyDefaults() {
	if c.Subject == "" {
		c.Subject = "taskverse.cache.size"
	}
	if c.MaxReconnects == 0 {
		c.MaxReconnects = 10
	}
	if c.ReconnectWait == 0 {
		c.ReconnectWait = 2 * time.Second
	}
	if c.DedupeWindow == 0 {
		c.DedupeWindow = 5 * time.Second
	}
	if c.Time == nil {
		c.Time = clock.SystemTime{}
	}
}

// sizeInvalidation тело сообщения: ключ масштаба и узел-отправитель
type sizeInvalidation struct {
	Key    string `msgpack:"k"`
	NodeID string `msgpack:"n"`
	SentAt int64  `msgpack:"t"`
}

// dedupeSet помнит ключи, обработанные в пределах окна
type dedupeSet struct {
	mu     sync.Mutex
	window time.Duration
	clock  clock.TimeProvider
	seen   map[string]time.Time
}

func newDedupeSet(window time.Duration, tp clock.TimeProvider) *dedupeSet {
	return &dedupeSet{window: window, clock: tp, seen: make(map[string]time.Time)}
}

// mark запоминает ключ; false, если он уже встречался в окне
func (d *dedupeSet) mark(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.clock.Now()
	if at, ok := d.seen[key]; ok && now.Sub(at) < d.window {
		return false
	}
	d.seen[key] = now
	return true
}

func (d *dedupeSet) prune() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.clock.Now()
	removed := 0
	for key, at := range d.seen {
		if now.Sub(at) >= d.window {
			delete(d.seen, key)
			removed++
		}
	}
	return removed
}

// NATSInvalidator рассылает инвалидации масштабов планет между клиентами
// одного пользователя. Свои сообщения и повторы внутри окна пропускаются.
type NATSInvalidator struct {
	conn   *nats.Conn
	cfg    InvalidatorConfig
	nodeID string
	logger *logging.Logger
	recent *dedupeSet

	mu      sync.Mutex
	sub     *nats.Subscription
	handler InvalidationHandler

	stopCh    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	published atomic.Int64
	received  atomic.Int64
	failed    atomic.Int64
}

// NewNATSInvalidator подключается к NATS; nodeID отличает этот процесс от других
func NewNATSInvalidator(cfg InvalidatorConfig, nodeID string) (*NATSInvalidator, error) {
	cfg.applyDefaults()
	logger := cfg.Logger

	conn, err := nats.Connect(cfg.NATSURL,
		nats.Name("taskverse-size-cache-"+nodeID),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS инвалидатор отключён: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS инвалидатор переподключён к %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	n := &NATSInvalidator{
		conn:   conn,
		cfg:    cfg,
		nodeID: nodeID,
		logger: logger,
		recent: newDedupeSet(cfg.DedupeWindow, cfg.Time),
		stopCh: make(chan struct{}),
	}

	n.wg.Add(1)
	go n.pruneLoop()

	logger.Info("Инвалидатор размеров подключён: %s, subject=%s", cfg.NATSURL, cfg.Subject)
	return n, nil
}

// PublishInvalidation сообщает остальным узлам, что масштаб key устарел
func (n *NATSInvalidator) PublishInvalidation(_ context.Context, key string) error {
	if !n.recent.mark(key) {
		return nil
	}
	data, err := msgpack.Marshal(&sizeInvalidation{Key: key, NodeID: n.nodeID, SentAt: n.cfg.Time.Now().UnixMilli()})
	if err != nil {
		n.failed.Add(1)
		return fmt.Errorf("encode invalidation: %w", err)
	}
	if err := n.conn.Publish(n.cfg.Subject, data); err != nil {
		n.failed.Add(1)
		return fmt.Errorf("publish invalidation: %w", err)
	}
	n.published.Add(1)
	return nil
}

// SubscribeInvalidations вызывает handler для чужих инвалидаций до отмены ctx или Close
func (n *NATSInvalidator) SubscribeInvalidations(ctx context.Context, handler InvalidationHandler) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sub != nil {
		return fmt.Errorf("already subscribed to %s", n.cfg.Subject)
	}

	sub, err := n.conn.Subscribe(n.cfg.Subject, n.onMessage)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", n.cfg.Subject, err)
	}
	n.sub = sub
	n.handler = handler

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		select {
		case <-ctx.Done():
		case <-n.stopCh:
		}
		n.unsubscribe()
	}()
	return nil
}

// Close отписывается и закрывает соединение. Повторный вызов ничего не делает.
func (n *NATSInvalidator) Close() error {
	n.closeOnce.Do(func() {
		close(n.stopCh)
		n.wg.Wait()
		n.conn.Close()
		n.logger.Info("Инвалидатор размеров закрыт")
	})
	return nil
}

// Stats счётчики: отправлено, принято, ошибок
func (n *NATSInvalidator) Stats() (published, received, failed int64) {
	return n.published.Load(), n.received.Load(), n.failed.Load()
}

func (n *NATSInvalidator) onMessage(msg *nats.Msg) {
	n.received.Add(1)

	var m sizeInvalidation
	if err := msgpack.Unmarshal(msg.Data, &m); err != nil {
		n.failed.Add(1)
		n.logger.Warn("Повреждённая инвалидация: %v", err)
		return
	}
	if m.NodeID == n.nodeID || !n.recent.mark(m.Key) {
		return
	}

	n.mu.Lock()
	handler := n.handler
	n.mu.Unlock()
	if handler == nil {
		return
	}
	if err := handler(m.Key); err != nil {
		n.failed.Add(1)
		n.logger.Error("Инвалидация %s не применена: %v", m.Key, err)
	}
}

func (n *NATSInvalidator) unsubscribe() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sub == nil {
		return
	}
	if err := n.sub.Unsubscribe(); err != nil {
		n.logger.Warn("Отписка от %s: %v", n.cfg.Subject, err)
	}
	n.sub = nil
	n.handler = nil
}

func (n *NATSInvalidator) pruneLoop() {
	defer n.wg.Done()
	ticker := time.NewTicker(n.cfg.DedupeWindow)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n.recent.prune()
		case <-n.stopCh:
			return
		}
	}
}
