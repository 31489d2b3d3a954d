package game

import (
	"context"
	"fmt"
	"time"

	"github.com/annel0/taskverse/internal/eventbus"
	"github.com/annel0/taskverse/internal/logging"
	"github.com/annel0/taskverse/internal/network"
)

// Transport канал до relay. Реализуется network.KCPSession.
type Transport interface {
	SendPosition(ctx context.Context, playerID string, u network.PositionUpdate) error
	SendEvent(ctx context.Context, playerID, eventType string, payload []byte) error
}

// Broadcaster периодически рассылает состояние локального корабля и
// исходящие игровые события. События идут через шину, если она задана,
// иначе кадрами по транспорту.
type Broadcaster struct {
	sim       *Simulation
	transport Transport
	bus       eventbus.EventBus
	interval  time.Duration
	logger    *logging.Logger
}

// NewBroadcaster создаёт рассыльщик; transport или bus могут быть nil
func NewBroadcaster(sim *Simulation, transport Transport, bus eventbus.EventBus, interval time.Duration, logger *logging.Logger) *Broadcaster {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return &Broadcaster{
		sim:       sim,
		transport: transport,
		bus:       bus,
		interval:  interval,
		logger:    logger,
	}
}

// Run рассылает состояние каждые interval до отмены ctx
func (b *Broadcaster) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := b.Flush(ctx); err != nil {
				b.logger.Warn("Ошибка рассылки: %v", err)
			}
		}
	}
}

// Flush отправляет текущую позицию и все накопленные события
func (b *Broadcaster) Flush(ctx context.Context) error {
	playerID := b.sim.PlayerID()

	if b.transport != nil {
		if err := b.transport.SendPosition(ctx, playerID, b.sim.LocalUpdate()); err != nil {
			return fmt.Errorf("send position: %w", err)
		}
	}

	for _, ev := range b.sim.DrainOutbound() {
		if err := b.sendEvent(ctx, playerID, ev); err != nil {
			return err
		}
	}
	return nil
}

func (b *Broadcaster) sendEvent(ctx context.Context, playerID string, ev eventbus.GameEvent) error {
	if b.bus != nil {
		env, err := eventbus.NewEnvelope(playerID, ev)
		if err != nil {
			return err
		}
		if err := b.bus.Publish(ctx, env); err != nil {
			return fmt.Errorf("publish %s: %w", ev.EventType(), err)
		}
		return nil
	}
	if b.transport == nil {
		return nil
	}
	payload, err := eventbus.Encode(ev)
	if err != nil {
		return err
	}
	if err := b.transport.SendEvent(ctx, playerID, ev.EventType(), payload); err != nil {
		return fmt.Errorf("send %s: %w", ev.EventType(), err)
	}
	return nil
}

// FrameHandler разбирает входящие кадры relay в очереди симуляции.
// Вызывается из горутины приёма KCP.
func (s *Simulation) FrameHandler() network.FrameHandler {
	return func(f *network.Frame) {
		switch f.Type {
		case network.FramePosition:
			if f.Position != nil {
				s.HandleRemoteUpdate(f.PlayerID, *f.Position)
			}
		case network.FrameEvent:
			s.HandleEvent(&eventbus.Envelope{
				Timestamp: time.Now().UTC(),
				Source:    f.PlayerID,
				EventType: f.EventType,
				Version:   1,
				Payload:   f.Payload,
			})
		case network.FrameLeave:
			s.HandlePlayerLeft(f.PlayerID)
		}
	}
}

// SubscribeBus подписывает симуляцию на события других игроков из шины
func (s *Simulation) SubscribeBus(ctx context.Context, bus eventbus.EventBus) (eventbus.Subscription, error) {
	return bus.Subscribe(ctx, eventbus.Filter{ExcludeSources: []string{s.cfg.PlayerID}}, func(_ context.Context, ev *eventbus.Envelope) {
		s.HandleEvent(ev)
	})
}
