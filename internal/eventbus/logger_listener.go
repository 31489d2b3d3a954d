package eventbus

import (
	"context"
	"fmt"

	"github.com/annel0/taskverse/internal/logging"
)

// StartLoggingListener пишет в лог каждое игровое событие шины: тип, игрока
// и краткое содержание. Не блокирует; подписку снимает вызывающий.
func StartLoggingListener(bus EventBus, logger *logging.Logger) (Subscription, error) {
	sub, err := bus.Subscribe(context.Background(), Filter{}, func(_ context.Context, env *Envelope) {
		logger.Debug("🎯 %s от %s: %s", env.EventType, env.Source, describeEnvelope(env))
	})
	if err != nil {
		return nil, fmt.Errorf("logging listener: %w", err)
	}
	logger.Info("Журнал игровых событий шины включён")
	return sub, nil
}

// describeEnvelope краткое описание полезной нагрузки для лога
func describeEnvelope(env *Envelope) string {
	ev, err := DecodeEnvelope(env)
	if err != nil {
		return fmt.Sprintf("нечитаемое событие (%dB): %v", len(env.Payload), err)
	}
	switch e := ev.(type) {
	case WeaponFire:
		if e.TargetID != "" {
			return fmt.Sprintf("%s из (%.0f, %.0f) по %s", e.Weapon, e.X, e.Y, e.TargetID)
		}
		return fmt.Sprintf("%s из (%.0f, %.0f)", e.Weapon, e.X, e.Y)
	case EntityDestroy:
		return fmt.Sprintf("уничтожен %s [%s]", e.EntityID, e.Variant)
	case SendStart:
		return fmt.Sprintf("толкает %s из (%.0f, %.0f)", e.PlanetID, e.X, e.Y)
	case SendTarget:
		return fmt.Sprintf("цель %s: (%.0f, %.0f)", e.PlanetID, e.X, e.Y)
	case Emote:
		return "эмоция " + e.Name
	case Horn:
		return fmt.Sprintf("гудок #%d", e.Variant)
	default:
		return env.ID
	}
}
