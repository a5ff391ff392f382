package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"paypal-relay/internal/domain/ports/adapter"
)

var _ adapter.Notifier = (*NoopNotifier)(nil)

// NoopNotifier logs messages instead of sending them. Used when no bot token is configured.
type NoopNotifier struct {
	log *zerolog.Logger
}

func NewNoopNotifier(logger *zerolog.Logger) *NoopNotifier {
	return &NoopNotifier{log: logger}
}

func (n *NoopNotifier) Notify(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.log.Debug().Str("text", text).Msg("[noop-telegram] notification")
	return nil
}
