package adapter

import "context"

// Notifier delivers short operator messages.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}
