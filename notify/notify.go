// Package notify delivers trade events to a chat channel. Delivery is
// best-effort: a failed notification is logged by the caller and never
// blocks or fails a trading cycle.
package notify

import "context"

// Notifier sends a plain-text message.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Nop drops all messages.
type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }
