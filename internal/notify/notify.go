// Package notify is the outbound messaging seam. Delivery is fire-and-forget
// from the engine's point of view: a failed notification is logged by the
// caller and never fails the operation that triggered it.
package notify

import "context"

type Notifier interface {
	Notify(ctx context.Context, accountID int64, text string) error
}

// Nop discards every message. Used in tests and when no transport is
// configured.
type Nop struct{}

func (Nop) Notify(ctx context.Context, accountID int64, text string) error {
	return nil
}
