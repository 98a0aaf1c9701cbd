// Package notify fans admin notifications out to the configured channels.
package notify

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
)

// Priority levels, on ntfy's 1-5 scale.
const (
	PriorityLow     = 2
	PriorityDefault = 3
	PriorityHigh    = 4
)

// Message is a single notification.
type Message struct {
	Title    string
	Body     string
	Priority int
	Tags     []string
	// Link is an optional URL to the relevant admin page.
	Link string
}

// Notifier delivers messages to one channel.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Multi sends every message to all its notifiers.
type Multi []Notifier

// Notify delivers msg to every notifier and joins the errors.
func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Enabled reports whether at least one channel is configured.
func (m Multi) Enabled() bool {
	return len(m) > 0
}

// Send delivers msg and logs instead of returning failures, so a broken
// channel never fails the operation that triggered it.
func Send(ctx context.Context, n Notifier, msg Message) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, msg); err != nil {
		log.Warn("failed to send notification", "title", msg.Title, "error", err)
	}
}
