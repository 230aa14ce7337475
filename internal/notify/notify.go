// Package notify delivers the run summary over the configured channels.
// Delivery failures are logged and never reach the caller.
package notify

import (
	"context"
	"io"
	"log/slog"
)

// Message is one summary notification.
type Message struct {
	Subject string
	HTML    string
	Text    string
}

// Sender delivers a message over one channel. Unconfigured senders return nil
// without sending.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Dispatcher fans a message out to every sender.
type Dispatcher struct {
	senders []Sender
	logger  *slog.Logger
}

// NewDispatcher creates a Dispatcher over senders.
func NewDispatcher(logger *slog.Logger, senders ...Sender) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{
		senders: senders,
		logger:  logger.With("component", "notifier"),
	}
}

// Notify sends msg through every sender, logging failures.
func (d *Dispatcher) Notify(ctx context.Context, msg Message) {
	for _, s := range d.senders {
		if err := s.Send(ctx, msg); err != nil {
			d.logger.ErrorContext(ctx, "Failed to send notification", "sender", s.Name(), "error", err)
			continue
		}
		d.logger.DebugContext(ctx, "Notification handled", "sender", s.Name())
	}
}
