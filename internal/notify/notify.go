// Package notify delivers alert and cycle messages to the marketing team.
package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// Notifier pushes a short human-readable message to whatever channel the
// deployment is configured with.
type Notifier interface {
	Send(ctx context.Context, message string) error
}

// LogNotifier writes messages to the application log. Used when no webhook
// is configured, and in tests.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (n LogNotifier) Send(_ context.Context, message string) error {
	n.Logger.Info().Str("channel", "log").Msg(message)
	return nil
}
