// Package notify defines the push/email dispatcher contract consumed
// by deferred executors. Dispatch is fire-and-forget: executors log a
// failed send and carry on, they never fail the job over it. The
// concrete transports (FCM, SES, and friends) live in the platform's
// delivery services behind this interface.
package notify

import (
	"context"
	"log/slog"

	"github.com/cohereplatform/tempo/id"
)

// Push is a push notification addressed to a set of users.
type Push struct {
	Title      string            `json:"title"`
	Body       string            `json:"body"`
	Data       map[string]string `json:"data,omitempty"`
	Recipients []id.UserID       `json:"recipients"`
}

// Email is a plain transactional email.
type Email struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// Dispatcher delivers notifications. Implementations must be safe for
// concurrent use.
type Dispatcher interface {
	SendPush(ctx context.Context, p Push) error
	SendEmail(ctx context.Context, e Email) error
}

// LogDispatcher is a Dispatcher that only logs. Used in development
// and as the default when no transport is wired.
type LogDispatcher struct {
	Logger *slog.Logger
}

// NewLogDispatcher creates a LogDispatcher.
func NewLogDispatcher() *LogDispatcher { return &LogDispatcher{Logger: slog.Default()} }

// SendPush logs the push and succeeds.
func (d *LogDispatcher) SendPush(_ context.Context, p Push) error {
	d.logger().Info("push dispatched",
		slog.String("title", p.Title),
		slog.Int("recipients", len(p.Recipients)),
	)
	return nil
}

// SendEmail logs the email and succeeds.
func (d *LogDispatcher) SendEmail(_ context.Context, e Email) error {
	d.logger().Info("email dispatched",
		slog.String("subject", e.Subject),
		slog.Int("recipients", len(e.To)),
	)
	return nil
}

func (d *LogDispatcher) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}
