// Package notify sends transactional email about quote activity.
package notify

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Message is a rendered email for one or more recipients.
type Message struct {
	To      []string
	Subject string
	Text    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of sending them. Used when no
// mail provider is configured.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer builds a LogMailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("email (not sent, no provider configured)",
		zap.String("to", strings.Join(msg.To, ",")),
		zap.String("subject", msg.Subject))
	return nil
}
