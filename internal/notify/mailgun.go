package notify

import (
	"context"
	"errors"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"go.uber.org/zap"

	"github.com/spec-kit/quote-service/internal/config"
)

// MailgunMailer sends through the Mailgun HTTP API.
type MailgunMailer struct {
	mg     mailgun.Mailgun
	from   string
	logger *zap.Logger
}

// NewMailgunMailer builds a mailer from config.
func NewMailgunMailer(cfg config.MailConfig, logger *zap.Logger) *MailgunMailer {
	mg := mailgun.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey)
	if cfg.MailgunAPIBase != "" {
		mg.SetAPIBase(cfg.MailgunAPIBase)
	}
	return &MailgunMailer{mg: mg, from: cfg.From, logger: logger}
}

func (m *MailgunMailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("no recipients")
	}
	message := m.mg.NewMessage(m.from, msg.Subject, msg.Text, msg.To...)

	sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, id, err := m.mg.Send(sendCtx, message)
	if err != nil {
		return err
	}
	m.logger.Debug("mailgun accepted message", zap.String("id", id), zap.Int("recipients", len(msg.To)))
	return nil
}
