package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"github.com/revlohq/revlo/internal/config"
	"github.com/revlohq/revlo/internal/logging"
	"github.com/revlohq/revlo/internal/monitoring"
)

// Sender dispatches a single HTML email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Message is a fully rendered outbound email.
type Message struct {
	To       string
	ToName   string
	Subject  string
	HTMLBody string
	// Kind labels the dispatch for metrics: "request" or "reminder".
	Kind string
}

// SMTPMailer sends mail through a configured SMTP relay.
type SMTPMailer struct {
	client    *mail.Client
	fromName  string
	fromEmail string
	logger    zerolog.Logger
}

// New creates an SMTPMailer from SMTP configuration.
func New(cfg *config.SMTPConfig) (*SMTPMailer, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.User),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTLSConfig(&tls.Config{
			ServerName: cfg.Host,
		}),
		mail.WithTimeout(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return &SMTPMailer{
		client:    client,
		fromName:  cfg.FromName,
		fromEmail: cfg.FromEmail,
		logger:    logging.NewLogger("mailer"),
	}, nil
}

// Send dispatches a single message through the relay.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	out := mail.NewMsg()

	if err := out.From(fmt.Sprintf("%s <%s>", m.fromName, m.fromEmail)); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}

	var err error
	if msg.ToName != "" {
		err = out.AddToFormat(msg.ToName, msg.To)
	} else {
		err = out.To(msg.To)
	}
	if err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	out.Subject(msg.Subject)
	out.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)

	start := time.Now()
	if err := m.client.DialAndSendWithContext(ctx, out); err != nil {
		monitoring.RecordMailDispatch(msg.Kind, "error", time.Since(start))
		m.logger.Error().
			Err(err).
			Str("to", logging.SanitizeForLog(msg.To, 64)).
			Str("kind", msg.Kind).
			Msg("Mail dispatch failed")
		return fmt.Errorf("failed to send mail: %w", err)
	}

	monitoring.RecordMailDispatch(msg.Kind, "success", time.Since(start))
	m.logger.Debug().
		Str("to", logging.SanitizeForLog(msg.To, 64)).
		Str("kind", msg.Kind).
		Dur("duration", time.Since(start)).
		Msg("Mail dispatched")

	return nil
}
