// Package mail sends notification email through the configured SMTP provider.
package mail

import (
	"context"
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"

	"github.com/leadtrackapp/leadtrack-server/internal/config"
)

// Sender delivers a plain-text message to a single recipient.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender sends mail through the default provider in the config.
type SMTPSender struct {
	provider config.SMTPProvider
	cfg      config.MailConfig
	logger   *slog.Logger
}

// NewSMTPSender creates a sender for the configured default provider.
func NewSMTPSender(cfg config.MailConfig, logger *slog.Logger) (*SMTPSender, error) {
	provider, ok := cfg.Providers[cfg.DefaultProvider]
	if !ok {
		return nil, fmt.Errorf("unknown SMTP provider: %s", cfg.DefaultProvider)
	}
	return &SMTPSender{provider: provider, cfg: cfg, logger: logger}, nil
}

// Send delivers a plain-text message. A fresh client is dialed per message;
// lead creation is rare enough that connection reuse is not worth the state.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(s.provider.From); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	opts := []gomail.Option{
		gomail.WithPort(s.provider.Port),
		gomail.WithUsername(s.provider.Username),
		gomail.WithPassword(s.provider.Password),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithTimeout(s.cfg.Timeout),
	}
	switch {
	case s.provider.UseSSL:
		opts = append(opts, gomail.WithSSL())
	case s.provider.UseTLS:
		opts = append(opts, gomail.WithTLSPortPolicy(gomail.TLSMandatory))
	default:
		opts = append(opts, gomail.WithTLSPortPolicy(gomail.NoTLS))
	}

	client, err := gomail.NewClient(s.provider.Host, opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	s.logger.Debug("mail sent", "to", to, "subject", subject)
	return nil
}

// NoopSender discards all messages. Used when mail is disabled.
type NoopSender struct{}

// Send does nothing.
func (NoopSender) Send(context.Context, string, string, string) error { return nil }
