package providers

import (
	"github.com/samber/do/v2"

	"github.com/leadtrackapp/leadtrack-server/internal/config"
	"github.com/leadtrackapp/leadtrack-server/internal/logger"
	"github.com/leadtrackapp/leadtrack-server/internal/mail"
)

// ProvideMailer provides the outgoing mail sender. When mail is disabled
// the no-op sender is used and lead notifications are silently dropped.
func ProvideMailer(i do.Injector) (mail.Sender, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Mail.Enabled {
		log.Info("Mail disabled, lead notifications will not be sent")
		return mail.NoopSender{}, nil
	}

	sender, err := mail.NewSMTPSender(cfg.Mail, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Mail sender configured", "provider", cfg.Mail.DefaultProvider)

	return sender, nil
}
