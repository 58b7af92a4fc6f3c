package providers

import (
	"github.com/samber/do/v2"

	"github.com/leadtrackapp/leadtrack-server/internal/config"
	"github.com/leadtrackapp/leadtrack-server/internal/logger"
	"github.com/leadtrackapp/leadtrack-server/internal/mail"
	"github.com/leadtrackapp/leadtrack-server/internal/ratelimit"
	"github.com/leadtrackapp/leadtrack-server/internal/service"
	"github.com/leadtrackapp/leadtrack-server/internal/validation"
)

// ProvideValidator provides the request input validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideLoginLimiter provides the per-credential login rate limiter.
func ProvideLoginLimiter(i do.Injector) (*ratelimit.KeyedRateLimiter, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return ratelimit.New(cfg.Auth.LoginRatePerMinute/60, cfg.Auth.LoginBurst), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	limiter := do.MustInvoke[*ratelimit.KeyedRateLimiter](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, limiter, cfg.Auth.SessionDuration, log.Logger), nil
}

// ProvideLeadService provides the lead service.
func ProvideLeadService(i do.Injector) (*service.LeadService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	mailer := do.MustInvoke[mail.Sender](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLeadService(storeHandle.Store, mailer, validator, log.Logger), nil
}
