// Package di provides dependency injection configuration for the LeadTrack server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/leadtrackapp/leadtrack-server/internal/config"
	"github.com/leadtrackapp/leadtrack-server/internal/di/providers"
	"github.com/leadtrackapp/leadtrack-server/internal/logger"
	"github.com/leadtrackapp/leadtrack-server/internal/mail"
	"github.com/leadtrackapp/leadtrack-server/internal/ratelimit"
	"github.com/leadtrackapp/leadtrack-server/internal/service"
	"github.com/leadtrackapp/leadtrack-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Mail layer
	do.Provide(injector, providers.ProvideMailer)

	// Business services
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideLoginLimiter)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideLeadService)

	// Workers
	do.Provide(injector, providers.ProvideSessionCleanupJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[mail.Sender](injector)

	// Business services
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*ratelimit.KeyedRateLimiter](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.LeadService](injector)

	// Workers and server
	_ = do.MustInvoke[*providers.SessionCleanupJob](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
