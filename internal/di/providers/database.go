package providers

import (
	"github.com/samber/do/v2"

	"github.com/leadtrackapp/leadtrack-server/internal/config"
	"github.com/leadtrackapp/leadtrack-server/internal/logger"
	"github.com/leadtrackapp/leadtrack-server/internal/store"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the database store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dsn := cfg.Database.Path
	if cfg.Database.Driver == store.DriverPostgres {
		dsn = cfg.Database.DSN
	}

	db, err := store.Open(cfg.Database.Driver, dsn, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "driver", cfg.Database.Driver)

	return &StoreHandle{Store: db}, nil
}
