package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/ovaflus/ovaflus-auth/logger"
)

// Factory creates a Store for one driver.
type Factory func(ctx context.Context, cfg Config, log *logger.Logger) (Store, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// RegisterFactory makes a backend available to New under name.
// Backend packages call it from init.
func RegisterFactory(name string, f Factory) {
	factoriesMu.Lock()
	factories[name] = f
	factoriesMu.Unlock()
}

// New creates the Store selected by cfg.Driver. The backend package must be
// imported so its factory is registered.
func New(ctx context.Context, cfg Config, log *logger.Logger) (Store, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	factoriesMu.RLock()
	f, ok := factories[cfg.Driver]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("store: driver %q not registered", cfg.Driver)
	}

	l := log.WithComponent("store")
	l.Info("Initializing credential store", logger.Fields("driver", cfg.Driver))
	return f(ctx, cfg, l)
}
