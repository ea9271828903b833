package store

import (
	"context"
	"fmt"

	"github.com/ovaflus/ovaflus-auth/component"
	"github.com/ovaflus/ovaflus-auth/logger"
)

// Component manages the store's lifecycle in the component registry.
type Component struct {
	cfg   Config
	log   *logger.Logger
	store Store
}

var _ component.Component = (*Component)(nil)

// NewComponent creates a store component. The store is opened on Start.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	return &Component{cfg: cfg, log: log.WithComponent("store")}
}

// Store returns the opened store, or nil before Start.
func (c *Component) Store() Store { return c.store }

// Name implements component.Component.
func (c *Component) Name() string { return "store" }

// Start opens the configured backend.
func (c *Component) Start(ctx context.Context) error {
	s, err := New(ctx, c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("store start: %w", err)
	}
	c.store = s
	return nil
}

// Stop releases backend connections.
func (c *Component) Stop(context.Context) error {
	s := c.store
	c.store = nil
	if closer, ok := s.(Closer); ok {
		return closer.Close()
	}
	return nil
}

// Health pings the backend.
func (c *Component) Health(ctx context.Context) component.Health {
	if c.store == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "store not initialized"}
	}
	if err := c.store.Ping(ctx); err != nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: err.Error()}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}
