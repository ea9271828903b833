package redis

import (
	"context"
	"fmt"

	"github.com/ovaflus/ovaflus-auth/component"
	"github.com/ovaflus/ovaflus-auth/logger"
)

// Component owns a Client for the component registry.
type Component struct {
	client *Client
	cfg    Config
	log    *logger.Logger
}

var _ component.Component = (*Component)(nil)

// NewComponent creates the client eagerly so callers can wire it before Start.
func NewComponent(cfg Config, log *logger.Logger) (*Component, error) {
	client, err := New(cfg, log)
	if err != nil {
		return nil, err
	}
	return &Component{client: client, cfg: cfg, log: log.WithComponent("redis")}, nil
}

// Client returns the underlying *Client.
func (c *Component) Client() *Client { return c.client }

func (c *Component) Name() string { return "redis" }

// Start verifies connectivity.
func (c *Component) Start(ctx context.Context) error {
	if err := c.client.Ping(ctx); err != nil {
		return fmt.Errorf("redis start: %w", err)
	}
	c.log.Info("Redis component started")
	return nil
}

func (c *Component) Stop(context.Context) error {
	return c.client.Close()
}

// Health reports degraded rather than unhealthy: the key cache falls back to direct fetches.
func (c *Component) Health(ctx context.Context) component.Health {
	if err := c.client.Ping(ctx); err != nil {
		return component.Health{Name: c.Name(), Status: component.StatusDegraded, Message: err.Error()}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}
