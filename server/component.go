package server

import (
	"context"

	"github.com/ovaflus/ovaflus-auth/component"
)

const componentName = "http-server"

var _ component.Component = (*Component)(nil)

// Component adapts Server to the component lifecycle. Register it last so
// it starts after, and stops before, the components handlers depend on.
type Component struct {
	server *Server
}

// NewComponent returns a component.Component backed by s.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

func (c *Component) Name() string { return componentName }

func (c *Component) Start(ctx context.Context) error {
	if err := c.server.Start(ctx); err != nil {
		return err
	}
	c.server.LogRoutes()
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	return c.server.Stop(ctx)
}

func (c *Component) Health(context.Context) component.Health {
	c.server.mu.Lock()
	bound := c.server.listener != nil
	c.server.mu.Unlock()
	if !bound {
		return component.Health{Name: componentName, Status: component.StatusUnhealthy, Message: "not listening"}
	}
	return component.Health{Name: componentName, Status: component.StatusHealthy, Message: c.server.Addr()}
}
