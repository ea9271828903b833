package observability

import (
	"context"
	stderrors "errors"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/ovaflus/ovaflus-auth/component"
	"github.com/ovaflus/ovaflus-auth/logger"
)

// Component installs the exporters on Start and flushes them on Stop.
type Component struct {
	cfg Config
	svc ServiceInfo
	log *logger.Logger
	tp  *sdktrace.TracerProvider
	mp  *sdkmetric.MeterProvider
}

var _ component.Component = (*Component)(nil)

// NewComponent creates the telemetry component.
func NewComponent(cfg Config, svc ServiceInfo, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, svc: svc, log: log.WithComponent("telemetry")}
}

func (c *Component) Name() string { return "telemetry" }

func (c *Component) Start(ctx context.Context) error {
	if !c.cfg.Enabled {
		c.log.Debug("Telemetry disabled")
		return nil
	}
	tp, err := InitTracer(ctx, c.cfg, c.svc)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	mp, err := InitMeter(ctx, c.cfg, c.svc)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return fmt.Errorf("telemetry: %w", err)
	}
	c.tp, c.mp = tp, mp
	c.log.Info("Telemetry exporters started", logger.Fields("endpoint", c.cfg.Endpoint, "sample_rate", c.cfg.SampleRate))
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	var errs []error
	if c.tp != nil {
		errs = append(errs, c.tp.Shutdown(ctx))
	}
	if c.mp != nil {
		errs = append(errs, c.mp.Shutdown(ctx))
	}
	return stderrors.Join(errs...)
}

func (c *Component) Health(context.Context) component.Health {
	if c.cfg.Enabled && c.tp == nil {
		return component.Health{Name: c.Name(), Status: component.StatusDegraded, Message: "exporters not started"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}
