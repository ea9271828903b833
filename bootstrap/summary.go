package bootstrap

import (
	"context"
	"strings"
	"time"

	"github.com/ovaflus/ovaflus-auth/component"
	"github.com/ovaflus/ovaflus-auth/logger"
)

// logSummary logs the startup duration and live component health.
func (a *App[C]) logSummary(ctx context.Context, startup time.Duration) {
	results := a.Components.HealthAll(ctx)
	healthy := 0
	for _, h := range results {
		if h.Status == component.StatusHealthy {
			healthy++
		}
	}

	fields := logger.Fields(
		"name", a.Name,
		"version", a.Version,
		"startup_ms", startup.Milliseconds(),
		"components", formatHealth(results),
		"healthy", healthy,
		"total", len(results),
	)
	if healthy == len(results) {
		a.Logger.Info("Application started", fields)
		return
	}
	a.Logger.Warn("Application started with unhealthy components", fields)
}

// formatHealth renders results as "name=status" pairs, appending the message
// of any component that is not healthy.
//
//	store=healthy, redis=degraded(ping timeout)
func formatHealth(results []component.Health) string {
	parts := make([]string, 0, len(results))
	for _, h := range results {
		s := h.Name + "=" + strings.ToLower(string(h.Status))
		if h.Status != component.StatusHealthy && h.Message != "" {
			s += "(" + h.Message + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}
