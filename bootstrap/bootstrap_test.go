package bootstrap

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ovaflus/ovaflus-auth/component"
	"github.com/ovaflus/ovaflus-auth/config"
	"github.com/ovaflus/ovaflus-auth/logger"
)

type testConfig struct {
	config.ServiceConfig
}

// recorder collects lifecycle events in order.
type recorder struct{ events []string }

func (r *recorder) add(e string) { r.events = append(r.events, e) }

func (r *recorder) hook(e string) Hook {
	return func(context.Context) error {
		r.add(e)
		return nil
	}
}

type mockComponent struct {
	name     string
	rec      *recorder
	startErr error
	stopErr  error
	status   component.HealthStatus
}

func (m *mockComponent) Name() string { return m.name }

func (m *mockComponent) Start(context.Context) error {
	m.rec.add("start:" + m.name)
	return m.startErr
}

func (m *mockComponent) Stop(context.Context) error {
	m.rec.add("stop:" + m.name)
	return m.stopErr
}

func (m *mockComponent) Health(context.Context) component.Health {
	status := m.status
	if status == "" {
		status = component.StatusHealthy
	}
	return component.Health{Name: m.name, Status: status}
}

func newTestApp(t *testing.T, opts ...Option) *App[*testConfig] {
	t.Helper()
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Name: "test-svc", Version: "1.0.0"}}
	app, err := NewApp(cfg, append([]Option{WithLogger(logger.Nop())}, opts...)...)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func canceledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// ---------------------------------------------------------------------------
// NewApp
// ---------------------------------------------------------------------------

func TestNewApp(t *testing.T) {
	app := newTestApp(t)
	if app.Name != "test-svc" || app.Version != "1.0.0" {
		t.Errorf("unexpected identity %q %q", app.Name, app.Version)
	}
	if app.Cfg.Environment != "development" {
		t.Errorf("expected defaults to be applied, got environment %q", app.Cfg.Environment)
	}
	if app.Components == nil || app.Logger == nil {
		t.Error("expected registry and logger")
	}
	if app.gracefulTimeout != DefaultGracefulTimeout {
		t.Errorf("expected default timeout, got %v", app.gracefulTimeout)
	}
}

func TestNewApp_Validation(t *testing.T) {
	cfg := &testConfig{}
	if _, err := NewApp(cfg, WithLogger(logger.Nop())); err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestNewApp_GracefulTimeout(t *testing.T) {
	app := newTestApp(t, WithGracefulTimeout(30*time.Second))
	if app.gracefulTimeout != 30*time.Second {
		t.Errorf("expected 30s, got %v", app.gracefulTimeout)
	}
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func TestApp_Run_Order(t *testing.T) {
	app := newTestApp(t)
	rec := &recorder{}

	if err := app.RegisterComponent(&mockComponent{name: "store", rec: rec}); err != nil {
		t.Fatalf("RegisterComponent failed: %v", err)
	}
	app.OnStart(rec.hook("on-start"))
	app.OnConfigure(func(_ context.Context, a *App[*testConfig]) error {
		rec.add("configure")
		return a.RegisterComponent(&mockComponent{name: "http-server", rec: rec})
	})
	app.OnReady(rec.hook("on-ready"))
	app.OnStop(rec.hook("on-stop"))

	if err := app.Run(canceledContext()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{
		"start:store", "on-start", "configure", "start:http-server", "on-ready",
		"on-stop", "stop:http-server", "stop:store",
	}
	if strings.Join(rec.events, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v\nwant      %v", rec.events, want)
	}
}

func TestApp_Run_StartFailureStopsStarted(t *testing.T) {
	app := newTestApp(t)
	rec := &recorder{}
	_ = app.RegisterComponent(&mockComponent{name: "telemetry", rec: rec})
	_ = app.RegisterComponent(&mockComponent{name: "redis", rec: rec, startErr: errors.New("connection refused")})

	err := app.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "initialization failed") {
		t.Fatalf("expected initialization error, got %v", err)
	}
	want := "start:telemetry,start:redis,stop:telemetry"
	if got := strings.Join(rec.events, ","); got != want {
		t.Errorf("events = %s, want %s", got, want)
	}
}

func TestApp_Run_ConfigureError(t *testing.T) {
	app := newTestApp(t)
	app.OnConfigure(func(context.Context, *App[*testConfig]) error {
		return errors.New("bad wiring")
	})
	err := app.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "bad wiring") {
		t.Fatalf("expected configure error, got %v", err)
	}
}

func TestApp_Run_StopError(t *testing.T) {
	app := newTestApp(t)
	rec := &recorder{}
	_ = app.RegisterComponent(&mockComponent{name: "store", rec: rec, stopErr: errors.New("close failed")})

	if err := app.Run(canceledContext()); err == nil {
		t.Fatal("expected stop error to be returned")
	}
}

func TestApp_Shutdown_RunsStopHooks(t *testing.T) {
	app := newTestApp(t)
	rec := &recorder{}
	app.OnStop(rec.hook("first"), func(context.Context) error { return errors.New("drain failed") })

	if err := app.Shutdown(context.Background()); err == nil {
		t.Error("expected hook error")
	}
	if len(rec.events) != 1 || rec.events[0] != "first" {
		t.Errorf("unexpected events %v", rec.events)
	}
}

func TestApp_WaitForSignal_ContextCanceled(t *testing.T) {
	app := newTestApp(t)
	done := make(chan struct{})
	go func() {
		app.WaitForSignal(canceledContext())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitForSignal did not return on canceled context")
	}
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

func TestApp_ReadyCheck(t *testing.T) {
	app := newTestApp(t)
	rec := &recorder{}
	if err := app.ReadyCheck(context.Background()); err != nil {
		t.Errorf("expected empty registry to be ready, got %v", err)
	}

	_ = app.RegisterComponent(&mockComponent{name: "store", rec: rec})
	_ = app.RegisterComponent(&mockComponent{name: "jwks-cache", rec: rec, status: component.StatusDegraded})

	err := app.ReadyCheck(context.Background())
	if err == nil || !strings.Contains(err.Error(), "jwks-cache=degraded") {
		t.Errorf("expected degraded component in error, got %v", err)
	}
	if strings.Contains(err.Error(), "store") {
		t.Errorf("healthy component listed: %v", err)
	}
}

func TestFormatHealth(t *testing.T) {
	got := formatHealth([]component.Health{
		{Name: "store", Status: component.StatusHealthy, Message: "3 users"},
		{Name: "redis", Status: component.StatusUnhealthy, Message: "ping timeout"},
	})
	if want := "store=healthy, redis=unhealthy(ping timeout)"; got != want {
		t.Errorf("formatHealth = %q, want %q", got, want)
	}
}
