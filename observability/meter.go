package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMeter installs a periodic OTLP/HTTP meter provider as the global provider.
// The caller shuts it down on exit.
func InitMeter(ctx context.Context, cfg Config, svc ServiceInfo) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(ctx, svc)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.MetricInterval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Verification outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// AuthMetrics holds the instruments recorded by the authentication paths.
// A nil *AuthMetrics records nothing.
type AuthMetrics struct {
	verifications      metric.Int64Counter
	tokensIssued       metric.Int64Counter
	jwksFetches        metric.Int64Counter
	federationTotal    metric.Int64Counter
	federationDuration metric.Float64Histogram
}

// NewAuthMetrics creates the instruments on meter.
func NewAuthMetrics(meter metric.Meter) (*AuthMetrics, error) {
	verifications, err := meter.Int64Counter("auth.verifications",
		metric.WithDescription("Token verifications by verifier and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.verifications counter: %w", err)
	}

	tokensIssued, err := meter.Int64Counter("auth.tokens_issued",
		metric.WithDescription("Local tokens issued by class"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.tokens_issued counter: %w", err)
	}

	jwksFetches, err := meter.Int64Counter("auth.jwks_fetches",
		metric.WithDescription("Key set fetches from remote JWKS endpoints"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.jwks_fetches counter: %w", err)
	}

	federationTotal, err := meter.Int64Counter("auth.federation_sign_ins",
		metric.WithDescription("Federation bridge sign-ins by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.federation_sign_ins counter: %w", err)
	}

	federationDuration, err := meter.Float64Histogram("auth.federation_duration",
		metric.WithDescription("Duration of federation bridge sign-ins"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.federation_duration histogram: %w", err)
	}

	return &AuthMetrics{
		verifications:      verifications,
		tokensIssued:       tokensIssued,
		jwksFetches:        jwksFetches,
		federationTotal:    federationTotal,
		federationDuration: federationDuration,
	}, nil
}

// NewGlobalAuthMetrics creates the instruments on the global meter provider.
func NewGlobalAuthMetrics() (*AuthMetrics, error) {
	return NewAuthMetrics(otel.Meter(instrumentationName))
}

// RecordVerification records one verification. kind is empty on success.
func (m *AuthMetrics) RecordVerification(ctx context.Context, verifier, kind string) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if kind != "" {
		outcome = OutcomeFailure
	}
	m.verifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("verifier", verifier),
		attribute.String("outcome", outcome),
		attribute.String("kind", kind),
	))
}

// RecordIssued records one issued local token.
func (m *AuthMetrics) RecordIssued(ctx context.Context, class string) {
	if m == nil {
		return
	}
	m.tokensIssued.Add(ctx, 1, metric.WithAttributes(attribute.String("class", class)))
}

// RecordJWKSFetch records one key set fetch.
func (m *AuthMetrics) RecordJWKSFetch(ctx context.Context, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.jwksFetches.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordFederation records one federation bridge call. kind is empty on success.
func (m *AuthMetrics) RecordFederation(ctx context.Context, kind string, d time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if kind != "" {
		outcome = OutcomeFailure
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome), attribute.String("kind", kind))
	m.federationTotal.Add(ctx, 1, attrs)
	m.federationDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("outcome", outcome)))
}
