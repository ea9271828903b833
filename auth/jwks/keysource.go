package jwks

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ovaflus/ovaflus-auth/httpclient"
	"github.com/ovaflus/ovaflus-auth/logger"
	"github.com/ovaflus/ovaflus-auth/observability"
)

// KeySource supplies the key set published at a JWKS URL.
type KeySource interface {
	Fetch(ctx context.Context, jwksURL string) (*KeySet, error)
}

// Refetcher is a KeySource that can bypass its cache for one URL.
// The verifier uses it once when a kid is missing from a cached set.
type Refetcher interface {
	KeySource
	Refetch(ctx context.Context, jwksURL string) (*KeySet, error)
}

// HTTPKeySource fetches key sets directly from the issuer. It does not cache.
type HTTPKeySource struct {
	client  *httpclient.Client
	now     func() time.Time
	log     *logger.Logger
	metrics *observability.AuthMetrics
}

// NewHTTPKeySource creates a key source whose requests are bounded by timeout.
func NewHTTPKeySource(timeout time.Duration, log *logger.Logger, metrics *observability.AuthMetrics) (*HTTPKeySource, error) {
	client, err := httpclient.New(httpclient.Config{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("jwks: create http client: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &HTTPKeySource{
		client:  client,
		now:     time.Now,
		log:     log.WithComponent("jwks"),
		metrics: metrics,
	}, nil
}

// Fetch implements KeySource.
func (s *HTTPKeySource) Fetch(ctx context.Context, jwksURL string) (*KeySet, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanJWKSFetch,
		attribute.String(observability.AttrJWKSURL, jwksURL))
	defer span.End()

	start := s.now()
	var doc Document
	err := s.client.GetJSON(ctx, jwksURL, &doc)
	s.metrics.RecordJWKSFetch(ctx, err)
	if err != nil {
		observability.SetSpanError(span, err)
		fields := logger.ErrorFields("jwks_fetch", err)
		fields[logger.FieldIssuer] = jwksURL
		if httpclient.IsUnavailable(err) {
			s.log.Warn("JWKS fetch failed", fields)
		} else {
			// Not a transient failure: wrong URL or a malformed document.
			s.log.Error("JWKS fetch rejected", fields)
		}
		return nil, fmt.Errorf("fetch %s: %w", jwksURL, err)
	}

	set := NewKeySet(jwksURL, doc, s.now())
	fields := logger.DurationFields("jwks_fetch", s.now().Sub(start))
	fields[logger.FieldIssuer] = jwksURL
	fields["keys"] = len(set.Keys)
	s.log.Debug("JWKS fetched", fields)
	return set, nil
}
