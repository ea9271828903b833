package jwks

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ovaflus/ovaflus-auth/logger"
	"github.com/ovaflus/ovaflus-auth/observability"
)

// allowedAlgs are the asymmetric algorithms accepted from remote issuers.
// HS*, none and anything else are rejected before any key lookup.
var allowedAlgs = []string{"RS256", "RS384", "RS512", "ES256", "ES384", "ES512"}

// Expectations are the claim checks applied after the signature.
// Empty fields are not checked; exp is always required.
type Expectations struct {
	// Audience must appear in aud.
	Audience string
	// Issuers lists the accepted iss values.
	Issuers []string
	// TokenUse must equal the token_use claim.
	TokenUse string
}

// Token is a verified remote token.
type Token struct {
	Header map[string]interface{}
	Claims gojwt.MapClaims
}

// Subject returns the sub claim.
func (t *Token) Subject() string { return t.stringClaim("sub") }

// Email returns the email claim.
func (t *Token) Email() string { return t.stringClaim("email") }

// EmailVerified reports whether email_verified is true. Google sends a bool,
// Apple sends the string "true".
func (t *Token) EmailVerified() bool {
	switch v := t.Claims["email_verified"].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}

// TokenUse returns the token_use claim set by Cognito.
func (t *Token) TokenUse() string { return t.stringClaim("token_use") }

// Issuer returns the iss claim.
func (t *Token) Issuer() string { return t.stringClaim("iss") }

// ExpiresAt returns the exp claim.
func (t *Token) ExpiresAt() time.Time { return t.timeClaim(t.Claims.GetExpirationTime) }

// IssuedAt returns the iat claim, or the zero time if absent.
func (t *Token) IssuedAt() time.Time { return t.timeClaim(t.Claims.GetIssuedAt) }

func (t *Token) stringClaim(name string) string {
	s, _ := t.Claims[name].(string)
	return s
}

func (t *Token) timeClaim(get func() (*gojwt.NumericDate, error)) time.Time {
	d, err := get()
	if err != nil || d == nil {
		return time.Time{}
	}
	return d.Time
}

// Verifier checks tokens signed by remote issuers against their published keys.
type Verifier struct {
	keys    KeySource
	leeway  time.Duration
	now     func() time.Time
	log     *logger.Logger
	metrics *observability.AuthMetrics
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithLogger sets the logger used for rejection reasons.
func WithLogger(l *logger.Logger) Option {
	return func(v *Verifier) { v.log = l.WithComponent("jwks") }
}

// WithMetrics records verification outcomes.
func WithMetrics(m *observability.AuthMetrics) Option {
	return func(v *Verifier) { v.metrics = m }
}

// WithClock overrides the time source used for exp, nbf and iat.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) { v.now = now }
}

// WithLeeway sets the allowed clock skew.
func WithLeeway(d time.Duration) Option {
	return func(v *Verifier) { v.leeway = d }
}

// NewVerifier creates a Verifier reading keys from keys.
func NewVerifier(keys KeySource, opts ...Option) *Verifier {
	v := &Verifier{
		keys:   keys,
		leeway: DefaultLeeway,
		now:    time.Now,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify checks raw against the key set at jwksURL and the given expectations.
// Every failure is a *VerifyError.
func (v *Verifier) Verify(ctx context.Context, raw, jwksURL string, exp Expectations) (*Token, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanJWKSVerify,
		attribute.String(observability.AttrJWKSURL, jwksURL))
	defer span.End()

	tok, err := v.verify(ctx, raw, jwksURL, exp)
	if err != nil {
		kind, _ := KindOf(err)
		span.SetAttributes(attribute.String(observability.AttrErrorKind, kind.String()))
		observability.SetSpanError(span, err)
		v.log.WithContext(ctx).Debug("Remote token rejected", logger.Fields(
			logger.FieldKind, kind.String(),
			logger.FieldError, err.Error(),
		))
		return nil, err
	}
	return tok, nil
}

func (v *Verifier) verify(ctx context.Context, raw, jwksURL string, exp Expectations) (*Token, error) {
	if strings.Count(raw, ".") != 2 {
		return nil, newError(KindBadFormat, "token must have three segments", nil)
	}

	parser := gojwt.NewParser()
	unverified, _, err := parser.ParseUnverified(raw, gojwt.MapClaims{})
	if err != nil {
		return nil, newError(KindBadFormat, "undecodable token", err)
	}
	alg, _ := unverified.Header["alg"].(string)
	if !slices.Contains(allowedAlgs, alg) {
		return nil, newError(KindBadFormat, "unsupported algorithm "+strconv.Quote(alg), nil)
	}
	kid, _ := unverified.Header["kid"].(string)

	key, err := v.lookupKey(ctx, jwksURL, kid)
	if err != nil {
		return nil, err
	}
	if !key.compatible(alg) {
		return nil, newError(KindSignatureInvalid, "key "+strconv.Quote(kid)+" cannot verify "+alg, nil)
	}
	pub, err := key.PublicKey()
	if err != nil {
		return nil, newError(KindSignatureInvalid, "unusable key "+strconv.Quote(kid), err)
	}

	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{alg}),
		gojwt.WithExpirationRequired(),
		gojwt.WithIssuedAt(),
		gojwt.WithLeeway(v.leeway),
		gojwt.WithTimeFunc(v.now),
	}
	if exp.Audience != "" {
		opts = append(opts, gojwt.WithAudience(exp.Audience))
	}

	claims := gojwt.MapClaims{}
	parsed, err := gojwt.ParseWithClaims(raw, claims, func(*gojwt.Token) (interface{}, error) {
		return pub, nil
	}, opts...)
	if err != nil {
		return nil, classifyParseError(err)
	}

	if len(exp.Issuers) > 0 {
		iss, _ := claims.GetIssuer()
		if !slices.Contains(exp.Issuers, iss) {
			return nil, newError(KindClaimInvalid, "unexpected issuer "+strconv.Quote(iss), nil)
		}
	}
	if exp.TokenUse != "" {
		if use, _ := claims["token_use"].(string); use != exp.TokenUse {
			return nil, newError(KindClaimInvalid, "unexpected token_use "+strconv.Quote(use), nil)
		}
	}

	return &Token{Header: parsed.Header, Claims: claims}, nil
}

// lookupKey finds kid in the key set, refetching once on a miss when the
// source supports it.
func (v *Verifier) lookupKey(ctx context.Context, jwksURL, kid string) (JWK, error) {
	set, err := v.keys.Fetch(ctx, jwksURL)
	if err != nil {
		return JWK{}, newError(KindUpstreamUnavailable, "key set unavailable", err)
	}
	if key, ok := set.Lookup(kid); ok {
		return key, nil
	}

	r, ok := v.keys.(Refetcher)
	if !ok || kid == "" {
		return JWK{}, newError(KindUnknownKey, "no key "+strconv.Quote(kid), nil)
	}
	set, err = r.Refetch(ctx, jwksURL)
	if err != nil {
		return JWK{}, newError(KindUpstreamUnavailable, "key set unavailable", err)
	}
	if key, ok := set.Lookup(kid); ok {
		return key, nil
	}
	return JWK{}, newError(KindUnknownKey, "no key "+strconv.Quote(kid), nil)
}

func classifyParseError(err error) *VerifyError {
	switch {
	case errors.Is(err, gojwt.ErrTokenSignatureInvalid):
		return newError(KindSignatureInvalid, "signature mismatch", err)
	case errors.Is(err, gojwt.ErrTokenMalformed):
		return newError(KindBadFormat, "malformed token", err)
	case errors.Is(err, gojwt.ErrTokenInvalidClaims):
		return newError(KindClaimInvalid, "claims rejected", err)
	default:
		return newError(KindBadFormat, "unverifiable token", err)
	}
}
