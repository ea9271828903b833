// Package jwt mints and validates the service's own HS256 session tokens.
//
// Tokens carry {sub, iat, exp, token_type}. An access token lives one hour
// and a refresh token seven days; both are signed with the same secret.
//
//	issuer, err := jwt.NewIssuer(cfg)
//	pair, err := issuer.Issue(userID)
//	claims, err := issuer.Validate(pair.AccessToken, auth.ClassAccess)
//
// Validate never says why a token was rejected: every failure is
// auth.ErrUnauthorized and the reason goes to the debug log.
package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/ovaflus/ovaflus-auth/auth"
	"github.com/ovaflus/ovaflus-auth/logger"
	"github.com/ovaflus/ovaflus-auth/observability"
)

// TokenPair is the result of a successful sign-up, sign-in or refresh.
type TokenPair struct {
	Subject      string
	AccessToken  string
	RefreshToken string
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64
}

// tokenClaims is the wire payload of a local token.
type tokenClaims struct {
	gojwt.RegisteredClaims
	TokenType auth.TokenClass `json:"token_type"`
}

// Issuer mints and validates local tokens.
type Issuer struct {
	cfg     Config
	secret  []byte
	now     func() time.Time
	log     *logger.Logger
	metrics *observability.AuthMetrics
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithLogger sets the logger used for rejection reasons.
func WithLogger(l *logger.Logger) Option {
	return func(i *Issuer) { i.log = l.WithComponent("jwt") }
}

// WithMetrics records issued tokens and verification outcomes.
func WithMetrics(m *observability.AuthMetrics) Option {
	return func(i *Issuer) { i.metrics = m }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer creates an Issuer. The secret is copied and never logged.
func NewIssuer(cfg Config, opts ...Option) (*Issuer, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	i := &Issuer{
		cfg:    cfg,
		secret: []byte(cfg.Secret),
		now:    time.Now,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue mints an access and a refresh token for subject.
func (i *Issuer) Issue(subject string) (*TokenPair, error) {
	if subject == "" {
		return nil, errors.New("jwt: empty subject")
	}
	now := i.now()

	access, err := i.sign(subject, auth.ClassAccess, now, i.cfg.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := i.sign(subject, auth.ClassRefresh, now, i.cfg.RefreshTTL)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	i.metrics.RecordIssued(ctx, string(auth.ClassAccess))
	i.metrics.RecordIssued(ctx, string(auth.ClassRefresh))
	return &TokenPair{
		Subject:      subject,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(i.cfg.AccessTTL / time.Second),
	}, nil
}

func (i *Issuer) sign(subject string, class auth.TokenClass, now time.Time, ttl time.Duration) (string, error) {
	claims := tokenClaims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: class,
	}
	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign %s token: %w", class, err)
	}
	return signed, nil
}

// Validate checks signature, algorithm, required claims, expiry and class.
// Any failure returns auth.ErrUnauthorized.
func (i *Issuer) Validate(token string, expected auth.TokenClass) (*auth.Claims, error) {
	claims, err := i.parse(token, expected)
	if err != nil {
		i.log.Debug("Local token rejected", logger.Fields(logger.FieldError, err.Error(), "expected_class", string(expected)))
		return nil, auth.ErrUnauthorized
	}
	return claims, nil
}

func (i *Issuer) parse(token string, expected auth.TokenClass) (*auth.Claims, error) {
	var tc tokenClaims
	_, err := gojwt.ParseWithClaims(token, &tc,
		func(*gojwt.Token) (interface{}, error) { return i.secret, nil },
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithIssuedAt(),
		gojwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, err
	}
	if tc.IssuedAt == nil {
		return nil, errors.New("missing iat")
	}

	claims := &auth.Claims{
		Subject:    tc.Subject,
		IssuedAt:   tc.IssuedAt.Unix(),
		ExpiresAt:  tc.ExpiresAt.Unix(),
		TokenClass: tc.TokenType,
	}
	if err := claims.Check(expected); err != nil {
		return nil, err
	}
	return claims, nil
}

// Refresh validates a refresh token and issues a new pair for its subject.
// The presented refresh token stays valid until it expires.
func (i *Issuer) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := i.Validate(refreshToken, auth.ClassRefresh)
	if err != nil {
		return nil, err
	}
	return i.Issue(claims.Subject)
}

// Verifier returns the bearer-token verifier for local mode. It accepts
// access tokens only.
func (i *Issuer) Verifier() auth.TokenVerifier {
	return auth.VerifierFunc(func(ctx context.Context, token string) (*auth.Claims, error) {
		claims, err := i.Validate(token, auth.ClassAccess)
		if err != nil {
			i.metrics.RecordVerification(ctx, "local", "rejected")
			return nil, err
		}
		i.metrics.RecordVerification(ctx, "local", "")
		return claims, nil
	})
}
