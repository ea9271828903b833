package auth

import (
	"context"
	"errors"
)

// ErrUnauthorized is the single error every credential or token failure
// collapses to. Wrapped errors keep their detail for logs only.
var ErrUnauthorized = errors.New("unauthorized")

// TokenClass distinguishes short-lived access tokens from refresh tokens.
type TokenClass string

const (
	ClassAccess  TokenClass = "access"
	ClassRefresh TokenClass = "refresh"
)

// Valid reports whether c is a known token class.
func (c TokenClass) Valid() bool {
	return c == ClassAccess || c == ClassRefresh
}

// Claims is the verified identity handed to downstream handlers.
type Claims struct {
	// Subject is the stable user identifier.
	Subject string `json:"sub"`
	// IssuedAt and ExpiresAt are seconds since the epoch.
	IssuedAt   int64      `json:"iat"`
	ExpiresAt  int64      `json:"exp"`
	TokenClass TokenClass `json:"token_type"`
}

// Check enforces the invariants every verified token must satisfy.
func (c *Claims) Check(expected TokenClass) error {
	switch {
	case c.Subject == "":
		return errors.New("missing subject")
	case c.ExpiresAt <= c.IssuedAt:
		return errors.New("expiry not after issue time")
	case !c.TokenClass.Valid():
		return errors.New("unknown token class")
	case c.TokenClass != expected:
		return errors.New("unexpected token class")
	}
	return nil
}

// TokenVerifier validates a bearer token and returns the identity it carries.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// VerifierFunc adapts an ordinary function to TokenVerifier.
type VerifierFunc func(ctx context.Context, token string) (*Claims, error)

// Verify implements TokenVerifier.
func (f VerifierFunc) Verify(ctx context.Context, token string) (*Claims, error) {
	return f(ctx, token)
}
