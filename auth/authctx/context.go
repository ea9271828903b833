// Package authctx carries verified identity claims through a request context.
//
//	ctx = authctx.Set(ctx, claims)        // in the authenticator
//	claims, ok := authctx.Get(ctx)        // in handlers
//	userID, err := authctx.Subject(ctx)
package authctx

import (
	"context"
	"errors"

	"github.com/ovaflus/ovaflus-auth/auth"
)

type contextKey struct{}

var claimsKey = contextKey{}

// ErrNoClaims is returned when no claims are stored in the context.
var ErrNoClaims = errors.New("authctx: no claims in context")

// Set stores verified claims in the context.
func Set(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// Get returns the claims stored by Set.
func Get(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}

// Subject returns the authenticated user id, or ErrNoClaims.
func Subject(ctx context.Context) (string, error) {
	claims, ok := Get(ctx)
	if !ok || claims.Subject == "" {
		return "", ErrNoClaims
	}
	return claims.Subject, nil
}
