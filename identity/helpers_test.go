package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/ovaflus/ovaflus-auth/auth/federation"
	"github.com/ovaflus/ovaflus-auth/auth/jwks"
	"github.com/ovaflus/ovaflus-auth/auth/jwt"
	"github.com/ovaflus/ovaflus-auth/auth/password"
	"github.com/ovaflus/ovaflus-auth/logger"
	"github.com/ovaflus/ovaflus-auth/store/memory"
)

const testSecret = "identity-test-secret-0123456789"

// fakeIdentities accepts "valid-<email>" tokens.
type fakeIdentities struct {
	err   error
	calls []string
}

func (f *fakeIdentities) VerifyIdentity(_ context.Context, p jwks.Provider, raw string) (*jwks.Identity, error) {
	f.calls = append(f.calls, p.Name)
	if f.err != nil {
		return nil, f.err
	}
	const prefix = "valid-"
	if len(raw) <= len(prefix) || raw[:len(prefix)] != prefix {
		return nil, &jwks.VerifyError{Kind: jwks.KindSignatureInvalid, Reason: "bad signature"}
	}
	return &jwks.Identity{Provider: p.Name, Subject: "sub-1", Email: raw[len(prefix):]}, nil
}

type fakeBridge struct {
	err    error
	emails []string
}

func (f *fakeBridge) SignInViaIdentity(_ context.Context, email string) (*federation.FederatedTokens, error) {
	f.emails = append(f.emails, email)
	if f.err != nil {
		return nil, f.err
	}
	return &federation.FederatedTokens{
		AccessToken:  "fed-access",
		IDToken:      "fed-id",
		RefreshToken: "fed-refresh",
		ExpiresIn:    3600,
	}, nil
}

type testEnv struct {
	svc        *Service
	store      *memory.Store
	issuer     *jwt.Issuer
	identities *fakeIdentities
	bridge     *fakeBridge
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	issuer, err := jwt.NewIssuer(jwt.Config{Secret: testSecret})
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}
	env := &testEnv{
		store:      memory.New(),
		issuer:     issuer,
		identities: &fakeIdentities{},
		bridge:     &fakeBridge{},
	}
	hasher := password.NewArgon2Hasher(password.WithMemory(64), password.WithTime(1))
	env.svc, err = NewService(env.store, hasher, issuer, logger.Nop(),
		WithSocial(env.identities, env.bridge, jwks.Apple(""), jwks.Google("")))
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return env
}

var errUpstream = errors.New("connection reset")
