package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/ovaflus/ovaflus-auth/auth"
	"github.com/ovaflus/ovaflus-auth/auth/federation"
	"github.com/ovaflus/ovaflus-auth/auth/jwks"
	"github.com/ovaflus/ovaflus-auth/auth/jwt"
	"github.com/ovaflus/ovaflus-auth/auth/password"
	apperrors "github.com/ovaflus/ovaflus-auth/errors"
	"github.com/ovaflus/ovaflus-auth/logger"
)

func assertAppError(t *testing.T, err error, status int, message string) {
	t.Helper()
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}
	if appErr.HTTPStatus != status {
		t.Errorf("status = %d, want %d (%v)", appErr.HTTPStatus, status, err)
	}
	if message != "" && appErr.Message != message {
		t.Errorf("message = %q, want %q", appErr.Message, message)
	}
}

// ---------------------------------------------------------------------------
// SignUp / SignIn
// ---------------------------------------------------------------------------

func TestService_SignUp_IssuesTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.svc.SignUp(ctx, SignUpRequest{Email: "  Alice@Example.com ", Password: "correct-horse", Name: " Alice "})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	claims, err := env.issuer.Validate(resp.AccessToken, auth.ClassAccess)
	if err != nil {
		t.Fatalf("access token invalid: %v", err)
	}
	if claims.Subject != resp.UserID {
		t.Errorf("subject %q != user id %q", claims.Subject, resp.UserID)
	}
	if _, err := env.issuer.Validate(resp.RefreshToken, auth.ClassRefresh); err != nil {
		t.Errorf("refresh token invalid: %v", err)
	}

	user, err := env.store.FindByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("expected normalized email to be stored: %v", err)
	}
	if user.Name != "Alice" {
		t.Errorf("expected trimmed name, got %q", user.Name)
	}
	if user.PasswordHash == "correct-horse" {
		t.Error("password stored in plain text")
	}
}

func TestService_SignUp_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	req := SignUpRequest{Email: "a@example.com", Password: "password1", Name: "A"}

	if _, err := env.svc.SignUp(ctx, req); err != nil {
		t.Fatalf("first SignUp failed: %v", err)
	}
	req.Email = "A@EXAMPLE.COM"
	_, err := env.svc.SignUp(ctx, req)
	assertAppError(t, err, http.StatusConflict, "Email already registered")
}

func TestService_SignIn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	up, err := env.svc.SignUp(ctx, SignUpRequest{Email: "a@example.com", Password: "password1", Name: "A"})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	resp, err := env.svc.SignIn(ctx, SignInRequest{Email: "A@example.com", Password: "password1"})
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if resp.UserID != up.UserID {
		t.Errorf("expected same user id, got %q", resp.UserID)
	}
}

func TestService_SignIn_FailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.svc.SignUp(ctx, SignUpRequest{Email: "a@example.com", Password: "password1", Name: "A"}); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	_, wrongPassword := env.svc.SignIn(ctx, SignInRequest{Email: "a@example.com", Password: "password2"})
	_, unknownEmail := env.svc.SignIn(ctx, SignInRequest{Email: "nobody@example.com", Password: "password1"})

	assertAppError(t, wrongPassword, http.StatusUnauthorized, "Invalid email or password")
	assertAppError(t, unknownEmail, http.StatusUnauthorized, "Invalid email or password")
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Errorf("errors differ: %q vs %q", wrongPassword, unknownEmail)
	}
}

// ---------------------------------------------------------------------------
// Refresh
// ---------------------------------------------------------------------------

func TestService_Refresh(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	up, err := env.svc.SignUp(ctx, SignUpRequest{Email: "a@example.com", Password: "password1", Name: "A"})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	resp, err := env.svc.Refresh(ctx, RefreshRequest{RefreshToken: up.RefreshToken})
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if resp.UserID != up.UserID {
		t.Errorf("expected subject to carry over, got %q", resp.UserID)
	}

	// The presented refresh token is not revoked.
	if _, err := env.svc.Refresh(ctx, RefreshRequest{RefreshToken: up.RefreshToken}); err != nil {
		t.Errorf("expected refresh token reuse to succeed: %v", err)
	}
}

func TestService_Refresh_RejectsAccessToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	up, err := env.svc.SignUp(ctx, SignUpRequest{Email: "a@example.com", Password: "password1", Name: "A"})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	_, err = env.svc.Refresh(ctx, RefreshRequest{RefreshToken: up.AccessToken})
	assertAppError(t, err, http.StatusUnauthorized, "Unauthorized")
}

// signFailingIssuer validates refresh tokens but cannot sign new ones.
type signFailingIssuer struct {
	*jwt.Issuer
}

func (f signFailingIssuer) Refresh(token string) (*jwt.TokenPair, error) {
	if _, err := f.Validate(token, auth.ClassRefresh); err != nil {
		return nil, err
	}
	return nil, errors.New("jwt: sign access token: key unavailable")
}

func TestService_Refresh_SigningFailureIsInternal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	up, err := env.svc.SignUp(ctx, SignUpRequest{Email: "a@example.com", Password: "password1", Name: "A"})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	hasher := password.NewArgon2Hasher(password.WithMemory(64), password.WithTime(1))
	svc, err := NewService(env.store, hasher, signFailingIssuer{env.issuer}, logger.Nop())
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	_, err = svc.Refresh(ctx, RefreshRequest{RefreshToken: up.RefreshToken})
	assertAppError(t, err, http.StatusInternalServerError, "")

	_, err = svc.Refresh(ctx, RefreshRequest{RefreshToken: "garbage"})
	assertAppError(t, err, http.StatusUnauthorized, "Unauthorized")
}

// ---------------------------------------------------------------------------
// Social sign-in
// ---------------------------------------------------------------------------

func TestService_SignInWithProvider(t *testing.T) {
	env := newTestEnv(t)

	tokens, err := env.svc.SignInWithProvider(context.Background(), "google", "valid-Bob@Example.com")
	if err != nil {
		t.Fatalf("SignInWithProvider failed: %v", err)
	}
	if tokens.AccessToken != "fed-access" || tokens.ExpiresIn != 3600 {
		t.Errorf("unexpected tokens %+v", tokens)
	}
	if len(env.bridge.emails) != 1 || env.bridge.emails[0] != "bob@example.com" {
		t.Errorf("expected normalized email at the bridge, got %v", env.bridge.emails)
	}
}

func TestService_SignInWithProvider_Failures(t *testing.T) {
	tests := []struct {
		name       string
		provider   string
		token      string
		verifyErr  error
		bridgeErr  error
		wantStatus int
	}{
		{"unknown provider", "github", "valid-a@b.c", nil, nil, http.StatusNotFound},
		{"invalid token", "apple", "forged", nil, nil, http.StatusUnauthorized},
		{"keys unavailable", "apple", "valid-a@b.c",
			&jwks.VerifyError{Kind: jwks.KindUpstreamUnavailable, Reason: "fetch"}, nil, http.StatusServiceUnavailable},
		{"bridge timeout", "apple", "valid-a@b.c", nil,
			&federation.Error{Kind: federation.KindUpstreamUnavailable, Step: federation.StepCreateUser, Cause: context.DeadlineExceeded},
			http.StatusServiceUnavailable},
		{"bridge failure", "google", "valid-a@b.c", nil,
			&federation.Error{Kind: federation.KindNoSession, Step: federation.StepInitiateAuth}, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.identities.err = tc.verifyErr
			env.bridge.err = tc.bridgeErr

			_, err := env.svc.SignInWithProvider(context.Background(), tc.provider, tc.token)
			assertAppError(t, err, tc.wantStatus, "")
		})
	}
}

func TestService_SocialDisabled(t *testing.T) {
	env := newTestEnv(t)
	svc, err := NewService(env.store, password.NewArgon2Hasher(password.WithMemory(64), password.WithTime(1)), env.issuer, nil)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	if svc.SocialEnabled("apple") {
		t.Error("expected apple to be disabled without a bridge")
	}
	_, err = svc.SignInWithProvider(context.Background(), "apple", "valid-a@b.c")
	assertAppError(t, err, http.StatusNotFound, "")
}

// ---------------------------------------------------------------------------
// Profile
// ---------------------------------------------------------------------------

func TestService_Profile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	up, err := env.svc.SignUp(ctx, SignUpRequest{Email: "a@example.com", Password: "password1", Name: "A"})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	profile, err := env.svc.Profile(ctx, up.UserID)
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if profile.Email != "a@example.com" || profile.Name != "A" {
		t.Errorf("unexpected profile %+v", profile)
	}

	_, err = env.svc.Profile(ctx, "missing")
	assertAppError(t, err, http.StatusNotFound, "User not found")
}

func TestService_UpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	up, err := env.svc.SignUp(ctx, SignUpRequest{Email: "a@example.com", Password: "password1", Name: "A"})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	currency, enabled := "eur", true
	profile, err := env.svc.UpdateProfile(ctx, up.UserID, ProfileUpdateRequest{Currency: &currency, NotificationsEnabled: &enabled})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if profile.Currency != "EUR" || !profile.NotificationsEnabled || profile.Name != "A" {
		t.Errorf("unexpected profile %+v", profile)
	}

	_, err = env.svc.UpdateProfile(ctx, up.UserID, ProfileUpdateRequest{})
	assertAppError(t, err, http.StatusBadRequest, "No fields to update")

	name := "B"
	_, err = env.svc.UpdateProfile(ctx, "missing", ProfileUpdateRequest{Name: &name})
	assertAppError(t, err, http.StatusNotFound, "User not found")
}

func TestService_UpdateProfile_ValidatesTrimmedValues(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	up, err := env.svc.SignUp(ctx, SignUpRequest{Email: "a@example.com", Password: "password1", Name: "A"})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	blank := "   "
	_, err = env.svc.UpdateProfile(ctx, up.UserID, ProfileUpdateRequest{Name: &blank})
	assertAppError(t, err, http.StatusBadRequest, "")

	short := " us"
	_, err = env.svc.UpdateProfile(ctx, up.UserID, ProfileUpdateRequest{Currency: &short})
	assertAppError(t, err, http.StatusBadRequest, "")

	padded := " usd "
	profile, err := env.svc.UpdateProfile(ctx, up.UserID, ProfileUpdateRequest{Currency: &padded})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if profile.Currency != "USD" || profile.Name != "A" {
		t.Errorf("unexpected profile %+v", profile)
	}
}

func TestService_SignUp_BlankName(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.SignUp(context.Background(), SignUpRequest{Email: "a@example.com", Password: "password1", Name: "   "})
	assertAppError(t, err, http.StatusBadRequest, "")
}

func TestStoreError_Deadline(t *testing.T) {
	err := storeError(fmt.Errorf("query: %w", context.DeadlineExceeded))
	assertAppError(t, err, http.StatusServiceUnavailable, "")

	err = storeError(errUpstream)
	assertAppError(t, err, http.StatusInternalServerError, "")
	if !errors.Is(err, errUpstream) {
		t.Error("expected cause to be kept for logs")
	}
}
