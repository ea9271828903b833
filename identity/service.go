// Package identity implements account sign-up, sign-in, token refresh,
// social sign-in and profile management on top of the credential store,
// the local token issuer and the federation bridge.
package identity

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ovaflus/ovaflus-auth/auth"
	"github.com/ovaflus/ovaflus-auth/auth/federation"
	"github.com/ovaflus/ovaflus-auth/auth/jwks"
	"github.com/ovaflus/ovaflus-auth/auth/jwt"
	"github.com/ovaflus/ovaflus-auth/auth/password"
	"github.com/ovaflus/ovaflus-auth/errors"
	"github.com/ovaflus/ovaflus-auth/logger"
	"github.com/ovaflus/ovaflus-auth/store"
	"github.com/ovaflus/ovaflus-auth/validation"
)

const (
	msgInvalidCredentials = "Invalid email or password"
	msgEmailRegistered    = "Email already registered"
	msgNoFields           = "No fields to update"
)

// TokenIssuer mints local token pairs. *jwt.Issuer implements it.
type TokenIssuer interface {
	Issue(subject string) (*jwt.TokenPair, error)
	Refresh(refreshToken string) (*jwt.TokenPair, error)
}

// IdentityVerifier verifies a third-party identity token.
type IdentityVerifier interface {
	VerifyIdentity(ctx context.Context, p jwks.Provider, raw string) (*jwks.Identity, error)
}

// Bridge exchanges a verified email for federated pool tokens.
type Bridge interface {
	SignInViaIdentity(ctx context.Context, email string) (*federation.FederatedTokens, error)
}

// Service implements the identity operations.
type Service struct {
	users  store.Store
	hasher password.Hasher
	issuer TokenIssuer
	log    *logger.Logger

	identities IdentityVerifier
	bridge     Bridge
	providers  map[string]jwks.Provider

	// dummyHash is verified against when the email is unknown so both
	// sign-in failure paths cost one hash computation.
	dummyHash string
}

// Option configures a Service.
type Option func(*Service)

// WithSocial enables Apple and Google sign-in.
func WithSocial(v IdentityVerifier, b Bridge, providers ...jwks.Provider) Option {
	return func(s *Service) {
		s.identities = v
		s.bridge = b
		for _, p := range providers {
			s.providers[p.Name] = p
		}
	}
}

// NewService creates the identity service.
func NewService(users store.Store, hasher password.Hasher, issuer TokenIssuer, log *logger.Logger, opts ...Option) (*Service, error) {
	if log == nil {
		log = logger.Nop()
	}
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, err
	}
	s := &Service{
		users:     users,
		hasher:    hasher,
		issuer:    issuer,
		log:       log.WithComponent("identity"),
		providers: make(map[string]jwks.Provider),
		dummyHash: dummy,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SocialEnabled reports whether the named provider can be used.
func (s *Service) SocialEnabled(provider string) bool {
	_, ok := s.providers[provider]
	return ok && s.identities != nil && s.bridge != nil
}

// SignUp registers a new account and returns a fresh token pair.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*AuthResponse, error) {
	req.normalize()
	if err := validation.Validate(&req); err != nil {
		return nil, err
	}
	email := req.Email
	log := s.log.WithContext(ctx)

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, errors.Internal(err)
	}

	now := time.Now().UTC()
	user := &store.User{
		UserID:       uuid.NewString(),
		Email:        email,
		Name:         req.Name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if stderrors.Is(err, store.ErrEmailTaken) {
			return nil, errors.Conflict(msgEmailRegistered)
		}
		return nil, storeError(err)
	}
	log.Info("User registered", logger.Fields("user_id", user.UserID, "email", logger.MaskEmail(email)))

	return s.issue(user.UserID)
}

// SignIn checks an email and password and returns a fresh token pair.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, req SignInRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !stderrors.Is(err, store.ErrNotFound) {
			return nil, storeError(err)
		}
		_ = s.hasher.Verify(req.Password, s.dummyHash)
		s.log.WithContext(ctx).Debug("Sign-in rejected", logger.Fields("reason", "unknown email"))
		return nil, errors.Unauthorized(msgInvalidCredentials)
	}

	if err := s.hasher.Verify(req.Password, user.PasswordHash); err != nil {
		s.log.WithContext(ctx).Debug("Sign-in rejected", logger.Fields("reason", "password mismatch", "user_id", user.UserID))
		return nil, errors.Unauthorized(msgInvalidCredentials)
	}
	return s.issue(user.UserID)
}

// Refresh exchanges a refresh token for a new pair. The presented token
// stays valid until it expires.
func (s *Service) Refresh(_ context.Context, req RefreshRequest) (*AuthResponse, error) {
	pair, err := s.issuer.Refresh(req.RefreshToken)
	if err != nil {
		if stderrors.Is(err, auth.ErrUnauthorized) {
			return nil, errors.Unauthorized("")
		}
		return nil, errors.Internal(err)
	}
	return &AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		UserID:       pair.Subject,
	}, nil
}

// SignInWithProvider verifies a third-party identity token and signs the
// verified email into the federated pool.
func (s *Service) SignInWithProvider(ctx context.Context, provider, token string) (*federation.FederatedTokens, error) {
	p, ok := s.providers[provider]
	if !ok || s.identities == nil || s.bridge == nil {
		return nil, errors.NotFound("sign-in provider")
	}

	id, err := s.identities.VerifyIdentity(ctx, p, token)
	if err != nil {
		if kind, ok := jwks.KindOf(err); ok && kind == jwks.KindUpstreamUnavailable {
			return nil, errors.UpstreamUnavailable(provider+" key service", err)
		}
		return nil, errors.Unauthorized("")
	}

	tokens, err := s.bridge.SignInViaIdentity(ctx, normalizeEmail(id.Email))
	if err != nil {
		if kind, ok := federation.KindOf(err); ok && kind == federation.KindUpstreamUnavailable {
			return nil, errors.UpstreamUnavailable("identity provider", err)
		}
		return nil, errors.Internal(err)
	}
	s.log.WithContext(ctx).Info("Social sign-in", logger.Fields("provider", provider, "email", logger.MaskEmail(id.Email)))
	return tokens, nil
}

// Profile returns the profile of userID.
func (s *Service) Profile(ctx context.Context, userID string) (*ProfileResponse, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, profileError(err)
	}
	return toProfile(user), nil
}

// UpdateProfile applies the fields present in req.
func (s *Service) UpdateProfile(ctx context.Context, userID string, req ProfileUpdateRequest) (*ProfileResponse, error) {
	req.normalize()
	if err := validation.Validate(&req); err != nil {
		return nil, err
	}
	update := store.ProfileUpdate{
		Name:                 req.Name,
		Currency:             req.Currency,
		NotificationsEnabled: req.NotificationsEnabled,
	}
	if update.Empty() {
		return nil, errors.BadRequest(msgNoFields)
	}
	user, err := s.users.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, profileError(err)
	}
	return toProfile(user), nil
}

func (s *Service) issue(userID string) (*AuthResponse, error) {
	pair, err := s.issuer.Issue(userID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return &AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		UserID:       userID,
	}, nil
}

func profileError(err error) error {
	if stderrors.Is(err, store.ErrNotFound) {
		return errors.New(errors.ErrCodeNotFound, "User not found", http.StatusNotFound)
	}
	return storeError(err)
}

func storeError(err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return errors.UpstreamUnavailable("credential store", err)
	}
	return errors.Internal(err)
}

func toProfile(u *store.User) *ProfileResponse {
	return &ProfileResponse{
		UserID:               u.UserID,
		Email:                u.Email,
		Name:                 u.Name,
		Currency:             u.Currency,
		NotificationsEnabled: u.NotificationsEnabled,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func upper(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.ToUpper(strings.TrimSpace(*s))
	return &v
}
