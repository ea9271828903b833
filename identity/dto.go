package identity

import (
	"strings"
	"time"
)

// normalizer is implemented by requests whose fields are cleaned up before
// validation, so the stored value is the one that was validated.
type normalizer interface {
	normalize()
}

// SignUpRequest is the body of POST /auth/signup.
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Name     string `json:"name" validate:"required,max=100"`
}

func (r *SignUpRequest) normalize() {
	r.Email = normalizeEmail(r.Email)
	r.Name = strings.TrimSpace(r.Name)
}

// SignInRequest is the body of POST /auth/signin.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required,max=128"`
}

// RefreshRequest is the body of POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AppleSignInRequest is the body of POST /auth/apple.
type AppleSignInRequest struct {
	IdentityToken string `json:"identity_token" validate:"required"`
}

// GoogleSignInRequest is the body of POST /auth/google.
type GoogleSignInRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// ProfileUpdateRequest is the body of PUT /profile. Omitted fields are unchanged.
type ProfileUpdateRequest struct {
	Name                 *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Currency             *string `json:"currency,omitempty" validate:"omitempty,len=3"`
	NotificationsEnabled *bool   `json:"notifications_enabled,omitempty"`
}

func (r *ProfileUpdateRequest) normalize() {
	r.Name = trimmed(r.Name)
	r.Currency = upper(r.Currency)
}

// AuthResponse is returned by sign-up, sign-in and refresh.
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
}

// ProfileResponse is returned by the profile endpoints.
type ProfileResponse struct {
	UserID               string    `json:"user_id"`
	Email                string    `json:"email"`
	Name                 string    `json:"name"`
	Currency             string    `json:"currency,omitempty"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// SessionResponse describes the verified bearer token.
type SessionResponse struct {
	UserID    string `json:"user_id"`
	TokenType string `json:"token_type"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}
