// Package store persists user credential records.
//
// Backends register themselves by driver name; import the one you need:
//
//	import _ "github.com/ovaflus/ovaflus-auth/store/dynamodb"
//
//	s, err := store.New(ctx, cfg, log)
//
// Supported drivers: dynamodb, sql (gorm), memory.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no user matches.
	ErrNotFound = errors.New("store: user not found")
	// ErrEmailTaken is returned by Create when the email is already registered.
	ErrEmailTaken = errors.New("store: email already registered")
)

// User is a locally registered account.
type User struct {
	UserID       string
	Email        string
	Name         string
	PasswordHash string

	Currency             string
	NotificationsEnabled bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfileUpdate carries the profile fields to change. Nil fields are left as is.
type ProfileUpdate struct {
	Name                 *string
	Currency             *string
	NotificationsEnabled *bool
}

// Empty reports whether the update changes nothing.
func (u ProfileUpdate) Empty() bool {
	return u.Name == nil && u.Currency == nil && u.NotificationsEnabled == nil
}

// Apply copies the set fields onto user.
func (u ProfileUpdate) Apply(user *User) {
	if u.Name != nil {
		user.Name = *u.Name
	}
	if u.Currency != nil {
		user.Currency = *u.Currency
	}
	if u.NotificationsEnabled != nil {
		user.NotificationsEnabled = *u.NotificationsEnabled
	}
}

// Store is the credential store used by the identity service.
type Store interface {
	// Create inserts a new user. It returns ErrEmailTaken if the email exists.
	Create(ctx context.Context, user *User) error

	// FindByEmail returns the user registered under email, or ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Get returns the user with the given id, or ErrNotFound.
	Get(ctx context.Context, userID string) (*User, error)

	// UpdateProfile applies update and returns the stored user, or ErrNotFound.
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*User, error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}

// Closer is implemented by backends holding connections.
type Closer interface {
	Close() error
}
