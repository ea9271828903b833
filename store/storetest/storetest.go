// Package storetest is a conformance suite every store backend runs.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ovaflus/ovaflus-auth/store"
)

// NewUser returns a user with a fresh id and the given email.
func NewUser(email string) *store.User {
	return &store.User{
		UserID:       uuid.NewString(),
		Email:        email,
		Name:         "Test User",
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		CreatedAt:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Run exercises a Store created fresh for every subtest.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("create then find", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		u := NewUser("alice@example.com")
		if err := s.Create(ctx, u); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		byEmail, err := s.FindByEmail(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("FindByEmail failed: %v", err)
		}
		if byEmail.UserID != u.UserID || byEmail.PasswordHash != u.PasswordHash || byEmail.Name != u.Name {
			t.Errorf("unexpected user %+v", byEmail)
		}
		if !byEmail.CreatedAt.Equal(u.CreatedAt) {
			t.Errorf("expected created_at %v, got %v", u.CreatedAt, byEmail.CreatedAt)
		}

		byID, err := s.Get(ctx, u.UserID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if byID.Email != "alice@example.com" {
			t.Errorf("unexpected user %+v", byID)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		if err := s.Create(ctx, NewUser("dup@example.com")); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		err := s.Create(ctx, NewUser("dup@example.com"))
		if !errors.Is(err, store.ErrEmailTaken) {
			t.Fatalf("expected ErrEmailTaken, got %v", err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		if _, err := s.FindByEmail(ctx, "nobody@example.com"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound from FindByEmail, got %v", err)
		}
		if _, err := s.Get(ctx, uuid.NewString()); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound from Get, got %v", err)
		}
		name := "x"
		if _, err := s.UpdateProfile(ctx, uuid.NewString(), store.ProfileUpdate{Name: &name}); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound from UpdateProfile, got %v", err)
		}
	})

	t.Run("update profile", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		u := NewUser("bob@example.com")
		if err := s.Create(ctx, u); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		currency, notify := "EUR", true
		updated, err := s.UpdateProfile(ctx, u.UserID, store.ProfileUpdate{Currency: &currency, NotificationsEnabled: &notify})
		if err != nil {
			t.Fatalf("UpdateProfile failed: %v", err)
		}
		if updated.Currency != "EUR" || !updated.NotificationsEnabled {
			t.Errorf("expected update applied, got %+v", updated)
		}
		if updated.Name != "Test User" {
			t.Errorf("expected name untouched, got %q", updated.Name)
		}
		if updated.PasswordHash != u.PasswordHash {
			t.Error("expected password hash untouched")
		}

		got, _ := s.Get(ctx, u.UserID)
		if got.Currency != "EUR" || !got.NotificationsEnabled {
			t.Errorf("expected update persisted, got %+v", got)
		}
	})

	t.Run("ping", func(t *testing.T) {
		if err := newStore(t).Ping(context.Background()); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})
}
