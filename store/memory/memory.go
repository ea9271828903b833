// Package memory is an in-process credential store for tests and local runs.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ovaflus/ovaflus-auth/logger"
	"github.com/ovaflus/ovaflus-auth/store"
)

func init() {
	store.RegisterFactory(store.DriverMemory, func(context.Context, store.Config, *logger.Logger) (store.Store, error) {
		return New(), nil
	})
}

// Store keeps users in maps guarded by a mutex.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]*store.User
	byEmail map[string]string
	now     func() time.Time
}

var _ store.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		byID:    make(map[string]*store.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

// Create implements store.Store.
func (s *Store) Create(_ context.Context, user *store.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[user.Email]; taken {
		return store.ErrEmailTaken
	}
	u := *user
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now().UTC()
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
	s.byID[u.UserID] = &u
	s.byEmail[u.Email] = u.UserID
	return nil
}

// FindByEmail implements store.Store.
func (s *Store) FindByEmail(_ context.Context, email string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	u := *s.byID[id]
	return &u, nil
}

// Get implements store.Store.
func (s *Store) Get(_ context.Context, userID string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// UpdateProfile implements store.Store.
func (s *Store) UpdateProfile(_ context.Context, userID string, update store.ProfileUpdate) (*store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	update.Apply(u)
	u.UpdatedAt = s.now().UTC()
	cp := *u
	return &cp, nil
}

// Ping implements store.Store.
func (s *Store) Ping(context.Context) error { return nil }
