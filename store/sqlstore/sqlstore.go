// Package sqlstore stores users in a SQL database through gorm. The sqlite
// driver backs local development and tests.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ovaflus/ovaflus-auth/logger"
	"github.com/ovaflus/ovaflus-auth/observability"
	"github.com/ovaflus/ovaflus-auth/store"
)

func init() {
	store.RegisterFactory(store.DriverSQL, func(ctx context.Context, cfg store.Config, log *logger.Logger) (store.Store, error) {
		return Open(ctx, cfg.SQL, log, WithTimeout(cfg.Timeout))
	})
}

// userRecord is the users table. The unique email index closes the
// check-then-insert race that DynamoDB leaves open.
type userRecord struct {
	UserID               string `gorm:"column:user_id;primaryKey;size:36"`
	Email                string `gorm:"column:email;uniqueIndex;not null"`
	Name                 string `gorm:"column:name"`
	PasswordHash         string `gorm:"column:password_hash;not null"`
	Currency             string `gorm:"column:currency"`
	NotificationsEnabled bool   `gorm:"column:notifications_enabled"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (userRecord) TableName() string { return "users" }

func fromUser(u *store.User) *userRecord {
	return &userRecord{
		UserID:               u.UserID,
		Email:                u.Email,
		Name:                 u.Name,
		PasswordHash:         u.PasswordHash,
		Currency:             u.Currency,
		NotificationsEnabled: u.NotificationsEnabled,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	}
}

func (r *userRecord) user() *store.User {
	return &store.User{
		UserID:               r.UserID,
		Email:                r.Email,
		Name:                 r.Name,
		PasswordHash:         r.PasswordHash,
		Currency:             r.Currency,
		NotificationsEnabled: r.NotificationsEnabled,
		CreatedAt:            r.CreatedAt.UTC(),
		UpdatedAt:            r.UpdatedAt.UTC(),
	}
}

// Store implements store.Store with gorm.
type Store struct {
	db      *gorm.DB
	log     *logger.Logger
	timeout time.Duration

	mu     sync.Mutex
	closed bool
}

var (
	_ store.Store  = (*Store)(nil)
	_ store.Closer = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store)

// WithTimeout bounds each query. Defaults to store.DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// Open connects, pings and optionally migrates the users table. It does not
// retry; a failed start is reported to the caller.
func Open(ctx context.Context, cfg store.SQLConfig, log *logger.Logger, opts ...Option) (*Store, error) {
	if log == nil {
		log = logger.Nop()
	}
	slow, _ := time.ParseDuration(cfg.SlowQueryThreshold)

	db, err := gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{
		Logger:         newGormLogger(log, slow, parseLogLevel(cfg.LogLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: underlying db: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlstore: ping: %w", err)
	}

	s := &Store{db: db, log: log.WithComponent("store.sql"), timeout: store.DefaultTimeout}
	for _, opt := range opts {
		opt(s)
	}
	if cfg.AutoMigrate == nil || *cfg.AutoMigrate {
		if err := s.db.WithContext(ctx).AutoMigrate(&userRecord{}); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("sqlstore: migrate users: %w", err)
		}
		s.log.Info("Users table migrated")
	}
	return s, nil
}

func (s *Store) span(ctx context.Context, op string) (context.Context, func(error)) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	ctx, span := observability.StartSpan(ctx, observability.SpanStoreQuery,
		attribute.String(observability.AttrOperation, op))
	return ctx, func(err error) {
		if err != nil && !errors.Is(err, store.ErrNotFound) && !errors.Is(err, store.ErrEmailTaken) {
			observability.SetSpanError(span, err)
		}
		span.End()
		cancel()
	}
}

// Create implements store.Store.
func (s *Store) Create(ctx context.Context, user *store.User) (err error) {
	ctx, end := s.span(ctx, "create")
	defer func() { end(err) }()

	rec := fromUser(user)
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return store.ErrEmailTaken
		}
		return fmt.Errorf("sqlstore: insert user: %w", err)
	}
	user.CreatedAt, user.UpdatedAt = rec.CreatedAt, rec.UpdatedAt
	return nil
}

// FindByEmail implements store.Store.
func (s *Store) FindByEmail(ctx context.Context, email string) (u *store.User, err error) {
	ctx, end := s.span(ctx, "find_by_email")
	defer func() { end(err) }()
	return s.first(ctx, "email = ?", email)
}

// Get implements store.Store.
func (s *Store) Get(ctx context.Context, userID string) (u *store.User, err error) {
	ctx, end := s.span(ctx, "get")
	defer func() { end(err) }()
	return s.first(ctx, "user_id = ?", userID)
}

func (s *Store) first(ctx context.Context, query string, arg string) (*store.User, error) {
	var rec userRecord
	if err := s.db.WithContext(ctx).Where(query, arg).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("sqlstore: select user: %w", err)
	}
	return rec.user(), nil
}

// UpdateProfile implements store.Store.
func (s *Store) UpdateProfile(ctx context.Context, userID string, update store.ProfileUpdate) (u *store.User, err error) {
	ctx, end := s.span(ctx, "update_profile")
	defer func() { end(err) }()

	changes := map[string]interface{}{}
	if update.Name != nil {
		changes["name"] = *update.Name
	}
	if update.Currency != nil {
		changes["currency"] = *update.Currency
	}
	if update.NotificationsEnabled != nil {
		changes["notifications_enabled"] = *update.NotificationsEnabled
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&userRecord{}).Where("user_id = ?", userID).Updates(changes)
		if res.Error != nil {
			return fmt.Errorf("sqlstore: update user: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.first(ctx, "user_id = ?", userID)
}

// Ping implements store.Store.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// Close closes the connection pool. Safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	s.closed = true
	return sqlDB.Close()
}
