package jwks

import (
	"context"
	"time"

	"github.com/ovaflus/ovaflus-auth/logger"
	"github.com/ovaflus/ovaflus-auth/redis"
)

const redisNamespace = "jwks"

// RedisKeySource shares fetched key sets between replicas through Redis.
// Redis errors are logged and the inner source is used instead.
type RedisKeySource struct {
	inner KeySource
	store *redis.TypedStore[KeySet]
	ttl   time.Duration
	now   func() time.Time
	log   *logger.Logger
}

// NewRedisKeySource layers a Redis cache in front of inner.
func NewRedisKeySource(inner KeySource, client *redis.Client, ttl time.Duration, log *logger.Logger) *RedisKeySource {
	if log == nil {
		log = logger.Nop()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisKeySource{
		inner: inner,
		store: redis.NewTypedStore[KeySet](client, redisNamespace),
		ttl:   ttl,
		now:   time.Now,
		log:   log.WithComponent("jwks-redis"),
	}
}

// Fetch implements KeySource.
func (s *RedisKeySource) Fetch(ctx context.Context, jwksURL string) (*KeySet, error) {
	set, err := s.store.Load(ctx, jwksURL)
	if err != nil {
		s.log.Warn("Shared JWKS cache read failed", logger.Fields(logger.FieldError, err.Error()))
	}
	if set != nil && !set.Stale(s.now(), s.ttl) {
		return set, nil
	}
	return s.fetchAndShare(ctx, jwksURL)
}

// Refetch implements Refetcher by bypassing the shared entry.
func (s *RedisKeySource) Refetch(ctx context.Context, jwksURL string) (*KeySet, error) {
	return s.fetchAndShare(ctx, jwksURL)
}

func (s *RedisKeySource) fetchAndShare(ctx context.Context, jwksURL string) (*KeySet, error) {
	set, err := s.inner.Fetch(ctx, jwksURL)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, jwksURL, set, s.ttl); err != nil {
		s.log.Warn("Shared JWKS cache write failed", logger.Fields(logger.FieldError, err.Error()))
	}
	return set, nil
}
