package jwks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ovaflus/ovaflus-auth/component"
	"github.com/ovaflus/ovaflus-auth/logger"
)

// CachedKeySource keeps one key set per JWKS URL for CacheTTL and refreshes
// every URL it has seen in the background at CacheTTL/2.
// The cache lock is never held across a fetch.
type CachedKeySource struct {
	source     KeySource
	ttl        time.Duration
	minRefetch time.Duration
	now        func() time.Time
	log        *logger.Logger

	mu   sync.RWMutex
	sets map[string]*KeySet

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

var (
	_ Refetcher           = (*CachedKeySource)(nil)
	_ component.Component = (*CachedKeySource)(nil)
)

// NewCachedKeySource wraps source with an in-process cache.
func NewCachedKeySource(source KeySource, cfg Config, log *logger.Logger) *CachedKeySource {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &CachedKeySource{
		source:     source,
		ttl:        cfg.CacheTTL,
		minRefetch: cfg.MinRefetchInterval,
		now:        time.Now,
		log:        log.WithComponent("jwks-cache"),
		sets:       make(map[string]*KeySet),
	}
}

func (c *CachedKeySource) cached(jwksURL string) *KeySet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sets[jwksURL]
}

func (c *CachedKeySource) store(set *KeySet) {
	c.mu.Lock()
	c.sets[set.URL] = set
	c.mu.Unlock()
}

// Fetch implements KeySource. A fresh cached set is returned without I/O.
func (c *CachedKeySource) Fetch(ctx context.Context, jwksURL string) (*KeySet, error) {
	if set := c.cached(jwksURL); !set.Stale(c.now(), c.ttl) {
		return set, nil
	}
	return c.load(ctx, jwksURL, false)
}

// Refetch reloads jwksURL unless it was fetched within the minimum refetch
// interval, in which case the cached set is returned.
func (c *CachedKeySource) Refetch(ctx context.Context, jwksURL string) (*KeySet, error) {
	if set := c.cached(jwksURL); !set.Stale(c.now(), c.minRefetch) {
		return set, nil
	}
	return c.load(ctx, jwksURL, true)
}

// load fetches from the wrapped source. With force set, a wrapped Refetcher
// is asked to bypass its own cache as well.
func (c *CachedKeySource) load(ctx context.Context, jwksURL string, force bool) (*KeySet, error) {
	var (
		set *KeySet
		err error
	)
	if r, ok := c.source.(Refetcher); ok && force {
		set, err = r.Refetch(ctx, jwksURL)
	} else {
		set, err = c.source.Fetch(ctx, jwksURL)
	}
	if err != nil {
		return nil, err
	}
	set.URL = jwksURL
	c.store(set)
	return set, nil
}

func (c *CachedKeySource) urls() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.sets))
	for u := range c.sets {
		out = append(out, u)
	}
	return out
}

// refreshAll reloads every known URL. Failures keep the previous set.
func (c *CachedKeySource) refreshAll(ctx context.Context) {
	for _, u := range c.urls() {
		if _, err := c.load(ctx, u, true); err != nil {
			c.log.Warn("Background JWKS refresh failed", logger.Fields(
				logger.FieldIssuer, u,
				logger.FieldError, err.Error(),
			))
		}
	}
}

// Name implements component.Component.
func (c *CachedKeySource) Name() string { return "jwks-cache" }

// Start launches the background refresh loop.
func (c *CachedKeySource) Start(context.Context) error {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	if c.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(c.ttl / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.refreshAll(ctx)
			}
		}
	}(c.done)
	return nil
}

// Stop ends the refresh loop and waits for it, bounded by ctx.
func (c *CachedKeySource) Stop(ctx context.Context) error {
	c.runMu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.runMu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Health implements component.Component.
func (c *CachedKeySource) Health(context.Context) component.Health {
	c.mu.RLock()
	n := len(c.sets)
	c.mu.RUnlock()
	return component.Health{
		Name:    c.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("%d key sets cached", n),
	}
}
