package jwks

import (
	"errors"
	"time"
)

const (
	// DefaultCacheTTL is how long a fetched key set is served without refetching.
	DefaultCacheTTL = 5 * time.Minute
	// DefaultFetchTimeout bounds one JWKS HTTP request.
	DefaultFetchTimeout = 5 * time.Second
	// DefaultMinRefetchInterval limits unknown-kid refetches per URL.
	DefaultMinRefetchInterval = 30 * time.Second
	// DefaultLeeway is the clock skew allowed on exp, nbf and iat.
	DefaultLeeway = 60 * time.Second
)

// Config configures remote key fetching and caching.
type Config struct {
	CacheTTL           time.Duration `mapstructure:"cache_ttl"`
	FetchTimeout       time.Duration `mapstructure:"fetch_timeout"`
	MinRefetchInterval time.Duration `mapstructure:"min_refetch_interval"`
	Leeway             time.Duration `mapstructure:"leeway"`

	// SharedCache stores fetched key sets in Redis so replicas share them.
	SharedCache bool `mapstructure:"shared_cache"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
	if c.MinRefetchInterval <= 0 {
		c.MinRefetchInterval = DefaultMinRefetchInterval
	}
	if c.Leeway <= 0 {
		c.Leeway = DefaultLeeway
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.MinRefetchInterval > c.CacheTTL {
		return errors.New("jwks: min_refetch_interval must not exceed cache_ttl")
	}
	return nil
}
