package jwt

import (
	"errors"
	"time"
)

const (
	// DefaultAccessTTL is the lifetime of access tokens.
	DefaultAccessTTL = time.Hour
	// DefaultRefreshTTL is the lifetime of refresh tokens.
	DefaultRefreshTTL = 7 * 24 * time.Hour

	minSecretLength = 16
)

// Config configures the local token issuer.
type Config struct {
	// Secret is the HS256 signing key. Keep it out of config files; an
	// "ssm:" reference is resolved at startup.
	Secret string `mapstructure:"secret"`

	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.AccessTTL <= 0 {
		c.AccessTTL = DefaultAccessTTL
	}
	if c.RefreshTTL <= 0 {
		c.RefreshTTL = DefaultRefreshTTL
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if len(c.Secret) < minSecretLength {
		return errors.New("jwt: secret must be at least 16 bytes")
	}
	if c.RefreshTTL < c.AccessTTL {
		return errors.New("jwt: refresh_ttl must not be shorter than access_ttl")
	}
	return nil
}
