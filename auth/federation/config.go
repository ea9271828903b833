package federation

import (
	"errors"
	"time"
)

// DefaultTimeout bounds each provider call.
const DefaultTimeout = 10 * time.Second

// Config configures the bridge.
type Config struct {
	// NonceSecret is shared with the pool's verify-auth-challenge trigger.
	NonceSecret string        `mapstructure:"nonce_secret"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.NonceSecret == "" {
		return errors.New("federation.nonce_secret is required")
	}
	if c.Timeout <= 0 {
		return errors.New("federation.timeout must be positive")
	}
	return nil
}
