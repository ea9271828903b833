package password

import "fmt"

// Default argon2id parameters.
const (
	DefaultMemory  uint32 = 19 * 1024
	DefaultTime    uint32 = 2
	DefaultThreads uint8  = 1
)

// Config configures password hashing.
type Config struct {
	// Memory is the argon2id memory cost in KiB.
	Memory uint32 `mapstructure:"memory"`
	// Time is the number of argon2id iterations.
	Time uint32 `mapstructure:"time"`
	// Threads is the argon2id parallelism.
	Threads uint8 `mapstructure:"threads"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Memory == 0 {
		c.Memory = DefaultMemory
	}
	if c.Time == 0 {
		c.Time = DefaultTime
	}
	if c.Threads == 0 {
		c.Threads = DefaultThreads
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Memory < 8*uint32(c.Threads) || c.Memory > maxMemoryKiB {
		return fmt.Errorf("memory must be between %d and %d KiB (got: %d)", 8*uint32(c.Threads), maxMemoryKiB, c.Memory)
	}
	if c.Time == 0 || c.Time > maxTime {
		return fmt.Errorf("time must be between 1 and %d (got: %d)", maxTime, c.Time)
	}
	if c.Threads == 0 || c.Threads > maxThreads {
		return fmt.Errorf("threads must be between 1 and %d (got: %d)", maxThreads, c.Threads)
	}
	return nil
}

// NewHasher creates a Hasher from configuration.
func NewHasher(cfg Config) Hasher {
	cfg.ApplyDefaults()
	return NewArgon2Hasher(
		WithTime(cfg.Time),
		WithMemory(cfg.Memory),
		WithThreads(cfg.Threads),
	)
}
