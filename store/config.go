package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/ovaflus/ovaflus-auth/awsutil"
)

// Driver names.
const (
	DriverDynamoDB = "dynamodb"
	DriverSQL      = "sql"
	DriverMemory   = "memory"
)

// Default configuration values.
const (
	DefaultDriver     = DriverMemory
	DefaultTable      = "ovaflus-users"
	DefaultEmailIndex = "email-index"
	DefaultDSN        = "ovaflus-auth.db"
	DefaultTimeout    = 5 * time.Second
)

// Config selects and configures the credential store backend.
type Config struct {
	Driver string `mapstructure:"driver"`

	// Timeout bounds every backend call.
	Timeout time.Duration `mapstructure:"timeout"`

	DynamoDB DynamoDBConfig `mapstructure:"dynamodb"`
	SQL      SQLConfig      `mapstructure:"sql"`
}

// DynamoDBConfig configures the DynamoDB backend.
type DynamoDBConfig struct {
	Table      string `mapstructure:"table"`
	EmailIndex string `mapstructure:"email_index"`

	AWS awsutil.Config `mapstructure:",squash"`
}

// SQLConfig configures the gorm backend.
type SQLConfig struct {
	// DSN is passed to the sqlite driver.
	DSN string `mapstructure:"dsn"`

	// LogLevel is the gorm log level: silent, error, warn or info.
	LogLevel string `mapstructure:"log_level"`

	// SlowQueryThreshold marks queries slower than this as warnings (e.g. "200ms").
	SlowQueryThreshold string `mapstructure:"slow_query_threshold"`

	MaxOpenConns int `mapstructure:"max_open_conns"`

	// AutoMigrate creates or updates the users table on start.
	AutoMigrate *bool `mapstructure:"auto_migrate"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = DefaultDriver
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.DynamoDB.Table == "" {
		c.DynamoDB.Table = DefaultTable
	}
	if c.DynamoDB.EmailIndex == "" {
		c.DynamoDB.EmailIndex = DefaultEmailIndex
	}
	c.DynamoDB.AWS.ApplyDefaults()
	if c.SQL.DSN == "" {
		c.SQL.DSN = DefaultDSN
	}
	if c.SQL.LogLevel == "" {
		c.SQL.LogLevel = "warn"
	}
	if c.SQL.SlowQueryThreshold == "" {
		c.SQL.SlowQueryThreshold = "200ms"
	}
	if c.SQL.MaxOpenConns <= 0 {
		c.SQL.MaxOpenConns = 10
	}
	if c.SQL.AutoMigrate == nil {
		on := true
		c.SQL.AutoMigrate = &on
	}
}

// Validate checks that the configuration is valid for the selected driver.
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverMemory:
		return nil
	case DriverDynamoDB:
		var errs []error
		if c.DynamoDB.Table == "" {
			errs = append(errs, errors.New("store: dynamodb.table is required"))
		}
		if c.DynamoDB.EmailIndex == "" {
			errs = append(errs, errors.New("store: dynamodb.email_index is required"))
		}
		if err := c.DynamoDB.AWS.Validate(); err != nil {
			errs = append(errs, err)
		}
		if len(errs) > 0 {
			return fmt.Errorf("store: invalid dynamodb config: %w", errors.Join(errs...))
		}
	case DriverSQL:
		if c.SQL.DSN == "" {
			return errors.New("store: sql.dsn is required")
		}
	default:
		return fmt.Errorf("store: unsupported driver %q", c.Driver)
	}
	return nil
}
