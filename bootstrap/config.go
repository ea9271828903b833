package bootstrap

import (
	"github.com/ovaflus/ovaflus-auth/config"
)

// Config is the constraint for application configuration types. A pointer
// to any struct embedding config.ServiceConfig with its own ApplyDefaults
// and Validate satisfies it.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
