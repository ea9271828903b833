package main

import (
	"errors"
	"fmt"

	"github.com/ovaflus/ovaflus-auth/auth"
	"github.com/ovaflus/ovaflus-auth/auth/federation"
	"github.com/ovaflus/ovaflus-auth/auth/jwks"
	"github.com/ovaflus/ovaflus-auth/auth/jwt"
	"github.com/ovaflus/ovaflus-auth/auth/password"
	"github.com/ovaflus/ovaflus-auth/awsutil"
	"github.com/ovaflus/ovaflus-auth/config"
	"github.com/ovaflus/ovaflus-auth/observability"
	"github.com/ovaflus/ovaflus-auth/redis"
	"github.com/ovaflus/ovaflus-auth/secrets"
	"github.com/ovaflus/ovaflus-auth/server"
	"github.com/ovaflus/ovaflus-auth/store"
	"github.com/ovaflus/ovaflus-auth/version"
)

const serviceName = "ovaflus-auth"

// envAliases binds the variable names used by existing deployments.
var envAliases = map[string]string{
	"COGNITO_USER_POOL_ID":  "auth.federated.user_pool_id",
	"COGNITO_APP_CLIENT_ID": "auth.federated.app_client_id",
	"COGNITO_REGION":        "auth.federated.region",
	"SSM_PREFIX":            "secrets.prefix",
	"JWT_SECRET":            "auth.jwt.secret",
	"USERS_TABLE":           "store.dynamodb.table",
}

// Config is the service configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `mapstructure:"server"`
	Auth          AuthConfig           `mapstructure:"auth"`
	Federation    federation.Config    `mapstructure:"federation"`
	Store         store.Config         `mapstructure:"store"`
	Redis         redis.Config         `mapstructure:"redis"`
	Observability observability.Config `mapstructure:"observability"`
	AWS           awsutil.Config       `mapstructure:"aws"`
	Secrets       secrets.Config       `mapstructure:"secrets"`
}

// AuthConfig groups token issuance and verification settings.
type AuthConfig struct {
	// Mode selects the bearer-token authority: local or federated.
	Mode      string               `mapstructure:"mode"`
	JWT       jwt.Config           `mapstructure:"jwt"`
	Password  password.Config      `mapstructure:"password"`
	JWKS      jwks.Config          `mapstructure:"jwks"`
	Federated auth.FederatedConfig `mapstructure:"federated"`
	Social    SocialConfig         `mapstructure:"social"`
}

// SocialConfig enables Apple and Google sign-in through the federated pool.
type SocialConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	AppleClientID  string `mapstructure:"apple_client_id"`
	GoogleClientID string `mapstructure:"google_client_id"`
}

// Providers returns the identity token issuers accepted for social sign-in.
func (c SocialConfig) Providers() []jwks.Provider {
	if !c.Enabled {
		return nil
	}
	return []jwks.Provider{jwks.Apple(c.AppleClientID), jwks.Google(c.GoogleClientID)}
}

// ApplyDefaults fills in zero-valued fields. Region and endpoint settings
// left empty in a section inherit the top-level aws section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Version == "" {
		c.Version = version.Get().String()
	}
	c.ServiceConfig.ApplyDefaults()
	c.AWS.ApplyDefaults()

	if c.Auth.Mode == "" {
		c.Auth.Mode = string(auth.ModeLocal)
	}
	if c.Auth.Federated.Region == "" {
		c.Auth.Federated.Region = c.AWS.Region
	}
	inheritAWS(&c.Store.DynamoDB.AWS, c.AWS)

	c.Server.ApplyDefaults()
	c.Auth.JWT.ApplyDefaults()
	c.Auth.Password.ApplyDefaults()
	c.Auth.JWKS.ApplyDefaults()
	c.Federation.ApplyDefaults()
	c.Store.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Observability.ApplyDefaults()
	c.Secrets.ApplyDefaults()
}

func inheritAWS(dst *awsutil.Config, src awsutil.Config) {
	if dst.Region == "" {
		dst.Region = src.Region
	}
	if dst.Endpoint == "" {
		dst.Endpoint = src.Endpoint
	}
	if dst.AccessKey == "" && dst.SecretKey == "" {
		dst.AccessKey, dst.SecretKey = src.AccessKey, src.SecretKey
	}
}

// Validate checks every section and the cross-section requirements.
func (c *Config) Validate() error {
	var errs []error
	add := func(section string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", section, err))
		}
	}

	add("service", c.ServiceConfig.Validate())
	mode, err := auth.ParseMode(c.Auth.Mode)
	add("auth", err)
	add("server", c.Server.Validate())
	add("auth.jwt", c.Auth.JWT.Validate())
	add("auth.password", c.Auth.Password.Validate())
	add("auth.jwks", c.Auth.JWKS.Validate())
	add("store", c.Store.Validate())
	add("redis", c.Redis.Validate())
	add("observability", c.Observability.Validate())
	add("aws", c.AWS.Validate())

	if mode == auth.ModeFederated || c.Auth.Social.Enabled {
		add("auth.federated", c.Auth.Federated.Validate())
	}
	if c.Auth.Social.Enabled {
		add("federation", c.Federation.Validate())
	}
	if c.Auth.JWKS.SharedCache && !c.Redis.Enabled {
		errs = append(errs, errors.New("auth.jwks.shared_cache requires redis.enabled"))
	}
	return errors.Join(errs...)
}

// Mode returns the validated token authority.
func (c *Config) Mode() auth.Mode {
	mode, _ := auth.ParseMode(c.Auth.Mode)
	return mode
}

// RemoteKeys reports whether any verifier needs published signing keys.
func (c *Config) RemoteKeys() bool {
	return c.Mode() == auth.ModeFederated || c.Auth.Social.Enabled
}

// FederatedAWS is the AWS configuration for the federated pool's region.
func (c *Config) FederatedAWS() awsutil.Config {
	cfg := c.AWS
	cfg.Region = c.Auth.Federated.Region
	return cfg
}

// secretRefs lists the fields that may hold "ssm:" references.
func (c *Config) secretRefs() []*string {
	return []*string{
		&c.Auth.JWT.Secret,
		&c.Federation.NonceSecret,
		&c.Auth.Social.AppleClientID,
		&c.Auth.Social.GoogleClientID,
		&c.Redis.Password,
	}
}
