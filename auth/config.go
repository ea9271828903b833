package auth

import (
	"errors"
	"fmt"
)

// Mode selects the single token authority a deployment trusts.
type Mode string

const (
	// ModeLocal verifies HS256 tokens issued by this service.
	ModeLocal Mode = "local"
	// ModeFederated verifies access tokens issued by the federated identity provider.
	ModeFederated Mode = "federated"
)

// ParseMode validates a configured mode string. Empty means local.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeLocal:
		return ModeLocal, nil
	case ModeFederated:
		return ModeFederated, nil
	default:
		return "", fmt.Errorf("auth.mode must be %q or %q (got: %q)", ModeLocal, ModeFederated, s)
	}
}

// SelectVerifier builds the verifier for mode. Only the selected constructor runs.
func SelectVerifier(mode Mode, local, federated func() (TokenVerifier, error)) (TokenVerifier, error) {
	switch mode {
	case ModeLocal:
		return local()
	case ModeFederated:
		return federated()
	default:
		return nil, fmt.Errorf("auth: unknown mode %q", mode)
	}
}

// FederatedConfig locates the federated identity provider's user pool.
type FederatedConfig struct {
	Region      string `mapstructure:"region"`
	UserPoolID  string `mapstructure:"user_pool_id"`
	AppClientID string `mapstructure:"app_client_id"`
}

// Validate checks that the pool is fully identified.
func (c *FederatedConfig) Validate() error {
	var errs []error
	if c.Region == "" {
		errs = append(errs, errors.New("auth.federated.region is required"))
	}
	if c.UserPoolID == "" {
		errs = append(errs, errors.New("auth.federated.user_pool_id is required"))
	}
	if c.AppClientID == "" {
		errs = append(errs, errors.New("auth.federated.app_client_id is required"))
	}
	return errors.Join(errs...)
}

// Issuer is the iss value of tokens minted by the pool.
func (c *FederatedConfig) Issuer() string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", c.Region, c.UserPoolID)
}

// JWKSURL is where the pool publishes its signing keys.
func (c *FederatedConfig) JWKSURL() string {
	return c.Issuer() + "/.well-known/jwks.json"
}
