// Package secrets resolves "ssm:" references in configuration values from
// AWS Systems Manager Parameter Store.
//
//	jwt:
//	  secret: ssm:/ovaflus/prod/jwt-secret
//
// A reference without a leading slash is joined to the configured prefix:
// "ssm:nonce_secret" with prefix "/ovaflus/prod" reads "/ovaflus/prod/nonce_secret".
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/ovaflus/ovaflus-auth/awsutil"
	"github.com/ovaflus/ovaflus-auth/logger"
)

// Scheme marks a configuration value as a parameter reference.
const Scheme = "ssm:"

// DefaultPrefix is the parameter path used for relative references.
const DefaultPrefix = "/ovaflus/prod"

// ErrParameterNotFound is returned when a referenced parameter does not exist.
var ErrParameterNotFound = errors.New("secrets: parameter not found")

// API is the subset of the SSM client used by the resolver.
type API interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Config configures parameter resolution.
type Config struct {
	Prefix  string        `mapstructure:"prefix"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
}

// Resolver reads referenced parameters with decryption.
type Resolver struct {
	api     API
	prefix  string
	timeout time.Duration
	log     *logger.Logger
	cache   map[string]string
}

// NewResolver creates a Resolver over api.
func NewResolver(api API, cfg Config, log *logger.Logger) *Resolver {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{
		api:     api,
		prefix:  strings.TrimRight(cfg.Prefix, "/"),
		timeout: cfg.Timeout,
		log:     log.WithComponent("secrets"),
		cache:   make(map[string]string),
	}
}

// NewSSMResolver builds a Resolver backed by a real SSM client.
func NewSSMResolver(ctx context.Context, awsCfg awsutil.Config, cfg Config, log *logger.Logger) (*Resolver, error) {
	loaded, err := awsutil.Load(ctx, awsCfg)
	if err != nil {
		return nil, err
	}
	client := ssm.NewFromConfig(loaded, func(o *ssm.Options) {
		o.BaseEndpoint = awsCfg.BaseEndpoint()
	})
	return NewResolver(client, cfg, log), nil
}

// IsReference reports whether value names a parameter.
func IsReference(value string) bool {
	return strings.HasPrefix(value, Scheme)
}

// Path returns the absolute parameter name for a reference.
func (r *Resolver) Path(ref string) string {
	name := strings.TrimPrefix(ref, Scheme)
	if strings.HasPrefix(name, "/") {
		return name
	}
	return r.prefix + "/" + name
}

// Resolve returns value unchanged unless it is a reference, in which case the
// parameter value is returned. Values are cached for the resolver's lifetime.
func (r *Resolver) Resolve(ctx context.Context, value string) (string, error) {
	if !IsReference(value) {
		return value, nil
	}
	path := r.Path(value)
	if v, ok := r.cache[path]; ok {
		return v, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out, err := r.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(path),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var nf *types.ParameterNotFound
		if errors.As(err, &nf) {
			return "", fmt.Errorf("%w: %s", ErrParameterNotFound, path)
		}
		return "", fmt.Errorf("secrets: get %s: %w", path, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("%w: %s has no value", ErrParameterNotFound, path)
	}

	r.log.Debug("Parameter resolved", logger.Fields("parameter", path))
	r.cache[path] = *out.Parameter.Value
	return *out.Parameter.Value, nil
}

// ResolveAll resolves each pointed-to string in place.
func (r *Resolver) ResolveAll(ctx context.Context, values ...*string) error {
	var errs []error
	for _, v := range values {
		if v == nil {
			continue
		}
		resolved, err := r.Resolve(ctx, *v)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		*v = resolved
	}
	return errors.Join(errs...)
}

// HasReferences reports whether any of values is a reference, so callers can
// skip building an SSM client when nothing needs resolving.
func HasReferences(values ...string) bool {
	for _, v := range values {
		if IsReference(v) {
			return true
		}
	}
	return false
}
