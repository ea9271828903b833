// Package awsutil loads the AWS SDK configuration shared by the DynamoDB,
// Cognito and SSM clients.
package awsutil

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// DefaultRegion is the region used when none is configured.
const DefaultRegion = "us-east-1"

// Config holds the AWS settings common to every client.
type Config struct {
	// Region is the AWS region.
	Region string `mapstructure:"region" json:"region"`

	// Endpoint overrides the service endpoint (e.g. DynamoDB Local, LocalStack).
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`

	// AccessKey and SecretKey select static credentials. When empty the
	// default credential chain is used.
	AccessKey string `mapstructure:"access_key" json:"access_key"`
	SecretKey string `mapstructure:"secret_key" json:"secret_key"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if (c.AccessKey == "") != (c.SecretKey == "") {
		return errors.New("aws: access_key and secret_key must be set together")
	}
	return nil
}

// Load builds an aws.Config. Retries are left to each client.
func Load(ctx context.Context, cfg Config) (aws.Config, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return aws.Config{}, err
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("aws: load config: %w", err)
	}
	return awsCfg, nil
}

// BaseEndpoint returns the endpoint override for service options, or nil.
func (c *Config) BaseEndpoint() *string {
	if c.Endpoint == "" {
		return nil
	}
	return aws.String(c.Endpoint)
}
