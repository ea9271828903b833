package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ovaflus/ovaflus-auth/auth"
	"github.com/ovaflus/ovaflus-auth/config"
	"github.com/ovaflus/ovaflus-auth/version"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef"

func validConfig() *Config {
	cfg := &Config{}
	cfg.Auth.JWT.Secret = testJWTSecret
	cfg.ApplyDefaults()
	return cfg
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.AWS.Region = "eu-west-1"
	cfg.AWS.Endpoint = "http://localhost:4566"
	cfg.ApplyDefaults()

	if cfg.Name != serviceName {
		t.Errorf("name = %q", cfg.Name)
	}
	if !strings.HasPrefix(cfg.Version, version.Version) {
		t.Errorf("version = %q, want build version %q", cfg.Version, version.Version)
	}
	if cfg.Mode() != auth.ModeLocal {
		t.Errorf("mode = %q, want local", cfg.Mode())
	}
	if cfg.Auth.Federated.Region != "eu-west-1" {
		t.Errorf("federated region = %q, want inherited eu-west-1", cfg.Auth.Federated.Region)
	}
	if cfg.Store.DynamoDB.AWS.Region != "eu-west-1" || cfg.Store.DynamoDB.AWS.Endpoint != "http://localhost:4566" {
		t.Errorf("store aws = %+v, want inherited", cfg.Store.DynamoDB.AWS)
	}
	if cfg.Auth.JWKS.Leeway != 60*time.Second || cfg.Federation.Timeout != 10*time.Second {
		t.Errorf("unexpected timing defaults %v %v", cfg.Auth.JWKS.Leeway, cfg.Federation.Timeout)
	}
}

func TestConfig_ApplyDefaults_KeepsExplicitStoreRegion(t *testing.T) {
	cfg := &Config{}
	cfg.AWS.Region = "eu-west-1"
	cfg.Store.DynamoDB.AWS.Region = "us-west-2"
	cfg.ApplyDefaults()
	if cfg.Store.DynamoDB.AWS.Region != "us-west-2" {
		t.Errorf("store region = %q", cfg.Store.DynamoDB.AWS.Region)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"local defaults", func(*Config) {}, ""},
		{"short jwt secret", func(c *Config) { c.Auth.JWT.Secret = "short" }, "auth.jwt"},
		{"unknown mode", func(c *Config) { c.Auth.Mode = "both" }, "auth.mode"},
		{"federated without pool", func(c *Config) { c.Auth.Mode = "federated" }, "user_pool_id is required"},
		{"federated with pool", func(c *Config) {
			c.Auth.Mode = "federated"
			c.Auth.Federated.UserPoolID = "us-east-1_pool"
			c.Auth.Federated.AppClientID = "client"
		}, ""},
		{"social without nonce secret", func(c *Config) {
			c.Auth.Social.Enabled = true
			c.Auth.Federated.UserPoolID = "us-east-1_pool"
			c.Auth.Federated.AppClientID = "client"
		}, "nonce_secret is required"},
		{"shared cache without redis", func(c *Config) { c.Auth.JWKS.SharedCache = true }, "requires redis.enabled"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestConfig_RemoteKeys(t *testing.T) {
	cfg := validConfig()
	if cfg.RemoteKeys() {
		t.Error("local mode without social sign-in needs no remote keys")
	}
	cfg.Auth.Social.Enabled = true
	if !cfg.RemoteKeys() {
		t.Error("social sign-in needs remote keys")
	}
}

func TestSocialConfig_Providers(t *testing.T) {
	if got := (SocialConfig{}).Providers(); got != nil {
		t.Errorf("disabled social config returned %v", got)
	}
	got := SocialConfig{Enabled: true, GoogleClientID: "g-client"}.Providers()
	if len(got) != 2 || got[0].Name != "apple" || got[1].Name != "google" {
		t.Fatalf("unexpected providers %+v", got)
	}
	if got[1].ClientID != "g-client" || got[0].ClientID != "" {
		t.Errorf("unexpected client ids %q %q", got[0].ClientID, got[1].ClientID)
	}
}

func TestConfig_FederatedAWS(t *testing.T) {
	cfg := validConfig()
	cfg.AWS.Endpoint = "http://localhost:4566"
	cfg.Auth.Federated.Region = "ap-southeast-2"
	got := cfg.FederatedAWS()
	if got.Region != "ap-southeast-2" || got.Endpoint != "http://localhost:4566" {
		t.Errorf("unexpected aws config %+v", got)
	}
	if cfg.AWS.Region == "ap-southeast-2" {
		t.Error("top-level region was modified")
	}
}

func TestLoadConfig_ShippedFile(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", testJWTSecret)
	t.Setenv("COGNITO_USER_POOL_ID", "us-east-1_fromenv")

	var cfg Config
	if err := config.LoadConfig(serviceName, &cfg, config.WithConfigFile("config.yml"), config.WithEnvAliases(envAliases)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("shipped config invalid: %v", err)
	}
	if cfg.Auth.JWT.Secret != testJWTSecret {
		t.Error("expected jwt secret from environment")
	}
	if cfg.Auth.Federated.UserPoolID != "us-east-1_fromenv" {
		t.Errorf("user pool = %q, want alias value", cfg.Auth.Federated.UserPoolID)
	}
	if cfg.Auth.JWT.RefreshTTL != 168*time.Hour || cfg.Server.RateLimit.RequestsPerMinute != 60 {
		t.Errorf("unexpected file values %v %d", cfg.Auth.JWT.RefreshTTL, cfg.Server.RateLimit.RequestsPerMinute)
	}
}

func TestResolveSecrets_NoReferences(t *testing.T) {
	cfg := validConfig()
	if err := resolveSecrets(context.Background(), cfg); err != nil {
		t.Fatalf("expected no SSM access without references, got %v", err)
	}
	if cfg.Auth.JWT.Secret != testJWTSecret {
		t.Error("secret changed")
	}
}
