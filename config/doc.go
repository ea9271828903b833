// Package config loads service configuration from a YAML file, an optional .env file
// and the process environment, in that order of precedence (environment wins).
//
// Services embed ServiceConfig in their own config struct:
//
//	type Config struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Server server.Config `yaml:"server" mapstructure:"server"`
//	}
//
//	var cfg Config
//	err := config.LoadConfig("ovaflus-auth", &cfg)
package config
