// Command ovaflus-auth serves account sign-up, sign-in, token refresh,
// social sign-in and profile endpoints.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/ovaflus/ovaflus-auth/bootstrap"
	"github.com/ovaflus/ovaflus-auth/config"
	"github.com/ovaflus/ovaflus-auth/logger"
	"github.com/ovaflus/ovaflus-auth/secrets"
)

func main() {
	if err := run(context.Background()); err != nil {
		logger.Error("Service exited", logger.ErrorFields("run", err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg Config
	if err := config.LoadConfig(serviceName, &cfg, config.WithEnvAliases(envAliases)); err != nil {
		return err
	}
	if err := resolveSecrets(ctx, &cfg); err != nil {
		return err
	}

	cfg.Server.ApplyDefaults()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	app, err := bootstrap.NewApp(&cfg, bootstrap.WithGracefulTimeout(cfg.Server.ShutdownTimeout))
	if err != nil {
		return err
	}
	if err := wire(app); err != nil {
		return fmt.Errorf("wire: %w", err)
	}
	return app.Run(ctx)
}

// resolveSecrets replaces "ssm:" references before validation so length
// and presence checks apply to the real values.
func resolveSecrets(ctx context.Context, cfg *Config) error {
	refs := cfg.secretRefs()
	values := make([]string, len(refs))
	for i, r := range refs {
		values[i] = *r
	}
	if !secrets.HasReferences(values...) {
		return nil
	}

	cfg.AWS.ApplyDefaults()
	resolver, err := secrets.NewSSMResolver(ctx, cfg.AWS, cfg.Secrets, logger.GetGlobalLogger())
	if err != nil {
		return fmt.Errorf("secrets: %w", err)
	}
	return resolver.ResolveAll(ctx, refs...)
}
