package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ovaflus/ovaflus-auth/auth"
	"github.com/ovaflus/ovaflus-auth/auth/federation"
	"github.com/ovaflus/ovaflus-auth/auth/jwks"
	"github.com/ovaflus/ovaflus-auth/auth/jwt"
	"github.com/ovaflus/ovaflus-auth/auth/password"
	"github.com/ovaflus/ovaflus-auth/bootstrap"
	"github.com/ovaflus/ovaflus-auth/identity"
	"github.com/ovaflus/ovaflus-auth/logger"
	"github.com/ovaflus/ovaflus-auth/observability"
	"github.com/ovaflus/ovaflus-auth/redis"
	"github.com/ovaflus/ovaflus-auth/server"
	"github.com/ovaflus/ovaflus-auth/server/middleware"
	"github.com/ovaflus/ovaflus-auth/store"

	// Store backends register themselves with store.New.
	_ "github.com/ovaflus/ovaflus-auth/store/dynamodb"
	_ "github.com/ovaflus/ovaflus-auth/store/memory"
	_ "github.com/ovaflus/ovaflus-auth/store/sqlstore"
)

type App = bootstrap.App[*Config]

// wire registers infrastructure components and the configure callback that
// builds the identity service and HTTP server once they are running.
func wire(app *App) error {
	cfg, log := app.Cfg, app.Logger

	if err := app.RegisterComponent(observability.NewComponent(cfg.Observability, observability.ServiceInfo{
		Name:        cfg.Name,
		Version:     cfg.Version,
		Environment: cfg.Environment,
	}, log)); err != nil {
		return err
	}
	// Instruments bind to the global meter provider once telemetry starts.
	metrics, err := observability.NewGlobalAuthMetrics()
	if err != nil {
		return err
	}

	users := store.NewComponent(cfg.Store, log)
	if err := app.RegisterComponent(users); err != nil {
		return err
	}

	var cache *redis.Client
	if cfg.Redis.Enabled {
		rc, err := redis.NewComponent(cfg.Redis, log)
		if err != nil {
			return err
		}
		if err := app.RegisterComponent(rc); err != nil {
			return err
		}
		cache = rc.Client()
	}

	issuer, err := jwt.NewIssuer(cfg.Auth.JWT, jwt.WithLogger(log), jwt.WithMetrics(metrics))
	if err != nil {
		return err
	}

	var remote *jwks.Verifier
	if cfg.RemoteKeys() {
		if remote, err = remoteVerifier(app, cache, metrics); err != nil {
			return err
		}
	}

	verifier, err := auth.SelectVerifier(cfg.Mode(),
		func() (auth.TokenVerifier, error) { return issuer.Verifier(), nil },
		func() (auth.TokenVerifier, error) {
			return jwks.NewFederatedVerifier(remote, cfg.Auth.Federated, metrics), nil
		},
	)
	if err != nil {
		return err
	}
	log.Info("Token verifier selected", logger.Fields("mode", string(cfg.Mode())))

	app.OnConfigure(func(ctx context.Context, a *App) error {
		var opts []identity.Option
		if cfg.Auth.Social.Enabled {
			bridge, err := newBridge(ctx, cfg, a, metrics)
			if err != nil {
				return err
			}
			opts = append(opts, identity.WithSocial(remote, bridge, cfg.Auth.Social.Providers()...))
		}

		svc, err := identity.NewService(users.Store(), password.NewHasher(cfg.Auth.Password), issuer, log, opts...)
		if err != nil {
			return fmt.Errorf("identity: %w", err)
		}

		srv := server.New(cfg.Server, log)
		routes := identity.Routes{
			Authenticate: middleware.Authenticate(verifier, log),
			Profile:      cfg.Mode() == auth.ModeLocal,
		}
		if rpm := cfg.Server.RateLimit.RequestsPerMinute; rpm > 0 {
			limiter := middleware.NewRateLimiter(rpm, time.Minute)
			sweepCtx, cancel := context.WithCancel(context.Background())
			go limiter.Run(sweepCtx)
			a.OnStop(func(context.Context) error {
				cancel()
				return nil
			})
			routes.Guard = middleware.RateLimit(limiter)
		}

		identity.NewHandler(svc, log).RegisterRoutes(srv.GinEngine(), routes)
		srv.RegisterHealthEndpoints(a.Name, a.Components.HealthAll)
		return a.RegisterComponent(server.NewComponent(srv))
	})
	return nil
}

// remoteVerifier builds the published-key verifier behind a refreshing cache,
// shared through Redis when configured.
func remoteVerifier(app *App, cache *redis.Client, metrics *observability.AuthMetrics) (*jwks.Verifier, error) {
	cfg, log := app.Cfg.Auth.JWKS, app.Logger

	fetcher, err := jwks.NewHTTPKeySource(cfg.FetchTimeout, log, metrics)
	if err != nil {
		return nil, err
	}
	var source jwks.KeySource = fetcher
	if cfg.SharedCache && cache != nil {
		source = jwks.NewRedisKeySource(fetcher, cache, cfg.CacheTTL, log)
	}

	keys := jwks.NewCachedKeySource(source, cfg, log)
	if err := app.RegisterComponent(keys); err != nil {
		return nil, err
	}
	return jwks.NewVerifier(keys,
		jwks.WithLogger(log),
		jwks.WithMetrics(metrics),
		jwks.WithLeeway(cfg.Leeway),
	), nil
}

func newBridge(ctx context.Context, cfg *Config, app *App, metrics *observability.AuthMetrics) (*federation.Bridge, error) {
	idp, err := federation.NewCognitoClient(ctx, cfg.FederatedAWS())
	if err != nil {
		return nil, fmt.Errorf("federation: %w", err)
	}
	return federation.NewBridge(idp, cfg.Auth.Federated, cfg.Federation,
		federation.WithLogger(app.Logger),
		federation.WithMetrics(metrics),
	)
}
