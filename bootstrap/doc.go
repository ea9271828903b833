// Package bootstrap runs a service through its lifecycle: configuration
// defaults and validation, logger setup, component start in registration
// order, business wiring, a readiness check, and graceful shutdown on
// SIGINT/SIGTERM.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(storeComponent)
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*Config]) error {
//	    // build services and mount routes on the started components
//	    return nil
//	})
//	err = app.Run(ctx)
package bootstrap
