// Package bootstrap runs a command-line task with a uniform lifecycle:
// validated configuration, logger initialization, component startup,
// signal-driven cancellation and graceful shutdown.
//
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil {
//	    return err
//	}
//	_ = app.RegisterComponent(observability.NewComponent(cfg.Observability))
//	return app.RunTask(ctx, func(ctx context.Context) error {
//	    return fetch(ctx)
//	})
//
// SIGINT and SIGTERM cancel the task context, so a pending credentials
// prompt returns and leaves the credential store untouched.
package bootstrap
