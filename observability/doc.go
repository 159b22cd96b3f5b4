// Package observability wires OpenTelemetry tracing and metrics.
//
// Init installs global tracer and meter providers exporting over OTLP/HTTP
// when enabled. Instruments created through Tracer, Meter and
// NewExchangeMetrics read the global providers, so they are no-ops until
// Init runs.
//
//	shutdown, err := observability.Init(ctx, cfg)
//	defer shutdown(ctx)
//
//	metrics, err := observability.NewExchangeMetrics(observability.Meter(observability.InstrumentationName))
//	metrics.RecordExchange(ctx, "GET", "repo.example.com", 200, elapsed)
package observability
