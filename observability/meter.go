package observability

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/repoauth/logger"
)

// InitMeter installs a global meter provider exporting to cfg.Endpoint.
func InitMeter(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", cfg.ServiceName,
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// ExchangeMetrics holds the instruments recorded by the authenticated client.
type ExchangeMetrics struct {
	exchangeTotal    metric.Int64Counter
	exchangeDuration metric.Float64Histogram
	authFailureTotal metric.Int64Counter
	promptTotal      metric.Int64Counter
}

// NewExchangeMetrics creates the instruments on meter.
func NewExchangeMetrics(meter metric.Meter) (*ExchangeMetrics, error) {
	exchangeTotal, err := meter.Int64Counter("repoauth.exchange.total",
		metric.WithDescription("Completed HTTP exchanges by status code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating exchange.total counter: %w", err)
	}

	exchangeDuration, err := meter.Float64Histogram("repoauth.exchange.duration",
		metric.WithDescription("Duration of HTTP exchanges in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating exchange.duration histogram: %w", err)
	}

	authFailureTotal, err := meter.Int64Counter("repoauth.auth_failure.total",
		metric.WithDescription("Responses rejected with 401 or 407 by authentication type"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth_failure.total counter: %w", err)
	}

	promptTotal, err := meter.Int64Counter("repoauth.prompt.total",
		metric.WithDescription("Credential requests by authentication type and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating prompt.total counter: %w", err)
	}

	return &ExchangeMetrics{
		exchangeTotal:    exchangeTotal,
		exchangeDuration: exchangeDuration,
		authFailureTotal: authFailureTotal,
		promptTotal:      promptTotal,
	}, nil
}

// RecordExchange records one completed exchange. status 0 means the
// exchange failed before a response arrived.
func (m *ExchangeMetrics) RecordExchange(ctx context.Context, method, host string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.exchangeTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("host", host),
		attribute.String("status", statusLabel(status)),
	))
	m.exchangeDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("host", host),
	))
}

// RecordAuthFailure records a 401 or 407 attributed to authType.
func (m *ExchangeMetrics) RecordAuthFailure(ctx context.Context, authType, host string, status int) {
	if m == nil {
		return
	}
	m.authFailureTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("auth_type", authType),
		attribute.String("host", host),
		attribute.String("status", statusLabel(status)),
	))
}

// RecordPrompt records a credential request outcome ("provided", "declined"
// or "error").
func (m *ExchangeMetrics) RecordPrompt(ctx context.Context, authType, outcome string) {
	if m == nil {
		return
	}
	m.promptTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("auth_type", authType),
		attribute.String("outcome", outcome),
	))
}

func statusLabel(status int) string {
	if status == 0 {
		return "error"
	}
	return strconv.Itoa(status)
}
