package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/llmdispatch/logger"
)

// InitMeter initializes the OpenTelemetry meter provider for the given
// service identity. Returns a MeterProvider that should be shut down on
// application exit.
func InitMeter(ctx context.Context, serviceName, serviceVersion, environment string, cfg Config) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(serviceName, serviceVersion, environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", serviceName,
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds OpenTelemetry metric instruments for dispatch observability.
type Metrics struct {
	dispatchTotal    metric.Int64Counter
	dispatchDuration metric.Float64Histogram
	dispatchActive   metric.Int64UpDownCounter
	retryTotal       metric.Int64Counter
	tokenTotal       metric.Int64Counter
	errorTotal       metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	dispatchTotal, err := meter.Int64Counter("dispatch.total",
		metric.WithDescription("Total number of dispatched messages"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dispatch.total counter: %w", err)
	}

	dispatchDuration, err := meter.Float64Histogram("dispatch.duration",
		metric.WithDescription("Duration of dispatches in seconds, across all attempts"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dispatch.duration histogram: %w", err)
	}

	dispatchActive, err := meter.Int64UpDownCounter("dispatch.active",
		metric.WithDescription("Number of currently in-flight dispatches"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dispatch.active gauge: %w", err)
	}

	retryTotal, err := meter.Int64Counter("dispatch.retry.total",
		metric.WithDescription("Total retry attempts by reason"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dispatch.retry.total counter: %w", err)
	}

	tokenTotal, err := meter.Int64Counter("dispatch.tokens.total",
		metric.WithDescription("Total tokens consumed by model"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dispatch.tokens.total counter: %w", err)
	}

	errorTotal, err := meter.Int64Counter("error.total",
		metric.WithDescription("Total errors by type and component"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating error.total counter: %w", err)
	}

	return &Metrics{
		dispatchTotal:    dispatchTotal,
		dispatchDuration: dispatchDuration,
		dispatchActive:   dispatchActive,
		retryTotal:       retryTotal,
		tokenTotal:       tokenTotal,
		errorTotal:       errorTotal,
	}, nil
}

// RecordDispatchStart increments the in-flight dispatch count.
func (m *Metrics) RecordDispatchStart(ctx context.Context) {
	m.dispatchActive.Add(ctx, 1)
}

// RecordDispatchEnd decrements in-flight dispatches and records the
// completed dispatch with its total duration.
func (m *Metrics) RecordDispatchEnd(ctx context.Context, service, model, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("model", model),
		attribute.String("status", status),
	)
	m.dispatchActive.Add(ctx, -1)
	m.dispatchTotal.Add(ctx, 1, attrs)
	m.dispatchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("model", model),
	))
}

// RecordRetry records a retry attempt with the error reason that caused it.
func (m *Metrics) RecordRetry(ctx context.Context, service, reason string) {
	m.retryTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("reason", reason),
	))
}

// RecordTokens records token consumption reported by the API.
func (m *Metrics) RecordTokens(ctx context.Context, service, model string, tokens int64) {
	if tokens <= 0 {
		return
	}
	m.tokenTotal.Add(ctx, tokens, metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("model", model),
	))
}

// RecordError records an error by type and component.
func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}
