package observability

import (
	"context"
	"errors"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Provider bundles the tracer and meter providers for coordinated shutdown.
type Provider struct {
	tracer *sdktrace.TracerProvider
	meter  *sdkmetric.MeterProvider
}

// Init initializes tracing and metrics export for the given service identity
// according to cfg. When cfg.Enabled is false it returns an empty Provider
// and leaves the global noop providers in place.
func Init(ctx context.Context, serviceName, serviceVersion, environment string, cfg Config) (*Provider, error) {
	p := &Provider{}
	if !cfg.Enabled {
		return p, nil
	}

	tp, err := InitTracer(ctx, serviceName, serviceVersion, environment, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing tracer: %w", err)
	}
	p.tracer = tp

	mp, err := InitMeter(ctx, serviceName, serviceVersion, environment, cfg)
	if err != nil {
		shutdownErr := tp.Shutdown(ctx)
		return nil, errors.Join(fmt.Errorf("initializing meter: %w", err), shutdownErr)
	}
	p.meter = mp

	return p, nil
}

// Shutdown flushes and stops both providers. Safe to call on an empty
// Provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.tracer != nil {
		if err := p.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}
	if p.meter != nil {
		if err := p.meter.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}
