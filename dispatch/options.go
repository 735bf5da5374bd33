package dispatch

import (
	"github.com/kbukum/llmdispatch/logger"
	"github.com/kbukum/llmdispatch/observability"
)

// Option configures a Dispatcher at construction.
type Option func(*Dispatcher)

// WithLogger sets the logger used by the dispatcher.
func WithLogger(l *logger.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// WithMetrics sets the metric instruments recorded per dispatch.
func WithMetrics(m *observability.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// dispatchOptions holds per-dispatch settings.
type dispatchOptions struct {
	model string
}

// DispatchOption adjusts a single dispatch.
type DispatchOption func(*dispatchOptions)

// WithModel overrides the configured default model for one dispatch.
// An empty model keeps the default.
func WithModel(model string) DispatchOption {
	return func(o *dispatchOptions) {
		if model != "" {
			o.model = model
		}
	}
}
