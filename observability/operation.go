package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Operation tracks a single dispatch through tracing and metrics. It owns
// the span and the start time, so callers measure elapsed time and close
// the span through one handle.
type Operation struct {
	Service   string
	Name      string
	RequestID string
	Model     string
	StartTime time.Time
	Metrics   *Metrics

	span trace.Span
}

// Begin starts a traced operation and marks it in-flight.
// If metrics is nil, metric recording is silently skipped.
func Begin(ctx context.Context, service, name, requestID string, metrics *Metrics) (context.Context, *Operation) {
	op := &Operation{
		Service:   service,
		Name:      name,
		RequestID: requestID,
		StartTime: time.Now(),
		Metrics:   metrics,
	}

	ctx, op.span = StartSpan(ctx, name)
	op.span.SetAttributes(
		attribute.String(AttrServiceName, service),
		attribute.String(AttrOperationName, name),
		attribute.String(AttrRequestID, requestID),
	)

	if metrics != nil {
		metrics.RecordDispatchStart(ctx)
	}
	return ctx, op
}

// SetModel records the resolved model on the operation and its span.
func (op *Operation) SetModel(model string) {
	op.Model = model
	op.span.SetAttributes(attribute.String(AttrModel, model))
}

// SetAttempt records the current attempt number on the span.
func (op *Operation) SetAttempt(attempt int) {
	op.span.SetAttributes(attribute.Int(AttrAttempt, attempt))
}

// End closes the span and records completion metrics.
func (op *Operation) End(ctx context.Context, status string, err error) {
	duration := time.Since(op.StartTime)

	if err != nil {
		op.span.RecordError(err)
		op.span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}

	op.span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	op.span.End()

	if op.Metrics != nil {
		op.Metrics.RecordDispatchEnd(ctx, op.Service, op.Model, status, duration)
	}
}

// Duration returns the elapsed time since the operation started.
func (op *Operation) Duration() time.Duration {
	return time.Since(op.StartTime)
}
