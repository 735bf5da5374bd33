// Package observability provides OpenTelemetry tracing and metrics
// integration plus health reporting for dispatch services.
//
// Initialization:
//
//	cfg := observability.Config{Enabled: true, Endpoint: "localhost:4318", Insecure: true}
//	provider, err := observability.Init(ctx, "my-service", "1.0.0", "development", cfg)
//	defer provider.Shutdown(ctx)
//
// Metrics:
//
//	metrics, err := observability.NewMetrics(observability.Meter("my-service"))
//	metrics.RecordDispatchEnd(ctx, "my-service", "gpt-3.5-turbo", "success", duration)
//
// Operations tie a span, timing, and metrics together:
//
//	ctx, op := observability.Begin(ctx, "my-service", observability.SpanDispatch, requestID, metrics)
//	op.SetModel("gpt-3.5-turbo")
//	op.End(ctx, "success", nil)
//
// Health checks:
//
//	health := observability.CheckAll(ctx, "my-service", "1.0.0", dispatcher)
package observability
