// Package observability provides OpenTelemetry tracing and metrics integration
// and the health types reported by the service.
//
// Setup from configuration:
//
//	shutdown, err := observability.Setup(ctx, cfg.Observability, "license-service", version, env)
//	defer shutdown(ctx)
//
// Tracing:
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanDownstreamCall)
//	defer span.End()
//
// Metrics:
//
//	metrics, err := observability.NewMetrics(observability.Meter("license-service"))
//	metrics.RecordRequestEnd(ctx, "license-service", "GET /v1/organization", "ok", duration)
//
//	rm, err := observability.NewResilienceMetrics(observability.Meter("license-service"))
//	rm.RecordRejection(ctx, "organization-service", "circuit_open")
//
// Health reports one Health per resilience policy; the server folds them
// into its /health response.
package observability
