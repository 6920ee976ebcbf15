// Package observability provides OpenTelemetry tracing and metrics for
// pipeline runs and the HTTP surface.
//
// Setup from the tracing config section:
//
//	metrics, shutdown, err := observability.Setup(ctx, cfg.Telemetry, "pipeflow", version.GetShortVersion(), cfg.Environment)
//	defer shutdown(ctx)
//
// Spans:
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanRun)
//	defer span.End()
//
// Health:
//
//	health := observability.NewServiceHealth("pipeflow", "1.2.0")
//	health.AddComponent(calculator.CheckHealth(ctx))
package observability
