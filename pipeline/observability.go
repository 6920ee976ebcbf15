package pipeline

import (
	"context"
	"time"

	"github.com/kbukum/pipeflow/logger"
	"github.com/kbukum/pipeflow/observability"
)

// WithTracing wraps each stage in an OpenTelemetry span named
// "{prefix}.{stage}".
func WithTracing[T any](prefix string) Middleware[T] {
	return func(s Stage[T]) Stage[T] {
		inner := s.Run
		name := s.Name
		s.Run = func(ctx context.Context, in T) (T, error) {
			ctx, span := observability.StartSpan(ctx, prefix+"."+name)
			defer span.End()

			observability.SetSpanAttribute(ctx, observability.AttrStage, name)

			out, err := inner(ctx, in)
			if err != nil {
				observability.SetSpanError(ctx, err)
			}
			return out, err
		}
		return s
	}
}

// WithMetrics records the duration and outcome of each stage.
func WithMetrics[T any](metrics *observability.Metrics) Middleware[T] {
	return func(s Stage[T]) Stage[T] {
		inner := s.Run
		name := s.Name
		s.Run = func(ctx context.Context, in T) (T, error) {
			start := time.Now()
			out, err := inner(ctx, in)

			status := "ok"
			if err != nil {
				status = "error"
				metrics.RecordError(ctx, "stage", name)
			}
			metrics.RecordStage(ctx, name, status, time.Since(start))
			return out, err
		}
		return s
	}
}

// WithLogging logs each stage with its duration at debug level and its
// failure at error level. Fields from ctx (run and request IDs) are added.
func WithLogging[T any](log *logger.Logger) Middleware[T] {
	return func(s Stage[T]) Stage[T] {
		inner := s.Run
		name := s.Name
		s.Run = func(ctx context.Context, in T) (T, error) {
			start := time.Now()
			out, err := inner(ctx, in)

			fields := logger.Fields(
				logger.FieldStage, name,
				logger.FieldDuration, time.Since(start).Milliseconds(),
			)
			l := log.WithContext(ctx)
			if err != nil {
				l.Error("pipeline stage failed", logger.MergeWithError(fields, err))
			} else {
				l.Debug("pipeline stage completed", fields)
			}
			return out, err
		}
		return s
	}
}
