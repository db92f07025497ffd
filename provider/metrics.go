package provider

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/kbukum/licensing/errors"
	"github.com/kbukum/licensing/observability"
)

// WithMetrics returns a Middleware that records operation count and
// duration per provider, plus an error counter keyed by the error code.
func WithMetrics[I, O any](metrics *observability.Metrics) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return &metricsRR[I, O]{inner: inner, metrics: metrics}
	}
}

type metricsRR[I, O any] struct {
	inner   RequestResponse[I, O]
	metrics *observability.Metrics
}

func (m *metricsRR[I, O]) Name() string                         { return m.inner.Name() }
func (m *metricsRR[I, O]) IsAvailable(ctx context.Context) bool { return m.inner.IsAvailable(ctx) }

func (m *metricsRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	start := time.Now()
	output, err := m.inner.Execute(ctx, input)
	duration := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
		m.metrics.RecordError(ctx, errorType(err), m.inner.Name())
	}
	m.metrics.RecordOperation(ctx, m.inner.Name(), "execute", status, duration)

	return output, err
}

func errorType(err error) string {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return strings.ToLower(string(appErr.Code))
	}
	return "unknown"
}
