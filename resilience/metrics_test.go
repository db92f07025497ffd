package resilience

import (
	"context"
	"sync/atomic"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/kbukum/licensing/observability"
)

func counterValue(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok && m.Name == name {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestMetricsHooks(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := observability.NewResilienceMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}

	cfg := testPolicyConfig()
	cfg.CircuitConsecutiveFailures = 1
	p := NewPolicy("organization-service", cfg, MetricsHooks(m), nil)

	var calls atomic.Int32
	_, _ = Execute(context.Background(), p, unreachable(&calls))
	_, _ = Execute(context.Background(), p, unreachable(&calls))

	if got := counterValue(t, reader, "resilience.attempt.total"); got != 2 {
		t.Errorf("expected 2 attempts, got %d", got)
	}
	if got := counterValue(t, reader, "resilience.rejection.total"); got != 2 {
		t.Errorf("expected 2 rejections, got %d", got)
	}
	if got := counterValue(t, reader, "resilience.circuit.transitions"); got != 1 {
		t.Errorf("expected 1 transition, got %d", got)
	}
	_, _ = ExecuteWithFallback(context.Background(), p, unreachable(&calls), func(Reason, error) string { return "sentinel" })
	if got := counterValue(t, reader, "resilience.fallback.total"); got != 1 {
		t.Errorf("expected 1 fallback, got %d", got)
	}
	if got := counterValue(t, reader, "resilience.rejection.total"); got != 3 {
		t.Errorf("expected 3 rejections after the fallback, got %d", got)
	}
}
