package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// recordSpans installs a span recorder as the global tracer provider for
// the duration of the test.
func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func attributes(span sdktrace.ReadOnlySpan) map[string]string {
	attrs := map[string]string{}
	for _, kv := range span.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	return attrs
}

func sumCounter(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s is not an int64 sum", name)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestNewOperationContext(t *testing.T) {
	oc := NewOperationContext("license-service", "GET /v1/organization/:organizationId/license/:licenseId", "corr-1", "user-1", nil)

	if oc.ServiceName != "license-service" {
		t.Errorf("ServiceName = %q, want license-service", oc.ServiceName)
	}
	if oc.OperationName != "GET /v1/organization/:organizationId/license/:licenseId" {
		t.Errorf("OperationName = %q", oc.OperationName)
	}
	if oc.CorrelationID != "corr-1" || oc.UserID != "user-1" {
		t.Errorf("ids = %q/%q, want corr-1/user-1", oc.CorrelationID, oc.UserID)
	}
	if oc.StartTime.IsZero() {
		t.Error("StartTime not set")
	}
	if oc.Metrics != nil {
		t.Error("Metrics should be nil when none are given")
	}
}

func TestOperationContextFromContext(t *testing.T) {
	if got := OperationContextFromContext(context.Background()); got != nil {
		t.Errorf("expected nil without an operation, got %+v", got)
	}

	oc := NewOperationContext("license-service", "lookup", "corr-1", "", nil)
	ctx := WithOperationContext(context.Background(), oc)
	if got := OperationContextFromContext(ctx); got != oc {
		t.Errorf("OperationContextFromContext() = %p, want %p", got, oc)
	}
}

func TestOperationContext_RecordsSpan(t *testing.T) {
	tests := []struct {
		name      string
		userID    string
		status    string
		err       error
		wantEvent bool
	}{
		{"success", "user-1", "200", nil, false},
		{"failure", "", "502", errors.New("organization service unavailable"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := recordSpans(t)

			oc := NewOperationContext("license-service", "lookup", "corr-1", tt.userID, nil)
			ctx, span := oc.StartSpanForOperation(context.Background(), SpanHTTPRequest)
			oc.EndOperation(ctx, span, tt.status, tt.err)

			spans := recorder.Ended()
			if len(spans) != 1 {
				t.Fatalf("expected 1 span, got %d", len(spans))
			}
			attrs := attributes(spans[0])
			if attrs[AttrCorrelationID] != "corr-1" {
				t.Errorf("correlation id = %q", attrs[AttrCorrelationID])
			}
			if attrs[AttrStatus] != tt.status {
				t.Errorf("status = %q, want %q", attrs[AttrStatus], tt.status)
			}
			if _, ok := attrs[AttrUserID]; ok != (tt.userID != "") {
				t.Errorf("user id attribute present = %v", ok)
			}
			if got := len(spans[0].Events()) > 0; got != tt.wantEvent {
				t.Errorf("error event recorded = %v, want %v", got, tt.wantEvent)
			}
		})
	}
}

func TestOperationContext_RecordsRequestMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() error: %v", err)
	}

	oc := NewOperationContext("license-service", "lookup", "corr-1", "", metrics)
	ctx, span := oc.StartSpanForOperation(context.Background(), SpanHTTPRequest)
	oc.EndOperation(ctx, span, "200", nil)

	if got := sumCounter(t, reader, "request.total"); got != 1 {
		t.Errorf("request.total = %d, want 1", got)
	}
}

func TestSetSpanAttribute(t *testing.T) {
	recorder := recordSpans(t)

	ctx, span := StartSpan(context.Background(), "lookup")
	SetSpanAttribute(ctx, AttrLicenseID, "f3831f8c")
	SetSpanAttribute(ctx, "attempts", 3)
	SetSpanAttribute(ctx, "elapsed_ms", int64(12))
	SetSpanAttribute(ctx, "ratio", 0.5)
	SetSpanAttribute(ctx, "degraded", true)
	SetSpanAttribute(ctx, "modes", []string{"rest", "feign"})
	SetSpanAttribute(ctx, "ignored", struct{}{})
	SetSpanError(ctx, errors.New("boom"))
	span.End()

	attrs := attributes(recorder.Ended()[0])
	want := map[string]string{
		AttrLicenseID: "f3831f8c",
		"attempts":    "3",
		"elapsed_ms":  "12",
		"ratio":       "0.5",
		"degraded":    "true",
		"modes":       `["rest","feign"]`,
	}
	for k, v := range want {
		if attrs[k] != v {
			t.Errorf("attribute %s = %q, want %q", k, attrs[k], v)
		}
	}
	if _, ok := attrs["ignored"]; ok {
		t.Error("unsupported value types should be skipped")
	}
	if len(recorder.Ended()[0].Events()) != 1 {
		t.Error("expected the error event")
	}
}

func TestSetSpanAttribute_WithoutSpan(t *testing.T) {
	ctx := context.Background()
	SetSpanAttribute(ctx, AttrLicenseID, "f3831f8c")
	SetSpanError(ctx, errors.New("boom"))
}

func TestNewMetrics_Noop(t *testing.T) {
	metrics, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() error: %v", err)
	}
	ctx := context.Background()
	metrics.RecordRequestStart(ctx)
	metrics.RecordRequestEnd(ctx, "license-service", "lookup", "200", time.Millisecond)
	metrics.RecordOperation(ctx, "license-service", "organization.fetch", "ok", time.Millisecond)
	metrics.RecordError(ctx, "timeout", "organization")
}

func TestResilienceMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	rm, err := NewResilienceMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	rm.RecordAttempt(ctx, "organization-service", "failure", 10*time.Millisecond)
	rm.RecordAttempt(ctx, "organization-service", "success", 5*time.Millisecond)
	rm.RecordRejection(ctx, "organization-service", "circuit_open")
	rm.RecordStateChange(ctx, "organization-service", "closed", "open")
	rm.RecordFallback(ctx, "organization-service", "circuit_open")
	rm.RecordFallback(ctx, "organization-service", "rate_limited")

	if got := sumCounter(t, reader, "resilience.attempt.total"); got != 2 {
		t.Errorf("expected 2 attempts, got %d", got)
	}
	if got := sumCounter(t, reader, "resilience.rejection.total"); got != 1 {
		t.Errorf("expected 1 rejection, got %d", got)
	}
	if got := sumCounter(t, reader, "resilience.circuit.transitions"); got != 1 {
		t.Errorf("expected 1 transition, got %d", got)
	}
	if got := sumCounter(t, reader, "resilience.fallback.total"); got != 2 {
		t.Errorf("expected 2 fallbacks, got %d", got)
	}
}

func TestInitProviders(t *testing.T) {
	prevTP, prevMP := otel.GetTracerProvider(), otel.GetMeterProvider()
	defer func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
	}()
	// Nothing listens on the endpoint; bound the final flush.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	for _, rate := range []float64{1, 0, 0.5} {
		tp, err := InitTracer(context.Background(), &TracerConfig{
			ServiceName: "license-service",
			Endpoint:    "localhost:4318",
			Insecure:    true,
			SampleRate:  rate,
		})
		if err != nil {
			t.Fatalf("InitTracer(rate %v) error: %v", rate, err)
		}
		_ = tp.Shutdown(shutdownCtx)
	}

	mp, err := InitMeter(context.Background(), &MeterConfig{
		ServiceName: "license-service",
		Endpoint:    "localhost:4318",
		Insecure:    true,
		Interval:    time.Hour,
	})
	if err != nil {
		t.Fatalf("InitMeter() error: %v", err)
	}
	_ = mp.Shutdown(shutdownCtx)
}

func TestConfig_Defaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Endpoint != "localhost:4318" || cfg.SampleRate != 1.0 || cfg.MetricInterval != 15*time.Second {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}

	cfg.SampleRate = 2
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for sample rate above 1")
	}
}

func TestSetup_Disabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{}, "license-service", "1.0.0", "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("unexpected shutdown error: %v", err)
	}
}
