package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/kbukum/licensing/usercontext"
)

func newJSONLogger(buf *bytes.Buffer, level string) *Logger {
	return NewWithWriter(&Config{Level: level, Format: "json"}, "license-service", buf)
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	line := strings.TrimSpace(buf.String())
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("invalid json log line %q: %v", line, err)
	}
	return m
}

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "debug")
	l.Info("hello", Fields("k", "v"))

	m := decodeLine(t, &buf)
	if m["message"] != "hello" {
		t.Errorf("expected message hello, got %v", m["message"])
	}
	if m["k"] != "v" {
		t.Errorf("expected field k=v, got %v", m["k"])
	}
	if m["service"] != "license-service" {
		t.Errorf("expected service field, got %v", m["service"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "warn")
	l.Info("dropped")
	l.Debug("dropped")
	if buf.Len() != 0 {
		t.Errorf("expected info/debug to be filtered, got %q", buf.String())
	}
	l.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Error("expected warn line")
	}
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "nonsense")
	l.Debug("dropped")
	l.Info("kept")
	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	newJSONLogger(&buf, "info").WithComponent("resilience").Info("x")
	if m := decodeLine(t, &buf); m[FieldComponent] != "resilience" {
		t.Errorf("expected component field, got %v", m[FieldComponent])
	}
}

func TestWithContext_UserContext(t *testing.T) {
	var buf bytes.Buffer
	ctx := usercontext.WithContext(context.Background(), usercontext.UserContext{
		CorrelationID:  "corr-1",
		UserID:         "user-1",
		OrganizationID: "O1",
	})
	newJSONLogger(&buf, "info").WithContext(ctx).Info("x")

	m := decodeLine(t, &buf)
	if m[FieldCorrelationID] != "corr-1" {
		t.Errorf("expected correlation id, got %v", m[FieldCorrelationID])
	}
	if m[FieldUserID] != "user-1" {
		t.Errorf("expected user id, got %v", m[FieldUserID])
	}
	if m[FieldOrganizationID] != "O1" {
		t.Errorf("expected organization id, got %v", m[FieldOrganizationID])
	}
}

func TestWithContext_Span(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	var buf bytes.Buffer
	newJSONLogger(&buf, "info").WithContext(ctx).Info("x")

	m := decodeLine(t, &buf)
	if m[FieldTraceID] != span.SpanContext().TraceID().String() {
		t.Errorf("expected trace id %s, got %v", span.SpanContext().TraceID(), m[FieldTraceID])
	}
}

func TestWithContext_Empty(t *testing.T) {
	var buf bytes.Buffer
	newJSONLogger(&buf, "info").WithContext(context.Background()).Info("x")
	m := decodeLine(t, &buf)
	if _, ok := m[FieldCorrelationID]; ok {
		t.Error("no correlation id expected")
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	newJSONLogger(&buf, "info").WithError(errors.New("boom")).Error("failed")
	if m := decodeLine(t, &buf); m["error"] != "boom" {
		t.Errorf("expected error field, got %v", m["error"])
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info("ignored")
	l.WithComponent("x").WithFields(Fields("a", 1)).Warn("ignored")
}

func TestInitSetsGlobal(t *testing.T) {
	prev := globalLogger
	defer SetGlobalLogger(prev)

	l := Init(Config{Level: "error", Format: "json"}, "svc")
	if GetGlobalLogger() != l {
		t.Error("Init should install the global logger")
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != FormatConsole || cfg.Output != "stdout" || !cfg.Timestamp {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "info", Format: "json"}, false},
		{"bad level", Config{Level: "loud", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
		{"negative rotation", Config{Level: "info", Format: "json", MaxBackups: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFields(t *testing.T) {
	m := Fields("a", 1, "b", "two", 3, "skipped", "dangling")
	if m["a"] != 1 || m["b"] != "two" {
		t.Errorf("unexpected fields: %v", m)
	}
	if len(m) != 2 {
		t.Errorf("expected 2 fields, got %d", len(m))
	}
}

func TestErrorAndDurationFields(t *testing.T) {
	ef := ErrorFields("fetch", errors.New("x"))
	if ef[FieldOperation] != "fetch" || ef[FieldError] != "x" {
		t.Errorf("unexpected error fields: %v", ef)
	}
	df := DurationFields("fetch", 1500*time.Millisecond)
	if df[FieldDuration] != int64(1500) {
		t.Errorf("unexpected duration: %v", df[FieldDuration])
	}
}

func TestOutputWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "license-service.log")
	cfg := &Config{Level: "info", Format: "json", Output: path}
	cfg.ApplyDefaults()

	w, ok := outputWriter(cfg).(*lumberjack.Logger)
	if !ok {
		t.Fatalf("outputWriter(%q) is not a rotating file writer", path)
	}
	if w.Filename != path || w.MaxSize != 100 || w.MaxBackups != 7 {
		t.Errorf("rotation = %+v", w)
	}

	log := New(cfg, "license-service")
	log.Info("written to file")
	_ = w.Close()

	if outputWriter(&Config{Output: "stderr"}) != os.Stderr {
		t.Error("stderr output not honoured")
	}
}
