package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/kbukum/licensing/errors"
)

func TestEndpoint_Expand(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		params  map[string]string
		want    string
		wantErr bool
	}{
		{"single", "/v1/organization/{organizationId}", map[string]string{"organizationId": "O1"}, "/v1/organization/O1", false},
		{"multiple", "/v1/organization/{org}/license/{id}", map[string]string{"org": "O1", "id": "L1"}, "/v1/organization/O1/license/L1", false},
		{"escaped", "/items/{id}", map[string]string{"id": "a b/c"}, "/items/a%20b%2Fc", false},
		{"no params", "/health", nil, "/health", false},
		{"missing", "/items/{id}", map[string]string{}, "", true},
		{"empty value", "/items/{id}", map[string]string{"id": ""}, "", true},
		{"unterminated", "/items/{id", map[string]string{"id": "1"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Endpoint{Method: http.MethodGet, Path: tt.path}.Expand(tt.params)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

type failingTarget struct{ err error }

func (f failingTarget) Service() string                         { return "organization-service" }
func (f failingTarget) BaseURL(context.Context) (string, error) { return "", f.err }

func TestCall_DecodesTypedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/organization/O1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(testItem{ID: 7, Name: "Acme"})
	}))
	defer srv.Close()

	a, _ := New(Config{Name: "organization-service"})
	proxy := NewProxy(a, StaticTarget{Name: "organization-service", URL: srv.URL})
	ep := Endpoint{Method: http.MethodGet, Path: "/v1/organization/{organizationId}"}

	item, err := Call[testItem](context.Background(), proxy, ep, map[string]string{"organizationId": "O1"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Name != "Acme" || item.ID != 7 {
		t.Errorf("unexpected item %+v", item)
	}
	if proxy.Service() != "organization-service" {
		t.Errorf("unexpected service %q", proxy.Service())
	}
}

func TestCall_ResolutionFailure(t *testing.T) {
	a, _ := New(Config{})
	resolveErr := apperrors.ServiceUnavailable("organization-service")
	proxy := NewProxy(a, failingTarget{err: resolveErr})

	_, err := Call[testItem](context.Background(), proxy, Endpoint{Method: http.MethodGet, Path: "/x"}, nil, nil)
	if !errors.Is(err, resolveErr) {
		t.Errorf("expected the resolver error, got %v", err)
	}
}

func TestCall_MissingParameter(t *testing.T) {
	a, _ := New(Config{})
	proxy := NewProxy(a, StaticTarget{Name: "svc", URL: "http://127.0.0.1:1"})

	_, err := Call[testItem](context.Background(), proxy, Endpoint{Method: http.MethodGet, Path: "/items/{id}"}, nil, nil)
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Retryable {
		t.Error("a malformed call must not be retried")
	}
}
