package consul

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kbukum/licensing/discovery"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := discovery.Config{
		Provider:   "consul",
		ConsulAddr: strings.TrimPrefix(srv.URL, "http://"),
	}
	cfg.ApplyDefaults()
	p, err := NewProvider(cfg, nil)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	return p
}

func TestDiscover_MapsHealthEntries(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/health/service/organization-service" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("passing") == "" {
			t.Error("expected passing-only query")
		}
		w.Header().Set("X-Consul-Index", "7")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{
				"Node":    map[string]any{"Node": "n1", "Address": "10.0.0.9"},
				"Service": map[string]any{"ID": "org-1", "Service": "organization-service", "Port": 8081, "Tags": []string{"http"}, "Meta": map[string]string{"weight": "3"}},
				"Checks":  []map[string]any{{"Status": "passing"}},
			},
			{
				"Node":    map[string]any{"Node": "n2", "Address": "10.0.0.10"},
				"Service": map[string]any{"ID": "org-2", "Service": "organization-service", "Address": "10.1.0.2", "Port": 8082, "Meta": map[string]string{"protocol": "https"}},
				"Checks":  []map[string]any{{"Status": "warning"}},
			},
		})
	})

	got, err := p.Discover(context.Background(), "organization-service")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 instances, got %d", len(got))
	}
	if got[0].Address != "10.0.0.9" || got[0].Weight != 3 || got[0].Protocol != "http" {
		t.Errorf("unexpected first instance %+v", got[0])
	}
	if got[0].Health != discovery.HealthHealthy {
		t.Errorf("expected healthy, got %s", got[0].Health)
	}
	if got[1].URL() != "https://10.1.0.2:8082" {
		t.Errorf("unexpected second URL %s", got[1].URL())
	}
	if got[1].Health != discovery.HealthUnhealthy {
		t.Errorf("expected unhealthy for a warning check, got %s", got[1].Health)
	}
}

func TestDiscover_NoEntries(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	})

	_, err := p.Discover(context.Background(), "organization-service")
	if !errors.Is(err, discovery.ErrNoHealthyEndpoints) {
		t.Errorf("expected ErrNoHealthyEndpoints, got %v", err)
	}
}

func TestRegister_SendsHealthCheck(t *testing.T) {
	var reg map[string]any
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/agent/service/register" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&reg)
	})

	err := p.Register(context.Background(), &discovery.ServiceInfo{
		ID: "license-service", Name: "license-service", Address: "10.0.0.5", Port: 8080,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	check, ok := reg["Check"].(map[string]any)
	if !ok {
		t.Fatalf("expected a health check in %v", reg)
	}
	if check["HTTP"] != "http://10.0.0.5:8080/health" {
		t.Errorf("unexpected check URL %v", check["HTTP"])
	}
}

func TestRegister_AgentError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	})

	err := p.Register(context.Background(), &discovery.ServiceInfo{ID: "x", Name: "x"})
	if err == nil {
		t.Error("expected error from agent")
	}
}
