package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Common discovery errors.
var (
	ErrServiceNotFound    = errors.New("service not found")
	ErrNoHealthyEndpoints = errors.New("no healthy endpoints found")
)

// ServiceInstance represents a discovered service endpoint.
type ServiceInstance struct {
	ID       string
	Name     string
	Address  string
	Port     int
	Protocol string
	Tags     []string
	Metadata map[string]string
	Health   HealthStatus
	Weight   int
	LastSeen time.Time
}

// URL returns the base URL of the instance. The scheme is https when the
// instance protocol says so and http otherwise.
func (s ServiceInstance) URL() string {
	scheme := "http"
	if s.Protocol == "https" {
		scheme = "https"
	}
	if s.Port == 0 {
		return fmt.Sprintf("%s://%s", scheme, s.Address)
	}
	return fmt.Sprintf("%s://%s:%d", scheme, s.Address, s.Port)
}

// HealthStatus represents endpoint health.
type HealthStatus string

const (
	HealthUnknown   HealthStatus = "unknown"
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// Discovery defines the contract for discovering service instances.
type Discovery interface {
	// Discover returns the known instances of the named service.
	Discover(ctx context.Context, serviceName string) ([]ServiceInstance, error)

	// Close releases any resources held by the discovery backend.
	Close() error
}
