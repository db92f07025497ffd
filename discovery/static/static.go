// Package static provides a discovery backend over a fixed endpoint list.
package static

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/kbukum/licensing/discovery"
	"github.com/kbukum/licensing/logger"
)

// Provider implements discovery.Registry and discovery.Discovery using an in-memory list of
// endpoints. Useful for local development and testing.
type Provider struct {
	mu        sync.RWMutex
	instances map[string][]discovery.ServiceInstance // keyed by service name
}

func init() {
	discovery.RegisterProviderFactory("static", func(cfg discovery.Config, _ *logger.Logger) (discovery.Registry, discovery.Discovery, error) {
		p := NewProvider(cfg.StaticEndpoints)
		return p, p, nil
	})
}

// NewProvider creates a Provider pre-populated from static config.
func NewProvider(endpoints []discovery.StaticEndpoint) *Provider {
	sp := &Provider{
		instances: make(map[string][]discovery.ServiceInstance),
	}
	now := time.Now()
	for _, ep := range endpoints {
		inst := discovery.ServiceInstance{
			ID:       fmt.Sprintf("%s-%s-%d", ep.Name, ep.Address, ep.Port),
			Name:     ep.Name,
			Address:  ep.Address,
			Port:     ep.Port,
			Protocol: ep.Protocol,
			Weight:   ep.Weight,
			Health:   discovery.HealthHealthy,
			LastSeen: now,
		}
		if inst.Weight <= 0 {
			inst.Weight = 1
		}
		sp.instances[ep.Name] = append(sp.instances[ep.Name], inst)
	}
	return sp
}

// Register adds a service instance to the in-memory store.
func (s *Provider) Register(_ context.Context, svc *discovery.ServiceInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst := discovery.ServiceInstance{
		ID:       svc.ID,
		Name:     svc.Name,
		Address:  svc.Address,
		Port:     svc.Port,
		Tags:     svc.Tags,
		Metadata: svc.Metadata,
		Health:   discovery.HealthHealthy,
		Weight:   1,
		LastSeen: time.Now(),
	}
	s.instances[svc.Name] = append(s.instances[svc.Name], inst)
	return nil
}

// Deregister removes a service instance by ID.
func (s *Provider) Deregister(_ context.Context, serviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, list := range s.instances {
		for i, inst := range list {
			if inst.ID == serviceID {
				s.instances[name] = slices.Delete(slices.Clone(list), i, i+1)
				return nil
			}
		}
	}
	return nil
}

// SetHealth marks an instance healthy or unhealthy.
func (s *Provider) SetHealth(serviceID string, healthy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := discovery.HealthUnhealthy
	if healthy {
		status = discovery.HealthHealthy
	}
	for name, list := range s.instances {
		for i := range list {
			if list[i].ID == serviceID {
				s.instances[name][i].Health = status
			}
		}
	}
}

// Discover returns the currently registered instances for the named service.
func (s *Provider) Discover(_ context.Context, serviceName string) ([]discovery.ServiceInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	instances, ok := s.instances[serviceName]
	if !ok || len(instances) == 0 {
		return nil, fmt.Errorf("%w: %s", discovery.ErrServiceNotFound, serviceName)
	}

	out := make([]discovery.ServiceInstance, len(instances))
	copy(out, instances)
	return out, nil
}

// Close is a no-op for the static provider.
func (s *Provider) Close() error {
	return nil
}

// Compile-time checks.
var (
	_ discovery.Registry  = (*Provider)(nil)
	_ discovery.Discovery = (*Provider)(nil)
)
