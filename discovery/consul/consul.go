// Package consul provides a discovery backend over the HashiCorp Consul
// health catalog and agent API.
package consul

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/hashicorp/consul/api"

	"github.com/kbukum/licensing/discovery"
	"github.com/kbukum/licensing/logger"
)

// Provider implements both discovery.Registry and discovery.Discovery using HashiCorp Consul.
type Provider struct {
	client *api.Client
	cfg    discovery.Config
	log    *logger.Logger
}

func init() {
	discovery.RegisterProviderFactory("consul", func(cfg discovery.Config, log *logger.Logger) (discovery.Registry, discovery.Discovery, error) {
		p, err := NewProvider(cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	})
}

// NewProvider creates a Provider from the given Config.
func NewProvider(cfg discovery.Config, log *logger.Logger) (*Provider, error) {
	apiCfg := api.DefaultConfig()
	apiCfg.Address = cfg.ConsulAddr
	apiCfg.Scheme = cfg.ConsulScheme
	apiCfg.Token = cfg.ConsulToken
	if cfg.ConsulDatacenter != "" {
		apiCfg.Datacenter = cfg.ConsulDatacenter
	}

	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Provider{
		client: client,
		cfg:    cfg,
		log:    log.WithComponent("consul"),
	}, nil
}

// Register registers a service instance with the local Consul agent, with
// an HTTP health check against the service's health path.
func (c *Provider) Register(ctx context.Context, service *discovery.ServiceInfo) error {
	reg := &api.AgentServiceRegistration{
		ID:      service.ID,
		Name:    service.Name,
		Address: service.Address,
		Port:    service.Port,
		Tags:    service.Tags,
		Meta:    service.Metadata,
	}

	if c.cfg.HealthCheckPath != "" {
		reg.Check = &api.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d%s", service.Address, service.Port, c.cfg.HealthCheckPath),
			Interval:                       c.cfg.HealthCheckInterval.String(),
			Timeout:                        c.cfg.HealthCheckTimeout.String(),
			DeregisterCriticalServiceAfter: c.cfg.DeregisterAfter.String(),
		}
	}

	opts := api.ServiceRegisterOpts{}.WithContext(ctx)
	if err := c.client.Agent().ServiceRegisterOpts(reg, opts); err != nil {
		c.log.Error("failed to register service", logger.Fields(
			"service_id", service.ID, logger.FieldError, err.Error(),
		))
		return fmt.Errorf("consul register %q: %w", service.Name, err)
	}

	c.log.Info("service registered", logger.Fields(
		"service_id", service.ID, "address", service.Address, "port", service.Port,
	))
	return nil
}

// Deregister removes a service instance from Consul.
func (c *Provider) Deregister(ctx context.Context, serviceID string) error {
	q := (&api.QueryOptions{}).WithContext(ctx)
	if err := c.client.Agent().ServiceDeregisterOpts(serviceID, q); err != nil {
		return fmt.Errorf("consul deregister %q: %w", serviceID, err)
	}
	c.log.Info("service deregistered", logger.Fields("service_id", serviceID))
	return nil
}

// Discover queries Consul for passing instances of the named service.
func (c *Provider) Discover(ctx context.Context, serviceName string) ([]discovery.ServiceInstance, error) {
	q := (&api.QueryOptions{}).WithContext(ctx)
	entries, _, err := c.client.Health().Service(serviceName, "", true, q)
	if err != nil {
		return nil, fmt.Errorf("consul discover %q: %w", serviceName, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", discovery.ErrNoHealthyEndpoints, serviceName)
	}

	now := time.Now()
	instances := make([]discovery.ServiceInstance, 0, len(entries))
	for _, e := range entries {
		instances = append(instances, serviceEntryToInstance(e, now))
	}
	return instances, nil
}

// Close is a no-op; the HTTP client does not require explicit closing.
func (c *Provider) Close() error {
	return nil
}

func serviceEntryToInstance(e *api.ServiceEntry, now time.Time) discovery.ServiceInstance {
	health := discovery.HealthHealthy
	for _, chk := range e.Checks {
		if chk.Status != api.HealthPassing {
			health = discovery.HealthUnhealthy
			break
		}
	}

	protocol := e.Service.Meta["protocol"]
	if protocol == "" {
		for _, tag := range e.Service.Tags {
			if tag == "http" || tag == "https" {
				protocol = tag
				break
			}
		}
	}

	weight, _ := strconv.Atoi(e.Service.Meta["weight"])

	// Services registered without an address inherit the node address.
	address := e.Service.Address
	if address == "" && e.Node != nil {
		address = e.Node.Address
	}

	return discovery.ServiceInstance{
		ID:       e.Service.ID,
		Name:     e.Service.Service,
		Address:  address,
		Port:     e.Service.Port,
		Protocol: protocol,
		Tags:     e.Service.Tags,
		Metadata: e.Service.Meta,
		Health:   health,
		Weight:   weight,
		LastSeen: now,
	}
}

// Compile-time checks.
var (
	_ discovery.Registry  = (*Provider)(nil)
	_ discovery.Discovery = (*Provider)(nil)
)
