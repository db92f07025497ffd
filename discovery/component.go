package discovery

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/kbukum/licensing/component"
	"github.com/kbukum/licensing/logger"
)

// ProviderFactory creates a Registry and Discovery pair from a Config.
type ProviderFactory func(cfg Config, log *logger.Logger) (Registry, Discovery, error)

var (
	factoriesMu       sync.RWMutex
	providerFactories = make(map[string]ProviderFactory)
)

// RegisterProviderFactory registers a discovery backend factory for the given
// provider name. Implementation packages call this in an init function.
func RegisterProviderFactory(name string, f ProviderFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	providerFactories[name] = f
}

func lookupFactory(name string) (ProviderFactory, bool) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	f, ok := providerFactories[name]
	return f, ok
}

// Component wraps a Registry and Discovery pair and implements
// component.Component for lifecycle management.
type Component struct {
	registry   Registry
	discovery  Discovery
	client     *Client
	cfg        Config
	registered bool
	log        *logger.Logger
}

// NewComponent creates a discovery Component.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Component{
		cfg: cfg,
		log: log.WithComponent("discovery"),
	}
}

var _ component.Component = (*Component)(nil)

// Name returns the component name.
func (c *Component) Name() string { return "discovery" }

// Client returns the caching, load-balancing Client. Nil until Start.
func (c *Component) Client() *Client { return c.client }

// Strategy returns the configured load-balancing strategy.
func (c *Component) Strategy() LoadBalancingStrategy { return c.cfg.Strategy }

// Start initialises the configured provider and registers the local service
// when asked to.
func (c *Component) Start(ctx context.Context) error {
	if err := c.cfg.Validate(); err != nil {
		return fmt.Errorf("discovery config: %w", err)
	}

	f, ok := lookupFactory(c.cfg.Provider)
	if !ok {
		return fmt.Errorf("unsupported discovery provider %q (not registered)", c.cfg.Provider)
	}

	reg, disc, err := f(c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("discovery start: %w", err)
	}
	c.registry = reg
	c.discovery = disc
	c.client = NewClient(disc, ClientConfig{CacheTTL: c.cfg.CacheTTL}, c.log)

	if c.cfg.Register {
		addr := c.cfg.ServiceAddress
		if addr == "" {
			ip, err := localIP()
			if err != nil {
				return fmt.Errorf("discovery: resolve local IP: %w", err)
			}
			addr = ip
		}
		svc := &ServiceInfo{
			ID:      c.cfg.ServiceID,
			Name:    c.cfg.ServiceName,
			Address: addr,
			Port:    c.cfg.ServicePort,
			Tags:    c.cfg.Tags,
		}
		if err := c.registry.Register(ctx, svc); err != nil {
			return fmt.Errorf("discovery: register self: %w", err)
		}
		c.registered = true
	}

	c.log.Info("discovery component started", logger.Fields(
		"provider", c.cfg.Provider, "strategy", string(c.cfg.Strategy),
	))
	return nil
}

// Stop deregisters the local service and releases resources.
func (c *Component) Stop(ctx context.Context) error {
	if c.registered {
		if err := c.registry.Deregister(ctx, c.cfg.ServiceID); err != nil {
			c.log.Warn("failed to deregister on stop", logger.Fields(logger.FieldError, err.Error()))
		}
		c.registered = false
	}
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Health returns the current health status of the discovery component.
func (c *Component) Health(_ context.Context) component.Health {
	if c.client == nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: "discovery not initialized",
		}
	}
	if c.cfg.Register && !c.registered {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusDegraded,
			Message: "service not registered",
		}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe returns infrastructure summary info for the startup log.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Discovery",
		Type:    "discovery",
		Details: fmt.Sprintf("provider=%s strategy=%s", c.cfg.Provider, c.cfg.Strategy),
	}
}

func localIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}
