package discovery

import (
	"fmt"
	"time"
)

// Config holds service discovery and registration configuration.
//
//	discovery:
//	  provider: consul
//	  consul_addr: localhost:8500
//	  strategy: round_robin
//	  register: true
type Config struct {
	// Provider selects the discovery backend: "consul" or "static".
	Provider string `yaml:"provider" mapstructure:"provider"`

	// ConsulAddr is the Consul agent address (host:port).
	ConsulAddr string `yaml:"consul_addr" mapstructure:"consul_addr"`

	// ConsulToken is the Consul ACL token.
	ConsulToken string `yaml:"consul_token" mapstructure:"consul_token"`

	// ConsulScheme is the URI scheme for Consul ("http" or "https").
	ConsulScheme string `yaml:"consul_scheme" mapstructure:"consul_scheme"`

	// ConsulDatacenter is the Consul datacenter name.
	ConsulDatacenter string `yaml:"consul_datacenter" mapstructure:"consul_datacenter"`

	// CacheTTL is how long discovered instances are cached.
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`

	// Strategy picks one instance per call.
	Strategy LoadBalancingStrategy `yaml:"strategy" mapstructure:"strategy"`

	// Register announces this service to the backend on start.
	Register bool `yaml:"register" mapstructure:"register"`

	// ServiceName is the name used when registering this service.
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`

	// ServiceID is the unique instance ID; defaults to ServiceName if empty.
	ServiceID string `yaml:"service_id" mapstructure:"service_id"`

	// ServiceAddress is the address advertised to other services.
	ServiceAddress string `yaml:"service_address" mapstructure:"service_address"`

	// ServicePort is the port advertised to other services.
	ServicePort int `yaml:"service_port" mapstructure:"service_port"`

	// HealthCheckPath is the HTTP path Consul polls.
	HealthCheckPath string `yaml:"health_check_path" mapstructure:"health_check_path"`

	// HealthCheckInterval controls how often health is polled.
	HealthCheckInterval time.Duration `yaml:"health_check_interval" mapstructure:"health_check_interval"`

	// HealthCheckTimeout is the timeout for a single health check.
	HealthCheckTimeout time.Duration `yaml:"health_check_timeout" mapstructure:"health_check_timeout"`

	// DeregisterAfter removes the service after being critical for this duration.
	DeregisterAfter time.Duration `yaml:"deregister_after" mapstructure:"deregister_after"`

	// Tags are attached to the service registration.
	Tags []string `yaml:"tags" mapstructure:"tags"`

	// StaticEndpoints provides endpoints for the static provider.
	StaticEndpoints []StaticEndpoint `yaml:"static_endpoints" mapstructure:"static_endpoints"`
}

// StaticEndpoint describes a statically configured service endpoint.
type StaticEndpoint struct {
	Name     string `yaml:"name" mapstructure:"name"`
	Address  string `yaml:"address" mapstructure:"address"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Protocol string `yaml:"protocol" mapstructure:"protocol"`
	Weight   int    `yaml:"weight" mapstructure:"weight"`
}

// ApplyDefaults fills zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = "static"
	}
	if c.ConsulAddr == "" {
		c.ConsulAddr = "localhost:8500"
	}
	if c.ConsulScheme == "" {
		c.ConsulScheme = "http"
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 30 * time.Second
	}
	if c.Strategy == "" {
		c.Strategy = StrategyRoundRobin
	}
	if c.ServiceID == "" {
		c.ServiceID = c.ServiceName
	}
	if c.HealthCheckPath == "" {
		c.HealthCheckPath = "/health"
	}
	if c.HealthCheckInterval == 0 {
		c.HealthCheckInterval = 10 * time.Second
	}
	if c.HealthCheckTimeout == 0 {
		c.HealthCheckTimeout = 5 * time.Second
	}
	if c.DeregisterAfter == 0 {
		c.DeregisterAfter = time.Minute
	}
}

// Validate checks that required fields are present and consistent.
func (c *Config) Validate() error {
	switch c.Provider {
	case "consul", "static":
	default:
		return fmt.Errorf("unsupported discovery provider %q", c.Provider)
	}
	switch c.Strategy {
	case StrategyRandom, StrategyRoundRobin, StrategyWeighted:
	default:
		return fmt.Errorf("unsupported load-balancing strategy %q", c.Strategy)
	}
	if c.Provider == "consul" && c.ConsulAddr == "" {
		return fmt.Errorf("consul_addr is required when provider is consul")
	}
	if c.Register {
		if c.ServiceName == "" {
			return fmt.Errorf("service_name is required when register is set")
		}
		if c.ServicePort <= 0 {
			return fmt.Errorf("service_port must be > 0 when register is set")
		}
	}
	return nil
}
