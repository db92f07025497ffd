package httpclient

import (
	"fmt"
	"time"
)

const (
	defaultTimeout = 5 * time.Second
)

// Config configures the HTTP client.
type Config struct {
	// Name identifies the downstream in logs, spans and errors.
	Name string `yaml:"name" mapstructure:"name"`

	// BaseURL is the base URL prepended to all request paths. Clients whose
	// address is resolved per call leave it empty and pass full URLs.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout bounds the whole exchange, body read included. The resilience
	// policy applies its own per-attempt timeout on top. Defaults to 5s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Headers are default headers applied to all requests.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Name == "" {
		c.Name = "http"
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("httpclient: timeout must be positive")
	}
	return nil
}
