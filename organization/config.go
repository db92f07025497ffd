package organization

import (
	"time"

	"github.com/kbukum/licensing/validation"
)

// Config configures the organization clients.
type Config struct {
	// ServiceName is the registry name resolved by the discovery and feign clients.
	ServiceName string `mapstructure:"service_name" validate:"required"`
	// BaseURL is the fixed address used by the rest client.
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	// Timeout bounds a single HTTP exchange.
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
	// DefaultMode is used for unknown or empty client modes.
	DefaultMode string `mapstructure:"default_mode" validate:"oneof=rest discovery feign"`
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = ServiceName
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.DefaultMode == "" {
		c.DefaultMode = ModeREST
	}
}

// Validate checks the struct tags.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
