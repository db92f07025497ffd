package main

import (
	"fmt"

	"github.com/kbukum/licensing/config"
	"github.com/kbukum/licensing/database"
	"github.com/kbukum/licensing/discovery"
	"github.com/kbukum/licensing/license"
	"github.com/kbukum/licensing/observability"
	"github.com/kbukum/licensing/organization"
	"github.com/kbukum/licensing/resilience"
	"github.com/kbukum/licensing/server"
)

// Config is the license-service configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Database      database.Config      `yaml:"database" mapstructure:"database"`
	Discovery     discovery.Config     `yaml:"discovery" mapstructure:"discovery"`
	Organization  organization.Config  `yaml:"organization" mapstructure:"organization"`
	License       license.Config       `yaml:"license" mapstructure:"license"`
	Resilience    resilience.Config    `yaml:"resilience" mapstructure:"resilience"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.Discovery.ApplyDefaults()
	c.Organization.ApplyDefaults()
	c.Resilience.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Discovery.Validate(); err != nil {
		return fmt.Errorf("discovery: %w", err)
	}
	if err := c.Organization.Validate(); err != nil {
		return fmt.Errorf("organization: %w", err)
	}
	if err := c.Resilience.Validate(); err != nil {
		return err
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	return nil
}
