package main

import (
	"fmt"

	"github.com/kbukum/repoauth/config"
	"github.com/kbukum/repoauth/httpclient"
	"github.com/kbukum/repoauth/observability"
	"github.com/kbukum/repoauth/repository"
)

// Config is the repoget configuration file layout.
type Config struct {
	config.AppConfig `yaml:",inline" mapstructure:",squash"`

	Location      repository.LocationConfig `yaml:"location" mapstructure:"location"`
	Client        httpclient.Config         `yaml:"client" mapstructure:"client"`
	Observability observability.Config      `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults applies default values to every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = appName
	}
	c.AppConfig.ApplyDefaults()
	c.Location.ApplyDefaults()
	c.Client.ApplyDefaults()
	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = c.Name
	}
	c.Observability.ApplyDefaults()
}

// Validate validates every section.
func (c *Config) Validate() error {
	if err := c.AppConfig.Validate(); err != nil {
		return err
	}
	if err := c.Location.Validate(); err != nil {
		return fmt.Errorf("config.%w", err)
	}
	if err := c.Client.Validate(); err != nil {
		return err
	}
	return c.Observability.Validate()
}
