package config

import (
	"fmt"

	"github.com/kbukum/repoauth/logger"
)

// AppConfig contains the fields every repoauth application carries.
// Applications embed it in their own config structs:
//
//	type Config struct {
//	    config.AppConfig `yaml:",inline" mapstructure:",squash"`
//	    Location repository.LocationConfig `yaml:"location" mapstructure:"location"`
//	}
type AppConfig struct {
	Name        string        `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string        `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// ApplyDefaults applies default values.
func (c *AppConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "production"
	}
	if c.Environment == "development" && c.Logging.Level == "" {
		c.Logging.Level = "debug"
	}
	c.Logging.ApplyDefaults()
}

// Validate validates the application fields and the logging section.
func (c *AppConfig) Validate() error {
	if err := Validate(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}

// GetAppConfig returns the embedded application fields.
func (c *AppConfig) GetAppConfig() *AppConfig {
	return c
}
