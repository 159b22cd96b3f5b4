package bootstrap

import (
	"github.com/kbukum/repoauth/config"
)

// Config is the constraint for application configuration types. Any struct
// embedding config.AppConfig satisfies it through promoted methods once it
// defines its own ApplyDefaults and Validate.
//
//	type Config struct {
//	    config.AppConfig `yaml:",inline" mapstructure:",squash"`
//	    Location repository.LocationConfig `yaml:"location" mapstructure:"location"`
//	}
//
//	app, err := bootstrap.NewApp(&cfg)
type Config interface {
	GetAppConfig() *config.AppConfig
	ApplyDefaults()
	Validate() error
}
