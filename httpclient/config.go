package httpclient

import (
	"fmt"
	"time"

	"github.com/kbukum/repoauth/config"
	"github.com/kbukum/repoauth/security"
)

const (
	defaultTimeout = 30 * time.Second
)

// Config configures the authenticated client.
type Config struct {
	// Timeout bounds each exchange including challenge resends. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`

	// UserAgent is sent when a request has none. Defaults to version.UserAgent().
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`

	// Headers are default headers applied to all requests.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// Preemptive sends stored HTTP credentials with the first request to a
	// host instead of waiting for a challenge.
	Preemptive bool `yaml:"preemptive" mapstructure:"preemptive"`

	// OpenIDBearer attaches a stored, unexpired OpenID token as a bearer
	// token when no HTTP credentials are stored.
	OpenIDBearer bool `yaml:"openid_bearer" mapstructure:"openid_bearer"`

	// TLS configures the base trust of every connection. Certificate
	// credentials override it per request.
	TLS *security.TLSConfig `yaml:"tls" mapstructure:"tls"`

	// Reauthentication bounds the prompt-and-retry loop of WithReauthentication.
	Reauthentication RetryPolicy `yaml:"reauthentication" mapstructure:"reauthentication"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	c.Reauthentication.ApplyDefaults()
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := config.Validate(c); err != nil {
		return fmt.Errorf("httpclient: %w", err)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("httpclient: timeout must be positive")
	}
	if c.TLS != nil {
		if err := c.TLS.Validate(); err != nil {
			return err
		}
	}
	return c.Reauthentication.Validate()
}
