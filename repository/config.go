package repository

import (
	"context"
	"fmt"
	"net/url"

	"github.com/kbukum/repoauth/config"
	"github.com/kbukum/repoauth/encryption"
)

// Store backends selectable from configuration.
const (
	StoreMemory  = "memory"
	StoreKeyring = "keyring"
	StoreFile    = "file"
)

// LocationConfig describes a location in configuration files.
type LocationConfig struct {
	// URL is the base URL of the remote endpoint.
	URL string `yaml:"url" mapstructure:"url" validate:"required,url"`
	// ID scopes stored credentials. Defaults to URL.
	ID string `yaml:"id" mapstructure:"id"`
	// Proxy is an optional proxy URL (http, https or socks5).
	Proxy string `yaml:"proxy" mapstructure:"proxy" validate:"omitempty,url"`
	// Store selects the credential backend: "memory" (default), "keyring" or "file".
	Store string `yaml:"store" mapstructure:"store" validate:"omitempty,oneof=memory keyring file"`
	// KeyringService is the keychain service name for the keyring store.
	KeyringService string `yaml:"keyring_service" mapstructure:"keyring_service"`
	// File configures the encrypted file store.
	File FileStoreConfig `yaml:"file" mapstructure:"file"`
	// EnvPrefix enables seeding credentials from environment variables.
	EnvPrefix string `yaml:"env_prefix" mapstructure:"env_prefix"`
}

// FileStoreConfig configures the encrypted file store.
type FileStoreConfig struct {
	// Path of the credentials file.
	Path string `yaml:"path" mapstructure:"path"`
	// Passphrase derives the encryption key. Prefer setting it from the
	// environment over writing it into a config file.
	Passphrase string `yaml:"passphrase" mapstructure:"passphrase"`
	// Algorithm is "aes-256-gcm" (default) or "chacha20-poly1305".
	Algorithm string `yaml:"algorithm" mapstructure:"algorithm" validate:"omitempty,oneof=aes-256-gcm chacha20-poly1305"`
}

// ApplyDefaults fills in zero-value fields.
func (c *LocationConfig) ApplyDefaults() {
	if c.Store == "" {
		c.Store = StoreMemory
	}
	if c.Store == StoreKeyring && c.KeyringService == "" {
		c.KeyringService = DefaultKeyringService
	}
}

// Validate checks the configuration.
func (c *LocationConfig) Validate() error {
	if err := config.Validate(c); err != nil {
		return fmt.Errorf("location: %w", err)
	}
	if c.Store == StoreFile && (c.File.Path == "" || c.File.Passphrase == "") {
		return fmt.Errorf("location: file store requires file.path and file.passphrase")
	}
	return nil
}

// Build creates the location described by the configuration. Options are
// applied after the configured ones.
func (c LocationConfig) Build(ctx context.Context, opts ...LocationOption) (*Location, error) {
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	base := []LocationOption{WithID(c.ID)}
	if c.Proxy != "" {
		u, err := url.Parse(c.Proxy)
		if err != nil {
			return nil, fmt.Errorf("location: invalid proxy %q: %w", c.Proxy, err)
		}
		base = append(base, WithProxy(u))
	}
	switch c.Store {
	case StoreKeyring:
		base = append(base, WithStore(NewKeyringStore(c.KeyringService)))
	case StoreFile:
		fs, err := NewFileStore(c.File.Path, c.File.Passphrase, encryption.Algorithm(c.File.Algorithm))
		if err != nil {
			return nil, err
		}
		base = append(base, WithStore(fs))
	default:
		base = append(base, WithStore(NewMemoryStore()))
	}

	loc, err := NewLocation(c.URL, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	if c.EnvPrefix != "" {
		if _, err := LoadEnvCredentials(ctx, loc, c.EnvPrefix); err != nil {
			return nil, err
		}
	}
	return loc, nil
}
