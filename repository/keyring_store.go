package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// DefaultKeyringService is the service name under which credentials are
// stored in the system keychain.
const DefaultKeyringService = "repoauth"

// KeyringStore persists credentials in the system keychain:
//   - macOS: Keychain Access
//   - Linux: Secret Service API (GNOME Keyring, KWallet)
//   - Windows: Credential Manager
type KeyringStore struct {
	service string
}

var _ CredentialStore = (*KeyringStore)(nil)

// NewKeyringStore creates a keychain-backed store. An empty service uses
// DefaultKeyringService.
func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = DefaultKeyringService
	}
	return &KeyringStore{service: service}
}

// Load implements CredentialStore.
func (s *KeyringStore) Load(_ context.Context, key string) (Credentials, bool, error) {
	raw, err := keyring.Get(s.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("repository: keychain get %s: %w", key, err)
	}
	c, err := DecodeCredentials([]byte(raw))
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

// Save implements CredentialStore.
func (s *KeyringStore) Save(_ context.Context, key string, c Credentials) error {
	raw, err := EncodeCredentials(c)
	if err != nil {
		return err
	}
	if err := keyring.Set(s.service, key, string(raw)); err != nil {
		return fmt.Errorf("repository: keychain set %s: %w", key, err)
	}
	return nil
}

// Delete implements CredentialStore. Deleting a missing key is a no-op.
func (s *KeyringStore) Delete(_ context.Context, key string) error {
	if err := keyring.Delete(s.service, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("repository: keychain delete %s: %w", key, err)
	}
	return nil
}
