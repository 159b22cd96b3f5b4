package repository

import (
	"context"
	"sync"
)

// CredentialStore persists at most one credential per key. Keys are scoped
// by the location, see storeKey.
//
// Load returns ok == false when nothing is stored; that is not an error.
type CredentialStore interface {
	Load(ctx context.Context, key string) (c Credentials, ok bool, err error)
	Save(ctx context.Context, key string, c Credentials) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore keeps credentials in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Credentials
}

var _ CredentialStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Credentials)}
}

// Load implements CredentialStore.
func (s *MemoryStore) Load(_ context.Context, key string) (Credentials, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.items[key]
	return c, ok, nil
}

// Save implements CredentialStore.
func (s *MemoryStore) Save(_ context.Context, key string, c Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = c
	return nil
}

// Delete implements CredentialStore. Deleting a missing key is a no-op.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// Len returns the number of stored credentials.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
