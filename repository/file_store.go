package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/kbukum/repoauth/encryption"
)

// fileStoreVersion is written to every credentials file.
const fileStoreVersion = 1

// FileStore persists credentials in one file, each entry sealed with a key
// derived from a passphrase. The store key is bound to its entry as
// associated data.
type FileStore struct {
	path       string
	passphrase string
	algorithm  encryption.Algorithm

	mu   sync.Mutex
	salt []byte
	enc  encryption.Encryptor
}

var _ CredentialStore = (*FileStore)(nil)

type credentialFile struct {
	Version   int                  `json:"version"`
	Algorithm encryption.Algorithm `json:"algorithm"`
	Salt      []byte               `json:"salt"`
	Entries   map[string][]byte    `json:"entries"`
}

// NewFileStore creates a store backed by path. The file is created on the
// first Save. An empty algorithm selects AES-256-GCM for new files; existing
// files keep the algorithm they were written with.
func NewFileStore(path, passphrase string, algorithm encryption.Algorithm) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("repository: file store path is required")
	}
	if passphrase == "" {
		return nil, errors.New("repository: file store passphrase is required")
	}
	if algorithm == "" {
		algorithm = encryption.AlgorithmAESGCM
	}
	return &FileStore{path: path, passphrase: passphrase, algorithm: algorithm}, nil
}

// Load implements CredentialStore.
func (s *FileStore) Load(_ context.Context, key string) (Credentials, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read()
	if err != nil || f == nil {
		return nil, false, err
	}
	sealed, ok := f.Entries[key]
	if !ok {
		return nil, false, nil
	}
	enc, err := s.encryptor(f)
	if err != nil {
		return nil, false, err
	}
	raw, err := enc.Decrypt(sealed, []byte(key))
	if err != nil {
		return nil, false, fmt.Errorf("repository: open %s: %w", key, err)
	}
	c, err := DecodeCredentials(raw)
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

// Save implements CredentialStore.
func (s *FileStore) Save(_ context.Context, key string, c Credentials) error {
	raw, err := EncodeCredentials(c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read()
	if err != nil {
		return err
	}
	if f == nil {
		salt, err := encryption.NewSalt()
		if err != nil {
			return err
		}
		f = &credentialFile{Version: fileStoreVersion, Algorithm: s.algorithm, Salt: salt, Entries: map[string][]byte{}}
	}
	enc, err := s.encryptor(f)
	if err != nil {
		return err
	}
	sealed, err := enc.Encrypt(raw, []byte(key))
	if err != nil {
		return err
	}
	f.Entries[key] = sealed
	return s.write(f)
}

// Delete implements CredentialStore. Deleting a missing key is a no-op.
func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read()
	if err != nil || f == nil {
		return err
	}
	if _, ok := f.Entries[key]; !ok {
		return nil
	}
	delete(f.Entries, key)
	return s.write(f)
}

// read returns nil when the file does not exist yet.
func (s *FileStore) read() (*credentialFile, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("repository: read %s: %w", s.path, err)
	}
	var f credentialFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("repository: parse %s: %w", s.path, err)
	}
	if f.Version != fileStoreVersion {
		return nil, fmt.Errorf("repository: %s has unsupported version %d", s.path, f.Version)
	}
	if f.Entries == nil {
		f.Entries = map[string][]byte{}
	}
	return &f, nil
}

// write replaces the file atomically.
func (s *FileStore) write(f *credentialFile) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("repository: encode %s: %w", s.path, err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("repository: create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("repository: write %s: %w", s.path, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("repository: write %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("repository: write %s: %w", s.path, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("repository: write %s: %w", s.path, err)
	}
	return nil
}

// encryptor derives the key once per salt.
func (s *FileStore) encryptor(f *credentialFile) (encryption.Encryptor, error) {
	if s.enc != nil && bytes.Equal(s.salt, f.Salt) {
		return s.enc, nil
	}
	enc, err := encryption.New(encryption.DeriveKey(s.passphrase, f.Salt), f.Algorithm)
	if err != nil {
		return nil, err
	}
	s.salt, s.enc = f.Salt, enc
	return enc, nil
}
