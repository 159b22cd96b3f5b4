package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Encryptor seals and opens byte slices. The output of Encrypt carries its
// own nonce.
type Encryptor interface {
	Encrypt(plaintext, associatedData []byte) ([]byte, error)
	Decrypt(ciphertext, associatedData []byte) ([]byte, error)
}

// Algorithm represents supported encryption algorithms.
type Algorithm string

const (
	// AlgorithmAESGCM is AES-256-GCM (default, widely supported).
	AlgorithmAESGCM Algorithm = "aes-256-gcm"
	// AlgorithmChaCha20 is ChaCha20-Poly1305 (fast on CPUs without AES-NI).
	AlgorithmChaCha20 Algorithm = "chacha20-poly1305"
)

// KeySize is the length of keys accepted by New.
const KeySize = 32

// SaltSize is the length of salts returned by NewSalt.
const SaltSize = 16

// ErrCiphertextTooShort means the input cannot hold a nonce.
var ErrCiphertextTooShort = errors.New("encryption: ciphertext too short")

// Argon2id parameters for DeriveKey.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// NewSalt returns a random salt for DeriveKey.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("encryption: generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey stretches passphrase into a KeySize key with Argon2id.
func DeriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemory, argonThreads, KeySize)
}

// New creates an Encryptor for alg. An empty alg selects AES-256-GCM.
func New(key []byte, alg Algorithm) (Encryptor, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption: key must be %d bytes, got %d", KeySize, len(key))
	}
	var (
		aead cipher.AEAD
		err  error
	)
	switch alg {
	case "", AlgorithmAESGCM:
		block, berr := aes.NewCipher(key)
		if berr != nil {
			return nil, fmt.Errorf("encryption: create cipher: %w", berr)
		}
		aead, err = cipher.NewGCM(block)
	case AlgorithmChaCha20:
		aead, err = chacha20poly1305.New(key)
	default:
		return nil, fmt.Errorf("encryption: unsupported algorithm %q", alg)
	}
	if err != nil {
		return nil, fmt.Errorf("encryption: create %s: %w", alg, err)
	}
	return &aeadEncryptor{aead: aead}, nil
}

type aeadEncryptor struct {
	aead cipher.AEAD
}

func (e *aeadEncryptor) Encrypt(plaintext, associatedData []byte) ([]byte, error) {
	nonce := make([]byte, e.aead.NonceSize(), e.aead.NonceSize()+len(plaintext)+e.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("encryption: generate nonce: %w", err)
	}
	return e.aead.Seal(nonce, nonce, plaintext, associatedData), nil
}

func (e *aeadEncryptor) Decrypt(ciphertext, associatedData []byte) ([]byte, error) {
	n := e.aead.NonceSize()
	if len(ciphertext) < n {
		return nil, ErrCiphertextTooShort
	}
	plaintext, err := e.aead.Open(nil, ciphertext[:n], ciphertext[n:], associatedData)
	if err != nil {
		return nil, fmt.Errorf("encryption: decrypt: %w", err)
	}
	return plaintext, nil
}
