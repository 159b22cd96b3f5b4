package security

import (
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/pkcs12"
)

// Keystore formats.
const (
	FormatPKCS12 = "PKCS12"
	FormatPEM    = "PEM"
)

// ErrUnsupportedFormat is returned for keystore formats other than PKCS12 and PEM.
var ErrUnsupportedFormat = errors.New("security/keystore: unsupported keystore format")

// LoadKeyStore reads a client certificate and its private key.
//
// PKCS12 keystores are decrypted with password. PEM keystores hold the
// certificate chain and an unencrypted private key in one file; password is
// ignored. An empty format means PKCS12.
func LoadKeyStore(path, password, format string) (tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("security/keystore: read %s: %w", path, err)
	}

	switch normalizeFormat(format) {
	case FormatPKCS12:
		key, cert, err := pkcs12.Decode(data, password)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("security/keystore: decode %s: %w", path, err)
		}
		return tls.Certificate{
			Certificate: [][]byte{cert.Raw},
			PrivateKey:  key,
			Leaf:        cert,
		}, nil
	case FormatPEM:
		cert, err := tls.X509KeyPair(data, data)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("security/keystore: parse %s: %w", path, err)
		}
		return cert, nil
	default:
		return tls.Certificate{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func normalizeFormat(format string) string {
	switch strings.ToUpper(format) {
	case "", "PKCS12", "P12", "PFX":
		return FormatPKCS12
	case "PEM":
		return FormatPEM
	default:
		return format
	}
}

// TrustOverride is a per-request TLS policy that presents a client
// certificate and accepts any server certificate.
type TrustOverride struct {
	// Identity distinguishes connections made with this certificate from
	// connections made with other certificates or none.
	Identity string
	// Config is the TLS configuration to dial with.
	Config *tls.Config
}

// NewTrustOverride loads the keystore and derives a TLS configuration from
// base (which may be nil) with the client certificate installed and server
// verification disabled.
func NewTrustOverride(base *tls.Config, path, password, format string) (*TrustOverride, error) {
	cert, err := LoadKeyStore(path, password, format)
	if err != nil {
		return nil, err
	}

	var cfg *tls.Config
	if base != nil {
		cfg = base.Clone()
	} else {
		cfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	cfg.Certificates = []tls.Certificate{cert}
	cfg.InsecureSkipVerify = true //nolint:gosec // opt-in policy tied to certificate credentials

	sum := sha256.Sum256(cert.Certificate[0])
	return &TrustOverride{
		Identity: normalizeFormat(format) + ":" + hex.EncodeToString(sum[:8]),
		Config:   cfg,
	}, nil
}
