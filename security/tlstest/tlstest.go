// Package tlstest generates throwaway certificates for TLS tests.
//
// Generate builds a CA, a server certificate for localhost and a client
// certificate. The client certificate is also written as a single PEM
// keystore (chain plus key) so it can be fed to security.LoadKeyStore.
// Files live in t.TempDir().
package tlstest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Bundle holds the generated material.
type Bundle struct {
	// CAFile is the PEM file of the CA certificate.
	CAFile string
	CACert *x509.Certificate
	CAKey  *ecdsa.PrivateKey
	// CertPool trusts only the CA.
	CertPool *x509.CertPool

	// Server is valid for localhost, 127.0.0.1 and [::1].
	Server tls.Certificate

	// Client carries the ClientAuth usage and CN "repoauth-test-client".
	Client tls.Certificate
	// ClientKeyStore is a PEM file holding the client certificate and key.
	ClientKeyStore string
}

// Generate creates a CA plus server and client certificates signed by it.
func Generate(t testing.TB) *Bundle {
	t.Helper()
	dir := t.TempDir()

	caKey := newKey(t)
	caTemplate := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{Organization: []string{"repoauth test CA"}},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	caDER, err := x509.CreateCertificate(rand.Reader, caTemplate, caTemplate, &caKey.PublicKey, caKey)
	if err != nil {
		t.Fatalf("tlstest: create CA cert: %v", err)
	}
	caCert, err := x509.ParseCertificate(caDER)
	if err != nil {
		t.Fatalf("tlstest: parse CA cert: %v", err)
	}
	caFile := filepath.Join(dir, "ca.pem")
	writePEM(t, caFile, pemBlock("CERTIFICATE", caDER))

	pool := x509.NewCertPool()
	pool.AddCert(caCert)

	serverKey := newKey(t)
	serverDER := sign(t, caCert, caKey, &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: "localhost"},
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}, serverKey)

	clientKey := newKey(t)
	clientDER := sign(t, caCert, caKey, &x509.Certificate{
		SerialNumber: big.NewInt(3),
		Subject:      pkix.Name{CommonName: "repoauth-test-client"},
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}, clientKey)

	keyDER, err := x509.MarshalECPrivateKey(clientKey)
	if err != nil {
		t.Fatalf("tlstest: marshal client key: %v", err)
	}
	keyStore := filepath.Join(dir, "client.pem")
	writePEM(t, keyStore, pemBlock("CERTIFICATE", clientDER), pemBlock("EC PRIVATE KEY", keyDER))

	return &Bundle{
		CAFile:         caFile,
		CACert:         caCert,
		CAKey:          caKey,
		CertPool:       pool,
		Server:         pair(t, serverDER, serverKey),
		Client:         pair(t, clientDER, clientKey),
		ClientKeyStore: keyStore,
	}
}

// ServerTLSConfig returns a server configuration that requests, but does not
// require, client certificates signed by the bundle CA.
func (b *Bundle) ServerTLSConfig() *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{b.Server},
		ClientCAs:    b.CertPool,
		ClientAuth:   tls.VerifyClientCertIfGiven,
		MinVersion:   tls.VersionTLS12,
	}
}

// WriteInvalidPEM writes a file that looks like PEM but does not decode.
func WriteInvalidPEM(t testing.TB, filename string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), filename)
	content := []byte("-----BEGIN CERTIFICATE-----\nnot-valid-base64-data\n-----END CERTIFICATE-----\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("tlstest: write invalid PEM: %v", err)
	}
	return path
}

func newKey(t testing.TB) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("tlstest: generate key: %v", err)
	}
	return key
}

func sign(t testing.TB, ca *x509.Certificate, caKey *ecdsa.PrivateKey, tmpl *x509.Certificate, key *ecdsa.PrivateKey) []byte {
	t.Helper()
	tmpl.NotBefore = time.Now().Add(-time.Hour)
	tmpl.NotAfter = time.Now().Add(24 * time.Hour)
	tmpl.KeyUsage = x509.KeyUsageDigitalSignature
	der, err := x509.CreateCertificate(rand.Reader, tmpl, ca, &key.PublicKey, caKey)
	if err != nil {
		t.Fatalf("tlstest: sign %s: %v", tmpl.Subject.CommonName, err)
	}
	return der
}

func pair(t testing.TB, der []byte, key *ecdsa.PrivateKey) tls.Certificate {
	t.Helper()
	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("tlstest: parse %x: %v", der[:4], err)
	}
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key, Leaf: leaf}
}

func pemBlock(typ string, der []byte) *pem.Block {
	return &pem.Block{Type: typ, Bytes: der}
}

func writePEM(t testing.TB, path string, blocks ...*pem.Block) {
	t.Helper()
	var out []byte
	for _, b := range blocks {
		out = append(out, pem.EncodeToMemory(b)...)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		t.Fatalf("tlstest: write %s: %v", path, err)
	}
}
