// Package security builds TLS configurations for outbound connections.
//
// TLSConfig describes the base trust settings of a client (CA bundle,
// server name, minimum version). TrustOverride is the per-request policy
// installed when a location has client certificate credentials: it presents
// the certificate from a PKCS#12 or PEM keystore and accepts any server
// certificate.
package security
