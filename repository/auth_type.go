package repository

import "fmt"

// Type is the type-erased view of an AuthenticationType, used wherever the
// credential shape does not matter (errors, logging, persistence keys).
type Type interface {
	// Key is the stable identity used for storage and logging.
	Key() string
	// Kind is the credential shape accepted by the slot.
	Kind() Kind
	fmt.Stringer
}

// AuthenticationType is a typed authentication slot. The type parameter binds
// the slot to the credential shape it accepts.
type AuthenticationType[T Credentials] struct {
	key  string
	kind Kind
}

// Built-in authentication slots. Keys are persisted and must not change.
var (
	// Certificate is client certificate authentication.
	Certificate = NewAuthenticationType[CertificateCredentials]("repoauth.auth.certificate")

	// HTTP is HTTP authentication. This is often basic authentication but
	// servers may use digest or NTLM as well.
	HTTP = NewAuthenticationType[UserCredentials]("repoauth.auth.http")

	// OpenID is federated identity authentication.
	OpenID = NewAuthenticationType[OpenIDCredentials]("repoauth.auth.openid")

	// Proxy is proxy authentication.
	Proxy = NewAuthenticationType[UserCredentials]("repoauth.auth.proxy")

	// Repository is the repository login.
	Repository = NewAuthenticationType[UserCredentials]("repoauth.auth.repository")
)

// NewAuthenticationType defines an authentication slot for credentials of
// shape T. It is meant for package-level declarations; it panics on an empty key.
func NewAuthenticationType[T Credentials](key string) AuthenticationType[T] {
	if key == "" {
		panic("repository: authentication type key must not be empty")
	}
	var zero T
	return AuthenticationType[T]{key: key, kind: zero.Kind()}
}

// Key returns the stable identity of the slot.
func (t AuthenticationType[T]) Key() string { return t.key }

// Kind returns the credential shape accepted by the slot.
func (t AuthenticationType[T]) Kind() Kind { return t.kind }

// String returns the key.
func (t AuthenticationType[T]) String() string { return t.key }

// accept converts c to T or reports a shape mismatch.
func (t AuthenticationType[T]) accept(c Credentials) (T, error) {
	v, ok := c.(T)
	if !ok {
		var zero T
		return zero, &MisconfigurationError{Type: t, Got: c}
	}
	return v, nil
}

// Types returns the built-in authentication slots.
func Types() []Type {
	return []Type{Certificate, HTTP, OpenID, Proxy, Repository}
}
