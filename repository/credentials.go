package repository

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// Kind identifies the shape of a credential.
type Kind string

const (
	// KindUser is a username/password pair.
	KindUser Kind = "user"
	// KindCertificate is a client certificate keystore.
	KindCertificate Kind = "certificate"
	// KindOpenID is a federated identity token.
	KindOpenID Kind = "openid"
)

const redacted = "********"

// Credentials is secret material for one authentication mechanism.
// The set of implementations is closed.
type Credentials interface {
	Kind() Kind
	credentials()
}

// UserCredentials is a username/password pair.
type UserCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	// Domain is the optional NTLM domain.
	Domain string `json:"domain,omitempty"`
	// SavePassword records whether the user agreed to persist the password.
	SavePassword bool `json:"save_password,omitempty"`
}

func (UserCredentials) credentials() {}

// Kind returns KindUser.
func (UserCredentials) Kind() Kind { return KindUser }

// String formats the credentials with the password redacted.
func (c UserCredentials) String() string {
	if c.Domain != "" {
		return fmt.Sprintf("%s\\%s:%s", c.Domain, c.Username, redacted)
	}
	return fmt.Sprintf("%s:%s", c.Username, redacted)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (c UserCredentials) MarshalZerologObject(e *zerolog.Event) {
	e.Str("username", c.Username).Str("password", redacted)
	if c.Domain != "" {
		e.Str("domain", c.Domain)
	}
}

// CertificateCredentials reference a client keystore on disk.
type CertificateCredentials struct {
	KeyStorePath string `json:"key_store_path"`
	Password     string `json:"password"`
	// KeyStoreFormat is "PKCS12" or "PEM". Empty means PKCS12.
	KeyStoreFormat string `json:"key_store_format,omitempty"`
}

func (CertificateCredentials) credentials() {}

// Kind returns KindCertificate.
func (CertificateCredentials) Kind() Kind { return KindCertificate }

// String formats the credentials with the password redacted.
func (c CertificateCredentials) String() string {
	return fmt.Sprintf("%s (%s)", c.KeyStorePath, c.format())
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (c CertificateCredentials) MarshalZerologObject(e *zerolog.Event) {
	e.Str("key_store", c.KeyStorePath).Str("format", c.format())
}

func (c CertificateCredentials) format() string {
	if c.KeyStoreFormat == "" {
		return "PKCS12"
	}
	return c.KeyStoreFormat
}

// OpenIDCredentials hold the outcome of a federated login.
type OpenIDCredentials struct {
	// ResponseURL is the URL the identity provider redirected to.
	ResponseURL string `json:"response_url"`
	// Token is the issued token, usually a JWT.
	Token string `json:"token"`
}

func (OpenIDCredentials) credentials() {}

// Kind returns KindOpenID.
func (OpenIDCredentials) Kind() Kind { return KindOpenID }

// String formats the credentials with the token redacted.
func (c OpenIDCredentials) String() string {
	return fmt.Sprintf("%s token=%s", c.ResponseURL, redacted)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (c OpenIDCredentials) MarshalZerologObject(e *zerolog.Event) {
	e.Str("response_url", c.ResponseURL).Str("token", redacted)
}

// ExpiresAt returns the exp claim of the token. The signature is not
// verified; the issuing server does that. ok is false when the token is not
// a JWT or carries no expiry.
func (c OpenIDCredentials) ExpiresAt() (exp time.Time, ok bool) {
	if c.Token == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.Token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether the token carries an expiry that is before now.
func (c OpenIDCredentials) Expired(now time.Time) bool {
	exp, ok := c.ExpiresAt()
	return ok && !now.Before(exp)
}

// OAuth2Token converts the credentials to a bearer token.
func (c OpenIDCredentials) OAuth2Token() *oauth2.Token {
	tok := &oauth2.Token{AccessToken: c.Token, TokenType: "Bearer"}
	if exp, ok := c.ExpiresAt(); ok {
		tok.Expiry = exp
	}
	return tok
}
