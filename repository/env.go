package repository

import (
	"context"
	"os"
	"strings"
)

// LoadEnvCredentials seeds the location's store from environment variables
// named <PREFIX>_<SLOT>_<FIELD>, for example:
//
//	REPOAUTH_HTTP_USERNAME, REPOAUTH_HTTP_PASSWORD
//	REPOAUTH_PROXY_USERNAME, REPOAUTH_PROXY_PASSWORD
//	REPOAUTH_REPOSITORY_USERNAME, REPOAUTH_REPOSITORY_PASSWORD
//	REPOAUTH_CERTIFICATE_KEYSTORE, REPOAUTH_CERTIFICATE_PASSWORD, REPOAUTH_CERTIFICATE_FORMAT
//	REPOAUTH_OPENID_TOKEN, REPOAUTH_OPENID_RESPONSE_URL
//
// Slots without a username (or keystore, or token) are skipped. It returns
// the number of credentials stored.
func LoadEnvCredentials(ctx context.Context, l *Location, prefix string) (int, error) {
	prefix = strings.TrimSuffix(strings.ToUpper(prefix), "_")
	env := func(parts ...string) string {
		return os.Getenv(prefix + "_" + strings.Join(parts, "_"))
	}

	n := 0
	users := []struct {
		name string
		typ  AuthenticationType[UserCredentials]
	}{
		{"HTTP", HTTP},
		{"PROXY", Proxy},
		{"REPOSITORY", Repository},
	}
	for _, u := range users {
		name := env(u.name, "USERNAME")
		if name == "" {
			continue
		}
		c := UserCredentials{Username: name, Password: env(u.name, "PASSWORD"), Domain: env(u.name, "DOMAIN")}
		if err := Store(ctx, l, u.typ, c); err != nil {
			return n, err
		}
		n++
	}

	if ks := env("CERTIFICATE", "KEYSTORE"); ks != "" {
		c := CertificateCredentials{
			KeyStorePath:   ks,
			Password:       env("CERTIFICATE", "PASSWORD"),
			KeyStoreFormat: env("CERTIFICATE", "FORMAT"),
		}
		if err := Store(ctx, l, Certificate, c); err != nil {
			return n, err
		}
		n++
	}

	if tok := env("OPENID", "TOKEN"); tok != "" {
		c := OpenIDCredentials{Token: tok, ResponseURL: env("OPENID", "RESPONSE_URL")}
		if err := Store(ctx, l, OpenID, c); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
