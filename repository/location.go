package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/kbukum/repoauth/logger"
)

// CredentialsRequester asks a human (or another external source) for
// credentials. It returns nil credentials when the request was declined and
// must return promptly with ctx.Err() when ctx is cancelled.
type CredentialsRequester interface {
	RequestCredentials(ctx context.Context, req AuthenticationRequest) (Credentials, error)
}

// RequesterFunc adapts a function to CredentialsRequester.
type RequesterFunc func(ctx context.Context, req AuthenticationRequest) (Credentials, error)

// RequestCredentials implements CredentialsRequester.
func (f RequesterFunc) RequestCredentials(ctx context.Context, req AuthenticationRequest) (Credentials, error) {
	return f(ctx, req)
}

// Location is a remote endpoint together with its credential store and the
// capability to request fresh credentials.
type Location struct {
	id        string
	url       string
	proxyURL  *url.URL
	store     CredentialStore
	session   *MemoryStore
	requester CredentialsRequester
	log       *logger.Logger
}

// LocationOption configures a Location.
type LocationOption func(*Location)

// WithID sets the stable identity used to scope stored credentials.
// Defaults to the location URL.
func WithID(id string) LocationOption {
	return func(l *Location) { l.id = id }
}

// WithStore sets the credential store. Defaults to a MemoryStore.
func WithStore(s CredentialStore) LocationOption {
	return func(l *Location) { l.store = s }
}

// WithRequester sets the interactive credentials collaborator.
func WithRequester(r CredentialsRequester) LocationOption {
	return func(l *Location) { l.requester = r }
}

// WithProxy routes requests through the given proxy.
func WithProxy(u *url.URL) LocationOption {
	return func(l *Location) { l.proxyURL = u }
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) LocationOption {
	return func(l *Location) { l.log = log }
}

// NewLocation creates a location for an absolute http or https URL.
func NewLocation(rawURL string, opts ...LocationOption) (*Location, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("repository: invalid location url %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("repository: location url must be http or https, got %q", rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("repository: location url %q has no host", rawURL)
	}

	l := &Location{url: strings.TrimRight(rawURL, "/"), session: NewMemoryStore()}
	for _, opt := range opts {
		opt(l)
	}
	if l.id == "" {
		l.id = l.url
	}
	if l.store == nil {
		l.store = NewMemoryStore()
	}
	if l.log == nil {
		l.log = logger.WithComponent("repository")
	}
	l.log = l.log.WithFields(logger.Fields(logger.FieldLocation, l.id))
	return l, nil
}

// ID returns the stable identity of the location.
func (l *Location) ID() string { return l.id }

// URL returns the base URL without a trailing slash.
func (l *Location) URL() string { return l.url }

// ProxyURL returns the configured proxy, or nil for a direct connection.
func (l *Location) ProxyURL() *url.URL { return l.proxyURL }

// HasRequester reports whether credentials can be requested interactively.
func (l *Location) HasRequester() bool { return l.requester != nil }

// Clear removes the credential stored for typ.
func (l *Location) Clear(ctx context.Context, typ Type) error {
	key := l.storeKey(typ)
	if err := l.store.Delete(ctx, key); err != nil {
		return err
	}
	_ = l.session.Delete(ctx, key)
	l.log.Debug("credentials cleared", logger.Fields(logger.FieldAuthType, typ.Key()))
	return nil
}

func (l *Location) storeKey(typ Type) string {
	return l.id + "|" + typ.Key()
}

// Lookup returns the stored credential for typ. It never prompts.
func Lookup[T Credentials](ctx context.Context, l *Location, typ AuthenticationType[T]) (T, bool, error) {
	var zero T
	key := l.storeKey(typ)
	c, ok, _ := l.session.Load(ctx, key)
	if !ok {
		var err error
		c, ok, err = l.store.Load(ctx, key)
		if err != nil || !ok {
			return zero, false, err
		}
	}
	v, err := typ.accept(c)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// Get returns the stored credential for typ. When none is stored and
// promptIfMissing is set, the requester is asked and a supplied credential is
// stored before it is returned. ok is false when nothing is stored and the
// request was declined or not attempted.
func Get[T Credentials](ctx context.Context, l *Location, typ AuthenticationType[T], promptIfMissing bool) (T, bool, error) {
	v, ok, err := Lookup(ctx, l, typ)
	if err != nil || ok || !promptIfMissing {
		return v, ok, err
	}
	return Request(ctx, l, typ, "")
}

// Request asks the requester for fresh credentials for typ and stores them.
// A declined request returns ok == false and no error. A cancelled ctx
// returns the context error and leaves the store untouched.
func Request[T Credentials](ctx context.Context, l *Location, typ AuthenticationType[T], reason string) (T, bool, error) {
	var zero T
	if l.requester == nil {
		return zero, false, ErrNoRequester
	}
	if err := ctx.Err(); err != nil {
		return zero, false, fmt.Errorf("repository: request %s credentials: %w", typ, err)
	}

	c, err := l.requester.RequestCredentials(ctx, AuthenticationRequest{Location: l, Type: typ, Reason: reason})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return zero, false, fmt.Errorf("repository: request %s credentials: %w", typ, ctxErr)
	}
	if err != nil && !errors.Is(err, ErrCredentialsDeclined) {
		return zero, false, fmt.Errorf("repository: request %s credentials: %w", typ, err)
	}
	if c == nil || err != nil {
		l.log.Info("credentials request declined", logger.Fields(logger.FieldAuthType, typ.Key()))
		return zero, false, nil
	}

	v, err := typ.accept(c)
	if err != nil {
		return zero, false, err
	}
	if err := Store(ctx, l, typ, v); err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// Store saves c as the credential for typ, replacing any previous one.
//
// A UserCredentials password is persisted only when SavePassword is set.
// Otherwise the store receives the credential with the password blanked and
// the full credential lives in the location's memory until Clear or the end
// of the process.
func Store[T Credentials](ctx context.Context, l *Location, typ AuthenticationType[T], c T) error {
	key := l.storeKey(typ)
	var persisted Credentials = c
	u, isUser := any(c).(UserCredentials)
	sessionOnly := isUser && !u.SavePassword && u.Password != ""
	if sessionOnly {
		u.Password = ""
		persisted = u
	}

	if err := l.store.Save(ctx, key, persisted); err != nil {
		return err
	}
	if sessionOnly {
		_ = l.session.Save(ctx, key, c)
	} else {
		_ = l.session.Delete(ctx, key)
	}
	l.log.Debug("credentials stored", logger.Fields(
		logger.FieldAuthType, typ.Key(),
		"password_saved", !sessionOnly,
	))
	return nil
}
