package httpclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/repoauth/config"
	"github.com/kbukum/repoauth/logger"
	"github.com/kbukum/repoauth/observability"
	"github.com/kbukum/repoauth/repository"
	"github.com/kbukum/repoauth/resilience"
)

const defaultReauthAttempts = 3

// RetryPolicy bounds how often an operation is retried after the user
// supplied new credentials for a rejected request.
type RetryPolicy struct {
	// MaxAttempts counts the first attempt. Defaults to 3.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts" validate:"gte=0"`
	// InitialBackoff delays the first retry. Zero retries as soon as the
	// credentials are supplied.
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff" validate:"gte=0"`
	// MaxBackoff caps the delay between retries.
	MaxBackoff time.Duration `yaml:"max_backoff" mapstructure:"max_backoff" validate:"gte=0"`
}

// DefaultRetryPolicy returns three attempts without backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: defaultReauthAttempts}
}

// ApplyDefaults fills in zero-value fields.
func (p *RetryPolicy) ApplyDefaults() {
	if p.MaxAttempts == 0 {
		p.MaxAttempts = defaultReauthAttempts
	}
}

// Validate checks the policy.
func (p *RetryPolicy) Validate() error {
	if err := config.Validate(p); err != nil {
		return fmt.Errorf("httpclient: reauthentication: %w", err)
	}
	return nil
}

// WithReauthentication runs fn and, each time it fails with a
// *repository.AuthenticationError, requests new credentials for the named
// slot and runs it again, up to policy.MaxAttempts attempts in total.
//
// A declined request ends the loop with *repository.CredentialsDeclinedError.
// Cancellation ends it with a canceled *Error. Transport and
// misconfiguration errors are returned at once. When the attempts run out
// the last authentication error is returned.
func WithReauthentication[T any](ctx context.Context, c *Client, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	policy.ApplyDefaults()
	cfg := resilience.RetryConfig{
		MaxAttempts:    policy.MaxAttempts,
		InitialBackoff: policy.InitialBackoff,
		MaxBackoff:     policy.MaxBackoff,
		BackoffFactor:  2.0,
		RetryIf:        c.renegotiate,
	}
	return resilience.Retry(ctx, cfg, func(ctx context.Context, _ int) (T, error) {
		return fn(ctx)
	})
}

// DoWithReauthentication is Do wrapped in WithReauthentication using the
// configured policy. A reader body is read once so every attempt sends it.
func (c *Client) DoWithReauthentication(ctx context.Context, req Request) (*Response, error) {
	req, err := bufferBody(req)
	if err != nil {
		return nil, NewInvalidRequestError("encode body", err)
	}
	return WithReauthentication(ctx, c, c.config.Reauthentication, func(ctx context.Context) (*Response, error) {
		return c.Do(ctx, req)
	})
}

// renegotiate decides whether a failed attempt is retried. It asks for new
// credentials only for authentication errors.
func (c *Client) renegotiate(ctx context.Context, attempt int, err error) (bool, error) {
	var authErr *repository.AuthenticationError
	if !errors.As(err, &authErr) {
		return false, nil
	}
	typ := authErr.Request.Type
	if !c.location.HasRequester() {
		return false, nil
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanReauthenticate,
		attribute.String(observability.AttrAuthType, typ.Key()),
		attribute.Int(observability.AttrAttempt, attempt),
	)
	defer span.End()

	ok, reqErr := c.requestCredentials(ctx, typ, authErr.StatusText)
	switch {
	case reqErr != nil && ctx.Err() != nil:
		c.metrics.RecordPrompt(ctx, typ.Key(), "canceled")
		return false, NewCanceledError(reqErr)
	case reqErr != nil:
		c.metrics.RecordPrompt(ctx, typ.Key(), "error")
		observability.SetSpanError(ctx, reqErr)
		return false, reqErr
	case !ok:
		c.metrics.RecordPrompt(ctx, typ.Key(), "declined")
		return false, &repository.CredentialsDeclinedError{Request: authErr.Request}
	}

	c.metrics.RecordPrompt(ctx, typ.Key(), "provided")
	c.log.Info("retrying with new credentials", logger.Fields(
		logger.FieldAuthType, typ.Key(),
		"attempt", attempt+1,
	))
	return true, nil
}

// requestCredentials asks the location's requester for credentials of typ,
// dispatching on the credential shape the slot accepts.
func (c *Client) requestCredentials(ctx context.Context, typ repository.Type, reason string) (bool, error) {
	var (
		ok  bool
		err error
	)
	switch t := typ.(type) {
	case repository.AuthenticationType[repository.UserCredentials]:
		_, ok, err = repository.Request(ctx, c.location, t, reason)
	case repository.AuthenticationType[repository.CertificateCredentials]:
		_, ok, err = repository.Request(ctx, c.location, t, reason)
	case repository.AuthenticationType[repository.OpenIDCredentials]:
		_, ok, err = repository.Request(ctx, c.location, t, reason)
	default:
		err = fmt.Errorf("httpclient: cannot request credentials for %s", typ)
	}
	return ok, err
}
