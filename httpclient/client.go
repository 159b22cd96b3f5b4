package httpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/repoauth/logger"
	"github.com/kbukum/repoauth/observability"
	"github.com/kbukum/repoauth/repository"
	"github.com/kbukum/repoauth/security"
	"github.com/kbukum/repoauth/version"
)

// Authenticator establishes a session before an operation runs when the
// client holds repository credentials it has not yet authenticated with.
type Authenticator interface {
	Authenticate(ctx context.Context, c *Client) error
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, c *Client) error

// Authenticate implements Authenticator.
func (f AuthenticatorFunc) Authenticate(ctx context.Context, c *Client) error {
	return f(ctx, c)
}

// Option configures a Client.
type Option func(*Client)

// WithTransport makes the client use t instead of an HTTPTransport.
func WithTransport(t Transport) Option {
	return WithTransportFactory(func() (Transport, error) { return t, nil })
}

// WithTransportFactory sets how the transport is created on first use.
func WithTransportFactory(fn func() (Transport, error)) Option {
	return func(c *Client) { c.newTransport = fn }
}

// WithExecutionContext shares ec with other clients.
func WithExecutionContext(ec *ExecutionContext) Option {
	return func(c *Client) { c.ec = ec }
}

// WithHTTPAuthenticationType sets the slot consulted for HTTP credentials
// and named by 401 failures. Defaults to repository.HTTP.
func WithHTTPAuthenticationType(typ repository.AuthenticationType[repository.UserCredentials]) Option {
	return func(c *Client) { c.httpAuthType = typ }
}

// WithAuthenticator sets the hook run by operations when NeedsAuthentication reports true.
func WithAuthenticator(a Authenticator) Option {
	return func(c *Client) { c.authenticator = a }
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithMetrics sets the exchange instruments. Without it nothing is recorded.
func WithMetrics(m *observability.ExchangeMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// Client executes requests against a location, attaching the credentials
// stored for it and reporting 401 and 407 responses as
// *repository.AuthenticationError. It never retries on its own.
type Client struct {
	location *repository.Location
	config   Config
	baseTLS  *tls.Config
	ec       *ExecutionContext

	newTransport  func() (Transport, error)
	transportOnce sync.Once
	transport     Transport
	transportErr  error
	created       atomic.Bool

	authenticated atomic.Bool

	mu            sync.RWMutex
	httpAuthType  repository.AuthenticationType[repository.UserCredentials]
	preemptive    bool
	authenticator Authenticator

	log     *logger.Logger
	metrics *observability.ExchangeMetrics
}

// New creates a client for loc.
func New(loc *repository.Location, cfg Config, opts ...Option) (*Client, error) {
	if loc == nil {
		return nil, fmt.Errorf("httpclient: location is required")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var baseTLS *tls.Config
	if cfg.TLS != nil {
		built, err := cfg.TLS.Build()
		if err != nil {
			return nil, err
		}
		baseTLS = built
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = version.UserAgent()
	}

	c := &Client{
		location:     loc,
		config:       cfg,
		baseTLS:      baseTLS,
		httpAuthType: repository.HTTP,
		preemptive:   cfg.Preemptive,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.WithComponent("httpclient")
	}
	c.log = c.log.WithFields(logger.Fields(logger.FieldLocation, loc.ID()))
	if c.ec == nil {
		c.ec = NewExecutionContext()
	}
	if c.newTransport == nil {
		c.newTransport = func() (Transport, error) {
			return NewHTTPTransport(c.baseTLS, c.config.Timeout, c.log), nil
		}
	}
	return c, nil
}

// Location returns the location the client talks to.
func (c *Client) Location() *repository.Location { return c.location }

// Context returns the shared execution context.
func (c *Client) Context() *ExecutionContext { return c.ec }

// Config returns the effective configuration.
func (c *Client) Config() Config { return c.config }

// HTTPAuthenticationType returns the slot consulted for HTTP credentials.
func (c *Client) HTTPAuthenticationType() repository.AuthenticationType[repository.UserCredentials] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.httpAuthType
}

// SetHTTPAuthenticationType changes the slot consulted for HTTP credentials.
func (c *Client) SetHTTPAuthenticationType(typ repository.AuthenticationType[repository.UserCredentials]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.httpAuthType = typ
}

// PreemptiveAuthenticationEnabled reports whether stored HTTP credentials
// are sent with the first request.
func (c *Client) PreemptiveAuthenticationEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.preemptive
}

// SetPreemptiveAuthenticationEnabled toggles preemptive authentication.
func (c *Client) SetPreemptiveAuthenticationEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.preemptive = enabled
}

// IsAuthenticated reports whether the last validated exchange that offered
// stored HTTP credentials succeeded.
func (c *Client) IsAuthenticated() bool {
	return c.authenticated.Load()
}

// NeedsAuthentication reports whether the client holds repository
// credentials it has not authenticated with yet. It is false when no
// repository credentials are stored.
func (c *Client) NeedsAuthentication(ctx context.Context) (bool, error) {
	if c.authenticated.Load() {
		return false, nil
	}
	_, ok, err := repository.Lookup(ctx, c.location, repository.Repository)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Transport returns the transport, creating it on first use. Concurrent
// first use creates exactly one.
func (c *Client) Transport() (Transport, error) {
	c.transportOnce.Do(func() {
		c.transport, c.transportErr = c.newTransport()
		if c.transportErr != nil {
			c.transportErr = fmt.Errorf("httpclient: create transport: %w", c.transportErr)
			return
		}
		c.created.Store(true)
	})
	return c.transport, c.transportErr
}

// Close releases idle connections. The client stays usable.
func (c *Client) Close(_ context.Context) error {
	if c.created.Load() {
		c.transport.CloseIdleConnections()
	}
	return nil
}

// Execute prepares req with the credentials stored for the location, runs it
// through the transport and validates the response.
//
// A 401 yields an *repository.AuthenticationError naming the HTTP
// authentication type, a 407 one naming repository.Proxy; the response body
// is closed in both cases. Network failures yield an *Error. Any other
// response is returned to the caller, who must close its body.
func (c *Client) Execute(ctx context.Context, req *http.Request) (*http.Response, error) {
	requestID := uuid.NewString()
	typ := c.HTTPAuthenticationType()
	host := req.URL.Host

	ctx, span := observability.StartSpan(ctx, observability.SpanExchange,
		attribute.String(observability.AttrRequestID, requestID),
		attribute.String(observability.AttrLocation, c.location.ID()),
		attribute.String("http.request.method", req.Method),
		attribute.String("server.address", host),
	)
	defer span.End()

	log := c.log.WithFields(logger.Fields(
		logger.FieldRequestID, requestID,
		logger.FieldMethod, req.Method,
		logger.FieldHost, host,
	))
	start := time.Now()

	transport, err := c.Transport()
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}

	ex, offered, err := c.prepare(ctx, req, typ)
	if err != nil {
		observability.SetSpanError(ctx, err)
		log.Warn("exchange preparation failed", logger.Fields(logger.FieldError, err))
		return nil, err
	}
	ex.RequestID = requestID

	resp, err := transport.Execute(ctx, ex, c.ec)
	elapsed := time.Since(start)
	if err != nil {
		terr := classifyTransportError(ctx, err)
		c.metrics.RecordExchange(ctx, req.Method, host, 0, elapsed)
		observability.SetSpanError(ctx, terr)
		log.Debug("transport failed", logger.Fields(
			logger.FieldError, terr,
			logger.FieldDuration, elapsed.Milliseconds(),
		))
		return nil, terr
	}

	c.metrics.RecordExchange(ctx, req.Method, host, resp.StatusCode, elapsed)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if err := c.validate(resp, typ, offered); err != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		authType, _ := repository.AuthenticationTypeOf(err)
		c.metrics.RecordAuthFailure(ctx, authType.Key(), host, resp.StatusCode)
		span.SetAttributes(attribute.String(observability.AttrAuthType, authType.Key()))
		observability.SetSpanError(ctx, err)
		log.Warn("authentication failed", logger.Fields(
			logger.FieldStatus, resp.StatusCode,
			logger.FieldAuthType, authType.Key(),
			logger.FieldDuration, elapsed.Milliseconds(),
		))
		return nil, err
	}

	log.Debug("exchange completed", logger.Fields(
		logger.FieldStatus, resp.StatusCode,
		logger.FieldDuration, elapsed.Milliseconds(),
	))
	return resp, nil
}

// prepare builds the exchange for req. offered reports whether stored
// credentials of typ are offered to the server.
func (c *Client) prepare(ctx context.Context, req *http.Request, typ repository.AuthenticationType[repository.UserCredentials]) (*Exchange, bool, error) {
	if req.URL == nil || req.URL.Host == "" {
		return nil, false, NewInvalidRequestError("request url must be absolute", nil)
	}
	out := req.Clone(ctx)
	for k, v := range c.config.Headers {
		if out.Header.Get(k) == "" {
			out.Header.Set(k, v)
		}
	}
	if out.Header.Get("User-Agent") == "" {
		out.Header.Set("User-Agent", c.config.UserAgent)
	}
	ex := &Exchange{Request: out}

	creds, offered, err := repository.Lookup(ctx, c.location, typ)
	if err != nil {
		return nil, false, err
	}
	if offered {
		ex.Credentials = &creds
		if c.PreemptiveAuthenticationEnabled() {
			c.ec.CacheAuthScheme(HostKey(out.URL), SchemeBasic)
		}
	}

	cert, ok, err := repository.Lookup(ctx, c.location, repository.Certificate)
	if err != nil {
		return nil, false, err
	}
	if ok {
		trust, err := security.NewTrustOverride(c.baseTLS, cert.KeyStorePath, cert.Password, cert.KeyStoreFormat)
		if err != nil {
			return nil, false, NewInvalidRequestError("load client certificate", err)
		}
		ex.Trust = trust
		c.ec.SetUserToken(trust.Identity)
	} else {
		c.ec.ClearUserToken()
	}

	if proxy := c.location.ProxyURL(); proxy != nil {
		ex.Proxy = proxy
		pc, ok, err := repository.Lookup(ctx, c.location, repository.Proxy)
		if err != nil {
			return nil, false, err
		}
		if ok {
			ex.ProxyCredentials = &pc
		}
	}

	if !offered && c.config.OpenIDBearer && out.Header.Get("Authorization") == "" {
		tok, ok, err := repository.Lookup(ctx, c.location, repository.OpenID)
		if err != nil {
			return nil, false, err
		}
		if ok && tok.Token != "" && !tok.Expired(time.Now()) {
			tok.OAuth2Token().SetAuthHeader(out)
		}
	}
	return ex, offered, nil
}

// validate maps the response status to the exchange outcome.
func (c *Client) validate(resp *http.Response, typ repository.AuthenticationType[repository.UserCredentials], offered bool) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		c.authenticated.Store(false)
		return repository.NewAuthenticationError(c.location, typ, resp.StatusCode, statusText(resp))
	case http.StatusProxyAuthRequired:
		return repository.NewAuthenticationError(c.location, repository.Proxy, resp.StatusCode, statusText(resp))
	default:
		if offered {
			c.authenticated.Store(true)
		}
		return nil
	}
}

// statusText prefers the reason phrase the server sent.
func statusText(resp *http.Response) string {
	if text, ok := strings.CutPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); ok && text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
