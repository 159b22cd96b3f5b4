package httpclient

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/repoauth/logger"
	"github.com/kbukum/repoauth/repository"
	"github.com/kbukum/repoauth/security"
)

// Exchange is a request prepared for the transport together with the
// authentication material it may offer.
type Exchange struct {
	// Request is the outbound request. Transports must not modify it.
	Request *http.Request
	// RequestID correlates log lines of one exchange.
	RequestID string
	// Credentials are offered to the target host, nil for none.
	Credentials *repository.UserCredentials
	// Proxy routes the request, nil for a direct connection.
	Proxy *url.URL
	// ProxyCredentials authenticate against Proxy, nil for none.
	ProxyCredentials *repository.UserCredentials
	// Trust overrides the TLS policy for this request, nil for the base policy.
	Trust *security.TrustOverride
}

// Transport performs prepared exchanges. Implementations may update the
// auth cache and cookies of the execution context.
type Transport interface {
	Execute(ctx context.Context, ex *Exchange, ec *ExecutionContext) (*http.Response, error)
	CloseIdleConnections()
}

type poolKey struct {
	identity string
	proxy    string
}

// pooled is a transport together with the proxy user info it was built with.
type pooled struct {
	rt        *http.Transport
	proxyAuth string
}

// HTTPTransport is the default Transport on top of net/http. It keeps one
// *http.Transport per TLS identity and proxy so connections opened with a
// client certificate are never reused without it.
//
// Credentials are offered the way a challenge-aware client does: sent
// preemptively when the host is in the auth cache, otherwise sent once in
// response to a Basic challenge, after which the host is cached.
type HTTPTransport struct {
	base    *tls.Config
	timeout time.Duration
	log     *logger.Logger

	mu   sync.Mutex
	pool map[poolKey]pooled
}

var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a transport. base may be nil.
func NewHTTPTransport(base *tls.Config, timeout time.Duration, log *logger.Logger) *HTTPTransport {
	if log == nil {
		log = logger.Nop()
	}
	return &HTTPTransport{
		base:    base,
		timeout: timeout,
		log:     log,
		pool:    make(map[poolKey]pooled),
	}
}

// Execute sends the exchange, answering one Basic challenge if it can.
func (t *HTTPTransport) Execute(ctx context.Context, ex *Exchange, ec *ExecutionContext) (*http.Response, error) {
	client := &http.Client{
		Transport: t.transportFor(ex),
		Jar:       ec.Jar(),
		Timeout:   t.timeout,
	}

	req := ex.Request.Clone(ctx)
	host := HostKey(req.URL)
	creds := ex.Credentials
	sentCredentials := false
	if creds != nil && req.Header.Get("Authorization") == "" && ec.AuthScheme(host) == SchemeBasic {
		req.SetBasicAuth(creds.Username, creds.Password)
		sentCredentials = true
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if creds == nil || sentCredentials || resp.StatusCode != http.StatusUnauthorized ||
		req.Header.Get("Authorization") != "" || !hasBasicChallenge(resp.Header) {
		return resp, nil
	}

	retry, ok := replay(ctx, req)
	if !ok {
		t.log.Debug("challenge not answered: request body is not replayable", logger.Fields(
			logger.FieldRequestID, ex.RequestID,
			logger.FieldHost, host,
		))
		return resp, nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	retry.SetBasicAuth(creds.Username, creds.Password)
	resp, err = client.Do(retry)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized && ec.CacheAuthScheme(host, SchemeBasic) {
		t.log.Debug("auth scheme cached", logger.Fields(
			logger.FieldRequestID, ex.RequestID,
			logger.FieldHost, host,
		))
	}
	return resp, nil
}

// CloseIdleConnections closes idle connections of every pooled transport.
func (t *HTTPTransport) CloseIdleConnections() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range t.pool {
		p.rt.CloseIdleConnections()
	}
}

// size returns the number of pooled transports.
func (t *HTTPTransport) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pool)
}

func (t *HTTPTransport) transportFor(ex *Exchange) *http.Transport {
	proxy := proxyURL(ex.Proxy, ex.ProxyCredentials)
	key := poolKey{}
	if ex.Trust != nil {
		key.identity = ex.Trust.Identity
	}
	var proxyAuth string
	if proxy != nil {
		bare := *proxy
		bare.User = nil
		key.proxy = bare.String()
		if proxy.User != nil {
			proxyAuth = proxy.User.String()
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.pool[key]; ok {
		if p.proxyAuth == proxyAuth {
			return p.rt
		}
		// Proxy credentials changed; the old transport is not used again.
		p.rt.CloseIdleConnections()
		t.log.Debug("proxy credentials changed, replacing transport", logger.Fields(
			logger.FieldHost, key.proxy,
		))
	}

	rt := http.DefaultTransport.(*http.Transport).Clone()
	rt.Proxy = nil
	if proxy != nil {
		rt.Proxy = http.ProxyURL(proxy)
	}
	switch {
	case ex.Trust != nil:
		rt.TLSClientConfig = ex.Trust.Config
	case t.base != nil:
		rt.TLSClientConfig = t.base.Clone()
	}
	t.pool[key] = pooled{rt: rt, proxyAuth: proxyAuth}
	return rt
}

// proxyURL embeds proxy credentials as user info, which net/http turns into
// Proxy-Authorization for plain requests and CONNECT tunnels alike.
func proxyURL(proxy *url.URL, creds *repository.UserCredentials) *url.URL {
	if proxy == nil {
		return nil
	}
	u := *proxy
	if creds != nil {
		u.User = url.UserPassword(creds.Username, creds.Password)
	}
	return &u
}

func hasBasicChallenge(h http.Header) bool {
	for _, v := range h.Values("WWW-Authenticate") {
		scheme, _, _ := strings.Cut(strings.TrimSpace(v), " ")
		if strings.EqualFold(scheme, string(SchemeBasic)) {
			return true
		}
	}
	return false
}

// replay clones req with a fresh body, or reports false when the body
// cannot be read twice.
func replay(ctx context.Context, req *http.Request) (*http.Request, bool) {
	retry := req.Clone(ctx)
	if req.Body == nil || req.Body == http.NoBody {
		return retry, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	retry.Body = body
	return retry, true
}
