package httpclient

import (
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/net/publicsuffix"
)

// AuthScheme names an authentication scheme remembered for a host.
type AuthScheme string

// SchemeBasic is HTTP Basic authentication.
const SchemeBasic AuthScheme = "Basic"

// ExecutionContext is the state shared by all exchanges of a client: the
// per-host authentication cache, the cookie jar and the certificate
// identity token. It is safe for concurrent use.
type ExecutionContext struct {
	mu        sync.RWMutex
	authCache map[string]AuthScheme
	userToken string
	jar       http.CookieJar
}

// NewExecutionContext creates an empty context with a public-suffix aware
// cookie jar.
func NewExecutionContext() *ExecutionContext {
	// cookiejar.New never returns an error.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return &ExecutionContext{
		authCache: make(map[string]AuthScheme),
		jar:       jar,
	}
}

// HostKey returns the auth cache key of u: lower-cased scheme, host and
// effective port.
func HostKey(u *url.URL) string {
	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "https":
			port = "443"
		default:
			port = "80"
		}
	}
	return strings.ToLower(u.Scheme) + "://" + net.JoinHostPort(strings.ToLower(u.Hostname()), port)
}

// AuthScheme returns the scheme cached for host, or "".
func (c *ExecutionContext) AuthScheme(host string) AuthScheme {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authCache[host]
}

// CacheAuthScheme records scheme for host unless one is already cached. It
// reports whether the entry was added.
func (c *ExecutionContext) CacheAuthScheme(host string, scheme AuthScheme) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.authCache[host]; ok {
		return false
	}
	c.authCache[host] = scheme
	return true
}

// ForgetAuthScheme drops the cached scheme for host.
func (c *ExecutionContext) ForgetAuthScheme(host string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.authCache, host)
}

// UserToken returns the identity of the client certificate the last
// exchange was prepared with, or "".
func (c *ExecutionContext) UserToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userToken
}

// SetUserToken pins subsequent connections to a client certificate identity.
func (c *ExecutionContext) SetUserToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userToken = token
}

// ClearUserToken forgets the certificate identity.
func (c *ExecutionContext) ClearUserToken() {
	c.SetUserToken("")
}

// Jar returns the cookie jar shared by all exchanges.
func (c *ExecutionContext) Jar() http.CookieJar {
	return c.jar
}
