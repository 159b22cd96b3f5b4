package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/kbukum/repoauth/logger"
	"github.com/kbukum/repoauth/repository"
)

// recordingTransport answers every exchange with a fixed status and records
// what the client prepared.
type recordingTransport struct {
	status int
	err    error

	mu        sync.Mutex
	exchanges []*Exchange
	schemes   []AuthScheme
	tokens    []string
	closed    int
}

func (t *recordingTransport) Execute(_ context.Context, ex *Exchange, ec *ExecutionContext) (*http.Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.exchanges = append(t.exchanges, ex)
	t.schemes = append(t.schemes, ec.AuthScheme(HostKey(ex.Request.URL)))
	t.tokens = append(t.tokens, ec.UserToken())
	if t.err != nil {
		return nil, t.err
	}
	status := t.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader("")),
		Request:    ex.Request,
	}, nil
}

func (t *recordingTransport) CloseIdleConnections() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed++
}

func (t *recordingTransport) last() (*Exchange, AuthScheme, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.exchanges) - 1
	return t.exchanges[n], t.schemes[n], t.tokens[n]
}

func newTestLocation(t *testing.T, rawURL string, opts ...repository.LocationOption) *repository.Location {
	t.Helper()
	opts = append([]repository.LocationOption{repository.WithLogger(logger.Nop())}, opts...)
	loc, err := repository.NewLocation(rawURL, opts...)
	if err != nil {
		t.Fatalf("NewLocation: %v", err)
	}
	return loc
}

func newTestClient(t *testing.T, loc *repository.Location, cfg Config, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithLogger(logger.Nop())}, opts...)
	c, err := New(loc, cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func storeUser(t *testing.T, loc *repository.Location, typ repository.AuthenticationType[repository.UserCredentials], user, pass string) {
	t.Helper()
	err := repository.Store(context.Background(), loc, typ, repository.UserCredentials{Username: user, Password: pass})
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
}

// authLog records the Authorization header of every request a server saw.
type authLog struct {
	mu   sync.Mutex
	seen []string
}

func (l *authLog) add(v string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen = append(l.seen, v)
}

func (l *authLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.seen...)
}

// basicAuthServer accepts only user:pass and challenges otherwise.
func basicAuthServer(t *testing.T, user, pass string) (*httptest.Server, *authLog) {
	t.Helper()
	log := &authLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.add(r.Header.Get("Authorization"))
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="repo"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)
	return srv, log
}

// scriptedRequester returns the queued answers in order and counts calls.
type scriptedRequester struct {
	mu      sync.Mutex
	answers []repository.Credentials
	calls   []repository.AuthenticationRequest
}

func (r *scriptedRequester) RequestCredentials(_ context.Context, req repository.AuthenticationRequest) (repository.Credentials, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, req)
	if len(r.answers) == 0 {
		return nil, nil
	}
	next := r.answers[0]
	r.answers = r.answers[1:]
	return next, nil
}

func (r *scriptedRequester) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}
