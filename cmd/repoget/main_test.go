package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/kbukum/repoauth/config"
	"github.com/kbukum/repoauth/logger"
	"github.com/kbukum/repoauth/repository"
)

func basicServer(t *testing.T, user, pass string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="repo"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/index.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(url string) *Config {
	cfg := &Config{AppConfig: config.AppConfig{Name: appName, Logging: logger.Config{Level: "disabled"}}}
	cfg.Location.URL = url
	return cfg
}

func TestRun_PromptsAndFetches(t *testing.T) {
	srv := basicServer(t, "alice", "secret")

	var calls atomic.Int32
	requester := repository.RequesterFunc(func(_ context.Context, req repository.AuthenticationRequest) (repository.Credentials, error) {
		calls.Add(1)
		if req.Type.Key() != repository.HTTP.Key() {
			t.Errorf("unexpected slot %s", req.Type)
		}
		return repository.UserCredentials{Username: "alice", Password: "secret"}, nil
	})

	var out bytes.Buffer
	if err := run(context.Background(), testConfig(srv.URL), requester, "index.json", &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.String() != `{"ok":true}` {
		t.Errorf("unexpected body %q", out.String())
	}
	if calls.Load() != 1 {
		t.Errorf("expected one prompt, got %d", calls.Load())
	}
}

func TestRun_EnvCredentials(t *testing.T) {
	srv := basicServer(t, "bob", "pw")
	t.Setenv("REPOGET_TEST_HTTP_USERNAME", "bob")
	t.Setenv("REPOGET_TEST_HTTP_PASSWORD", "pw")

	cfg := testConfig(srv.URL)
	cfg.Location.EnvPrefix = "REPOGET_TEST"
	cfg.Client.Preemptive = true

	var out bytes.Buffer
	if err := run(context.Background(), cfg, nil, "/index.json", &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Len() == 0 {
		t.Error("expected body")
	}
}

func TestRun_Failures(t *testing.T) {
	srv := basicServer(t, "alice", "secret")

	t.Run("no requester", func(t *testing.T) {
		err := run(context.Background(), testConfig(srv.URL), nil, "index.json", &bytes.Buffer{})
		if !repository.IsAuthenticationError(err) {
			t.Errorf("expected authentication error, got %v", err)
		}
	})

	t.Run("declined", func(t *testing.T) {
		declined := repository.RequesterFunc(func(context.Context, repository.AuthenticationRequest) (repository.Credentials, error) {
			return nil, nil
		})
		err := run(context.Background(), testConfig(srv.URL), declined, "index.json", &bytes.Buffer{})
		if !errors.Is(err, repository.ErrCredentialsDeclined) {
			t.Errorf("expected declined, got %v", err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		t.Setenv("REPOGET_NF_HTTP_USERNAME", "alice")
		t.Setenv("REPOGET_NF_HTTP_PASSWORD", "secret")
		cfg := testConfig(srv.URL)
		cfg.Location.EnvPrefix = "REPOGET_NF"
		err := run(context.Background(), cfg, nil, "missing", &bytes.Buffer{})
		if err == nil || !strings.Contains(err.Error(), "not_found") {
			t.Errorf("expected not found, got %v", err)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		err := run(context.Background(), testConfig(""), nil, "", &bytes.Buffer{})
		if err == nil || !strings.Contains(err.Error(), "url") {
			t.Errorf("expected url validation error, got %v", err)
		}
	})
}

func TestRootCommand(t *testing.T) {
	srv := basicServer(t, "carol", "pw")
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "repoget.yml")
	yaml := "logging:\n  level: disabled\nlocation:\n  env_prefix: REPOGET_CMD\n"
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("REPOGET_CMD_HTTP_USERNAME", "carol")
	t.Setenv("REPOGET_CMD_HTTP_PASSWORD", "pw")
	outPath := filepath.Join(dir, "index.json")

	cmd := newRootCommand()
	cmd.SetArgs([]string{"--config", cfgPath, "--url", srv.URL, "--no-prompt", "-o", outPath, "index.json"})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}
	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"ok":true}` {
		t.Errorf("unexpected output %q", got)
	}
}
