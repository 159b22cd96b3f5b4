package repository

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/repoauth/logger"
)

func newTestLocation(t *testing.T, opts ...LocationOption) *Location {
	t.Helper()
	opts = append([]LocationOption{WithLogger(logger.Nop())}, opts...)
	loc, err := NewLocation("https://repo.example.com/", opts...)
	if err != nil {
		t.Fatalf("NewLocation: %v", err)
	}
	return loc
}

func TestNewLocation(t *testing.T) {
	loc := newTestLocation(t)
	if loc.URL() != "https://repo.example.com" {
		t.Errorf("expected trailing slash trimmed, got %q", loc.URL())
	}
	if loc.ID() != loc.URL() {
		t.Errorf("expected id to default to url, got %q", loc.ID())
	}
	if loc.HasRequester() || loc.ProxyURL() != nil {
		t.Error("expected no requester and no proxy")
	}

	for _, raw := range []string{"ftp://repo.example.com", "https://", "://bad", "relative/path"} {
		if _, err := NewLocation(raw); err == nil {
			t.Errorf("NewLocation(%q): expected error", raw)
		}
	}
}

func TestStoreAndLookup_PerSlot(t *testing.T) {
	ctx := context.Background()
	loc := newTestLocation(t)

	if _, ok, err := Lookup(ctx, loc, HTTP); err != nil || ok {
		t.Fatalf("expected nothing stored, got ok=%v err=%v", ok, err)
	}

	httpCreds := UserCredentials{Username: "web", Password: "a"}
	proxyCreds := UserCredentials{Username: "proxy", Password: "b"}
	if err := Store(ctx, loc, HTTP, httpCreds); err != nil {
		t.Fatal(err)
	}
	if err := Store(ctx, loc, Proxy, proxyCreds); err != nil {
		t.Fatal(err)
	}

	got, ok, err := Lookup(ctx, loc, HTTP)
	if err != nil || !ok || got != httpCreds {
		t.Errorf("HTTP: got %v ok=%v err=%v", got, ok, err)
	}
	got, ok, err = Lookup(ctx, loc, Proxy)
	if err != nil || !ok || got != proxyCreds {
		t.Errorf("Proxy: got %v ok=%v err=%v", got, ok, err)
	}
	if _, ok, _ := Lookup(ctx, loc, Repository); ok {
		t.Error("Repository slot must be independent")
	}

	replaced := UserCredentials{Username: "web", Password: "c"}
	if err := Store(ctx, loc, HTTP, replaced); err != nil {
		t.Fatal(err)
	}
	if got, _, _ := Lookup(ctx, loc, HTTP); got != replaced {
		t.Errorf("expected replaced credentials, got %v", got)
	}

	if err := loc.Clear(ctx, HTTP); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := Lookup(ctx, loc, HTTP); ok {
		t.Error("expected HTTP cleared")
	}
	if _, ok, _ := Lookup(ctx, loc, Proxy); !ok {
		t.Error("clearing HTTP must not clear Proxy")
	}
}

func TestStore_ScopedByLocation(t *testing.T) {
	ctx := context.Background()
	shared := NewMemoryStore()
	a := newTestLocation(t, WithID("a"), WithStore(shared))
	b := newTestLocation(t, WithID("b"), WithStore(shared))

	if err := Store(ctx, a, HTTP, UserCredentials{Username: "alice"}); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := Lookup(ctx, b, HTTP); ok {
		t.Error("credentials leaked across locations")
	}
	if shared.Len() != 1 {
		t.Errorf("expected 1 stored item, got %d", shared.Len())
	}
}

func TestLookup_ShapeMismatch(t *testing.T) {
	ctx := context.Background()
	loc := newTestLocation(t)
	if err := Store(ctx, loc, HTTP, UserCredentials{Username: "alice"}); err != nil {
		t.Fatal(err)
	}

	// A slot declared with the wrong shape over the same key.
	wrong := NewAuthenticationType[CertificateCredentials](HTTP.Key())
	_, ok, err := Lookup(ctx, loc, wrong)
	if ok || !errors.Is(err, ErrMisconfigured) {
		t.Fatalf("expected ErrMisconfigured, got ok=%v err=%v", ok, err)
	}
	var me *MisconfigurationError
	if !errors.As(err, &me) || me.Got.Kind() != KindUser {
		t.Errorf("unexpected error %#v", err)
	}
}

func TestRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("supplied credentials are stored", func(t *testing.T) {
		var got AuthenticationRequest
		loc := newTestLocation(t)
		loc.requester = RequesterFunc(func(_ context.Context, req AuthenticationRequest) (Credentials, error) {
			got = req
			return UserCredentials{Username: "alice", Password: "secret"}, nil
		})

		c, ok, err := Request(ctx, loc, HTTP, "Unauthorized")
		if err != nil || !ok || c.Username != "alice" {
			t.Fatalf("got %v ok=%v err=%v", c, ok, err)
		}
		if got.Location != loc || got.Type.Key() != HTTP.Key() || got.Reason != "Unauthorized" {
			t.Errorf("unexpected request %+v", got)
		}
		if stored, ok, _ := Lookup(ctx, loc, HTTP); !ok || stored != c {
			t.Errorf("expected credentials stored, got %v", stored)
		}
	})

	t.Run("declined leaves store untouched", func(t *testing.T) {
		for name, answer := range map[string]error{"nil": nil, "sentinel": ErrCredentialsDeclined} {
			loc := newTestLocation(t, WithRequester(RequesterFunc(func(context.Context, AuthenticationRequest) (Credentials, error) {
				return nil, answer
			})))
			_, ok, err := Request(ctx, loc, HTTP, "")
			if err != nil || ok {
				t.Errorf("%s: expected declined without error, got ok=%v err=%v", name, ok, err)
			}
			if _, ok, _ := Lookup(ctx, loc, HTTP); ok {
				t.Errorf("%s: store must be untouched", name)
			}
		}
	})

	t.Run("requester failure", func(t *testing.T) {
		boom := errors.New("tty closed")
		loc := newTestLocation(t, WithRequester(RequesterFunc(func(context.Context, AuthenticationRequest) (Credentials, error) {
			return nil, boom
		})))
		if _, _, err := Request(ctx, loc, HTTP, ""); !errors.Is(err, boom) {
			t.Errorf("expected wrapped requester error, got %v", err)
		}
	})

	t.Run("wrong shape is a misconfiguration", func(t *testing.T) {
		loc := newTestLocation(t, WithRequester(RequesterFunc(func(context.Context, AuthenticationRequest) (Credentials, error) {
			return OpenIDCredentials{Token: "t"}, nil
		})))
		if _, _, err := Request(ctx, loc, HTTP, ""); !errors.Is(err, ErrMisconfigured) {
			t.Errorf("expected ErrMisconfigured, got %v", err)
		}
		if _, ok, _ := Lookup(ctx, loc, HTTP); ok {
			t.Error("store must be untouched")
		}
	})

	t.Run("no requester", func(t *testing.T) {
		loc := newTestLocation(t)
		if _, _, err := Request(ctx, loc, HTTP, ""); !errors.Is(err, ErrNoRequester) {
			t.Errorf("expected ErrNoRequester, got %v", err)
		}
	})

	t.Run("cancellation leaves store untouched", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		started := make(chan struct{})
		loc := newTestLocation(t, WithRequester(RequesterFunc(func(ctx context.Context, _ AuthenticationRequest) (Credentials, error) {
			close(started)
			<-ctx.Done()
			// A late answer after cancellation must be discarded.
			return UserCredentials{Username: "late"}, nil
		})))

		errc := make(chan error, 1)
		go func() {
			_, _, err := Request(ctx, loc, HTTP, "")
			errc <- err
		}()
		<-started
		cancel()

		select {
		case err := <-errc:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Request did not return after cancellation")
		}
		if _, ok, _ := Lookup(context.Background(), loc, HTTP); ok {
			t.Error("store must be untouched after cancellation")
		}
	})

	t.Run("already cancelled never asks", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		var calls atomic.Int32
		loc := newTestLocation(t, WithRequester(RequesterFunc(func(context.Context, AuthenticationRequest) (Credentials, error) {
			calls.Add(1)
			return UserCredentials{Username: "x"}, nil
		})))
		if _, _, err := Request(ctx, loc, HTTP, ""); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if calls.Load() != 0 {
			t.Errorf("requester must not be called, got %d calls", calls.Load())
		}
	})
}

func TestGet_PromptIfMissing(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	loc := newTestLocation(t, WithRequester(RequesterFunc(func(context.Context, AuthenticationRequest) (Credentials, error) {
		calls.Add(1)
		return CertificateCredentials{KeyStorePath: "/k.p12"}, nil
	})))

	if _, ok, err := Get(ctx, loc, Certificate, false); ok || err != nil {
		t.Fatalf("expected nothing without prompting, got ok=%v err=%v", ok, err)
	}
	if calls.Load() != 0 {
		t.Fatal("must not prompt when promptIfMissing is false")
	}

	c, ok, err := Get(ctx, loc, Certificate, true)
	if err != nil || !ok || c.KeyStorePath != "/k.p12" {
		t.Fatalf("got %v ok=%v err=%v", c, ok, err)
	}
	if _, _, err := Get(ctx, loc, Certificate, true); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected one prompt, got %d", calls.Load())
	}
}
