package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/repoauth/encryption"
)

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	s, err := NewFileStore(path, "passphrase", encryption.AlgorithmChaCha20)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok, err := s.Load(ctx, "k"); ok || err != nil {
		t.Fatalf("expected miss before the file exists, got ok=%v err=%v", ok, err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete before the file exists: %v", err)
	}

	want := UserCredentials{Username: "alice", Password: "top-secret"}
	if err := s.Save(ctx, "k", want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "top-secret") || strings.Contains(string(data), "alice") {
		t.Errorf("credentials written in clear: %s", data)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("expected 0600, got %v", info.Mode().Perm())
	}

	// A second store over the same file reads what the first wrote.
	reopened, _ := NewFileStore(path, "passphrase", "")
	got, ok, err := reopened.Load(ctx, "k")
	if err != nil || !ok || got != want {
		t.Fatalf("Load: got %v ok=%v err=%v", got, ok, err)
	}

	if err := reopened.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Load(ctx, "k"); ok {
		t.Error("expected entry deleted")
	}
}

func TestFileStore_WrongPassphrase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.json")
	s, _ := NewFileStore(path, "right", "")
	if err := s.Save(ctx, "k", OpenIDCredentials{Token: "t"}); err != nil {
		t.Fatal(err)
	}
	wrong, _ := NewFileStore(path, "wrong", "")
	if _, _, err := wrong.Load(ctx, "k"); err == nil {
		t.Error("expected decrypt failure")
	}
}

func TestFileStore_EntryBoundToKey(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.json")
	s, _ := NewFileStore(path, "pass", "")
	if err := s.Save(ctx, "a", UserCredentials{Username: "a"}); err != nil {
		t.Fatal(err)
	}
	f, err := s.read()
	if err != nil {
		t.Fatal(err)
	}
	f.Entries["b"] = f.Entries["a"]
	if err := s.write(f); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Load(ctx, "b"); err == nil {
		t.Error("expected a moved entry to fail to open")
	}
}

func TestFileStore_Errors(t *testing.T) {
	if _, err := NewFileStore("", "p", ""); err == nil {
		t.Error("expected path error")
	}
	if _, err := NewFileStore("/tmp/x", "", ""); err == nil {
		t.Error("expected passphrase error")
	}

	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, []byte(`{"version":9}`), 0o600); err != nil {
		t.Fatal(err)
	}
	s, _ := NewFileStore(path, "p", "")
	if _, _, err := s.Load(context.Background(), "k"); err == nil {
		t.Error("expected unsupported version error")
	}
}

func TestRequest_PasswordNotSavedIsNotPersisted(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.json")

	for _, save := range []bool{false, true} {
		s, err := NewFileStore(path, "pass", "")
		if err != nil {
			t.Fatal(err)
		}
		supplied := UserCredentials{Username: "alice", Password: "secret", SavePassword: save}
		loc := newTestLocation(t, WithStore(s), WithRequester(RequesterFunc(
			func(context.Context, AuthenticationRequest) (Credentials, error) {
				return supplied, nil
			})))

		if _, ok, err := Request(ctx, loc, HTTP, ""); err != nil || !ok {
			t.Fatalf("save=%v: Request: ok=%v err=%v", save, ok, err)
		}
		if got, _, _ := Lookup(ctx, loc, HTTP); got != supplied {
			t.Errorf("save=%v: same location must keep the full credentials, got %#v", save, got)
		}

		reopened, _ := NewFileStore(path, "pass", "")
		fresh := newTestLocation(t, WithStore(reopened))
		got, ok, err := Lookup(ctx, fresh, HTTP)
		if err != nil || !ok {
			t.Fatalf("save=%v: Lookup after reopen: ok=%v err=%v", save, ok, err)
		}
		if got.Username != "alice" {
			t.Errorf("save=%v: expected username persisted, got %q", save, got.Username)
		}
		wantPassword := ""
		if save {
			wantPassword = "secret"
		}
		if got.Password != wantPassword {
			t.Errorf("save=%v: persisted password %q, want %q", save, got.Password, wantPassword)
		}
	}
}
