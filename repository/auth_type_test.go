package repository

import "testing"

func TestBuiltinTypes(t *testing.T) {
	want := map[string]Kind{
		Certificate.Key(): KindCertificate,
		HTTP.Key():        KindUser,
		OpenID.Key():      KindOpenID,
		Proxy.Key():       KindUser,
		Repository.Key():  KindUser,
	}
	types := Types()
	if len(types) != 5 {
		t.Fatalf("expected 5 types, got %d", len(types))
	}
	seen := make(map[string]bool)
	for _, typ := range types {
		if seen[typ.Key()] {
			t.Errorf("duplicate key %s", typ.Key())
		}
		seen[typ.Key()] = true
		if typ.Kind() != want[typ.Key()] {
			t.Errorf("%s: expected kind %s, got %s", typ, want[typ.Key()], typ.Kind())
		}
		if typ.String() != typ.Key() {
			t.Errorf("String() = %q, want key %q", typ.String(), typ.Key())
		}
	}
}

func TestNewAuthenticationType(t *testing.T) {
	custom := NewAuthenticationType[UserCredentials]("example.custom")
	if custom.Kind() != KindUser {
		t.Errorf("expected user kind, got %s", custom.Kind())
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic on empty key")
		}
	}()
	NewAuthenticationType[OpenIDCredentials]("")
}
