package repository

import (
	"errors"
	"testing"
)

func TestCodec_RoundTrip(t *testing.T) {
	tests := []Credentials{
		UserCredentials{Username: "alice", Password: "secret", Domain: "CORP", SavePassword: true},
		CertificateCredentials{KeyStorePath: "/etc/keys/client.p12", Password: "changeit", KeyStoreFormat: "PKCS12"},
		OpenIDCredentials{ResponseURL: "https://idp.example.com/cb", Token: "tok"},
	}
	for _, c := range tests {
		t.Run(string(c.Kind()), func(t *testing.T) {
			raw, err := EncodeCredentials(c)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			got, err := DecodeCredentials(raw)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != c {
				t.Errorf("got %#v, want %#v", got, c)
			}
		})
	}
}

func TestCodec_Errors(t *testing.T) {
	if _, err := EncodeCredentials(nil); err == nil {
		t.Error("expected error encoding nil")
	}
	if _, err := DecodeCredentials([]byte(`{"kind":"kerberos","data":{}}`)); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
	if _, err := DecodeCredentials([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed input")
	}
	if _, err := DecodeCredentials([]byte(`{"kind":"user","data":"oops"}`)); err == nil {
		t.Error("expected error for malformed data")
	}
}
