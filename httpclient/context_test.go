package httpclient

import (
	"net/url"
	"sync"
	"testing"
)

func TestHostKey(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://Repo.Example.com/path", "https://repo.example.com:443"},
		{"http://repo.example.com", "http://repo.example.com:80"},
		{"http://repo.example.com:8080/x", "http://repo.example.com:8080"},
		{"https://[::1]:8443/", "https://[::1]:8443"},
	}
	for _, tt := range tests {
		u, _ := url.Parse(tt.raw)
		if got := HostKey(u); got != tt.want {
			t.Errorf("HostKey(%s) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}

func TestExecutionContext_AuthCache(t *testing.T) {
	ec := NewExecutionContext()
	if ec.AuthScheme("h") != "" {
		t.Fatal("expected empty cache")
	}
	if !ec.CacheAuthScheme("h", SchemeBasic) {
		t.Error("expected first put to succeed")
	}
	if ec.CacheAuthScheme("h", "Digest") {
		t.Error("expected put-if-absent")
	}
	if ec.AuthScheme("h") != SchemeBasic {
		t.Error("expected Basic")
	}
	ec.ForgetAuthScheme("h")
	if ec.AuthScheme("h") != "" {
		t.Error("expected entry removed")
	}
}

func TestExecutionContext_UserToken(t *testing.T) {
	ec := NewExecutionContext()
	ec.SetUserToken("PKCS12:abc")
	if ec.UserToken() != "PKCS12:abc" {
		t.Error("expected token")
	}
	ec.ClearUserToken()
	if ec.UserToken() != "" {
		t.Error("expected token cleared")
	}
	if ec.Jar() == nil {
		t.Error("expected cookie jar")
	}
}

func TestExecutionContext_Concurrent(t *testing.T) {
	ec := NewExecutionContext()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ec.CacheAuthScheme("h", SchemeBasic)
			_ = ec.AuthScheme("h")
			ec.SetUserToken("t")
			_ = ec.UserToken()
		}()
	}
	wg.Wait()
	if ec.AuthScheme("h") != SchemeBasic {
		t.Error("expected Basic")
	}
}
