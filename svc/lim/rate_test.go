package lim

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetRealIPNoProxies(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.9:4444"
	r.Header.Set("X-Forwarded-For", "10.0.0.1")
	if ip := GetRealIP(r, nil); ip != "203.0.113.9" {
		t.Fatalf("got %s", ip)
	}
}

func TestGetRealIPTrustedProxy(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.2")
	if ip := GetRealIP(r, []string{"10.0.0.0/8"}); ip != "203.0.113.9" {
		t.Fatalf("got %s", ip)
	}
}

func TestGetRealIPUntrustedPeerIgnoresXFF(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "198.51.100.7:9999"
	r.Header.Set("X-Forwarded-For", "203.0.113.9")
	if ip := GetRealIP(r, []string{"10.0.0.0/8"}); ip != "198.51.100.7" {
		t.Fatalf("got %s", ip)
	}
}

func TestLocalLimiterRejectsBurst(t *testing.T) {
	l := New(60, 2, 2, nil, nil)
	defer l.Stop()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:1000"

	allowed := 0
	for i := 0; i < 10; i++ {
		if l.CheckLimit(r, "read").Allowed {
			allowed++
		}
	}
	if allowed == 0 || allowed == 10 {
		t.Fatalf("expected partial allowance, got %d/10", allowed)
	}
}

func TestLimiterKeysByEndpointClass(t *testing.T) {
	l := New(60, 1, 1, nil, nil)
	defer l.Stop()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.2:1000"

	if !l.CheckLimit(r, "read").Allowed {
		t.Fatal("first read rejected")
	}
	if l.CheckLimit(r, "read").Allowed {
		t.Fatal("second read allowed with burst 1")
	}
	// A different class has its own bucket.
	if !l.CheckLimit(r, "create").Allowed {
		t.Fatal("create should not share the read bucket")
	}
}

func TestNewPanicsOnBadProxy(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for invalid proxy entry")
		}
	}()
	New(60, 1, 1, nil, []string{"not-an-ip"})
}
