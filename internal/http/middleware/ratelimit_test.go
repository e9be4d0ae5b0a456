package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimitPerIP(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2)
	now := time.Date(2025, 10, 20, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	h := RateLimit(limiter)(okHandler(nil))

	send := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/chat", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("10.0.0.1:5000"); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, code)
		}
	}
	// Different source port, same client.
	if code := send("10.0.0.1:5001"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once burst is spent, got %d", code)
	}
	if code := send("10.0.0.2:5000"); code != http.StatusOK {
		t.Fatalf("other clients keep their own bucket, got %d", code)
	}
}

func TestRateLimitPrefersRealIP(t *testing.T) {
	limiter := NewRateLimiter(0.001, 1)
	h := RateLimit(limiter)(okHandler(nil))

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "127.0.0.1:1234"
		req.Header.Set("X-Real-Ip", "203.0.113.9")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("request %d: expected %d, got %d", i, want, rec.Code)
		}
	}
}

func TestRateLimiterPrune(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	now := time.Date(2025, 10, 20, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.Allow("a")
	now = now.Add(5 * time.Minute)
	limiter.Allow("b")
	now = now.Add(6 * time.Minute)

	if removed := limiter.Prune(); removed != 1 {
		t.Fatalf("expected 1 idle bucket removed, got %d", removed)
	}
	if _, ok := limiter.limiters["b"]; !ok {
		t.Fatalf("recent bucket should survive")
	}
}
