package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimiterAllowsBurstThenDenies(t *testing.T) {
	// Near-zero refill rate so the bucket does not recover mid-test.
	rl := NewRateLimiter(0.001, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d within burst should be allowed", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("request beyond burst should be denied")
	}
}

func TestRateLimiterTracksIPsIndependently(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)

	if !rl.Allow("10.0.0.1") {
		t.Fatal("first ip should be allowed")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("first ip exhausted its burst")
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatal("second ip has its own bucket")
	}
}

func TestRateLimitMiddlewareReturns429(t *testing.T) {
	handler := RateLimit(0.001, 2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	request := func() int {
		req := httptest.NewRequest(http.MethodGet, "/portal/availability", nil)
		req.Header.Set("X-Real-Ip", "203.0.113.7")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := request(); code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", code)
	}
	if code := request(); code != http.StatusOK {
		t.Fatalf("second request within burst should pass, got %d", code)
	}
	if code := request(); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 beyond burst, got %d", code)
	}
}
