package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type fakeLimiterStore struct {
	counts map[string]int64
	err    error
}

func newFakeLimiterStore() *fakeLimiterStore {
	return &fakeLimiterStore{counts: map[string]int64{}}
}

func (s *fakeLimiterStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if s.err != nil {
		return false, 0, s.err
	}
	s.counts[scope]++
	count := s.counts[scope]
	return count <= limit, count, nil
}

func rateLimitedHandler(t *testing.T, policy RateLimitPolicy, store RateLimiterStore) http.Handler {
	t.Helper()
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return RateLimit(policy, store, nil)(next)
}

func lookupRequest(phone string) *http.Request {
	body := `{"reference":"FB-ABCD1234","phone":"` + phone + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/lookup", strings.NewReader(body))
	req.RemoteAddr = "203.0.113.7:52100"
	return req
}

func TestRateLimitAllowsUnderLimit(t *testing.T) {
	store := newFakeLimiterStore()
	handler := rateLimitedHandler(t, NewRateLimitPolicy("lookup", time.Minute, 5, 3), store)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, lookupRequest("01012345678"))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}
}

func TestRateLimitBlocksPhoneOverLimit(t *testing.T) {
	store := newFakeLimiterStore()
	handler := rateLimitedHandler(t, NewRateLimitPolicy("lookup", time.Minute, 100, 2), store)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, lookupRequest("01012345678"))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, lookupRequest("01012345678"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
}

func TestRateLimitPhoneCounterIgnoresFormatting(t *testing.T) {
	store := newFakeLimiterStore()
	handler := rateLimitedHandler(t, NewRateLimitPolicy("lookup", time.Minute, 100, 1), store)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, lookupRequest("01012345678"))
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, lookupRequest("010 1234 5678"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("formatted variant: status = %d, want 429", rec.Code)
	}
}

func TestRateLimitBlocksIPOverLimit(t *testing.T) {
	store := newFakeLimiterStore()
	handler := rateLimitedHandler(t, NewRateLimitPolicy("login", time.Minute, 2, 0), store)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, lookupRequest("01000000001"))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, lookupRequest("01000000002"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
}

func TestRateLimitSeparatePhonesHaveSeparateBudgets(t *testing.T) {
	store := newFakeLimiterStore()
	handler := rateLimitedHandler(t, NewRateLimitPolicy("lookup", time.Minute, 100, 1), store)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, lookupRequest("01012345678"))
	if rec.Code != http.StatusOK {
		t.Fatalf("first phone: status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, lookupRequest("01087654321"))
	if rec.Code != http.StatusOK {
		t.Fatalf("second phone: status = %d, want 200", rec.Code)
	}
}

func TestRateLimitBodyRemainsReadable(t *testing.T) {
	store := newFakeLimiterStore()
	var sawBody string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := make([]byte, 1024)
		n, _ := r.Body.Read(raw)
		sawBody = string(raw[:n])
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimit(NewRateLimitPolicy("lookup", time.Minute, 0, 5), store, nil)(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, lookupRequest("01012345678"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(sawBody, "01012345678") {
		t.Fatalf("handler body = %q, want original payload", sawBody)
	}
}

func TestRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	store := newFakeLimiterStore()
	handler := rateLimitedHandler(t, NewRateLimitPolicy("off", 0, 10, 10), store)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, lookupRequest("01012345678"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(store.counts) != 0 {
		t.Fatalf("store touched %d keys, want 0", len(store.counts))
	}
}

func TestRateLimitNilStorePassesThrough(t *testing.T) {
	handler := rateLimitedHandler(t, NewRateLimitPolicy("lookup", time.Minute, 1, 1), nil)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, lookupRequest("01012345678"))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:9999"
	req.Header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.1")
	if got := clientIP(req); got != "198.51.100.4" {
		t.Fatalf("clientIP = %q, want first forwarded address", got)
	}
}
