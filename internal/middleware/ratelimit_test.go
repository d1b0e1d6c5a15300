package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimiter_EnforcesBurst(t *testing.T) {
	rl := NewRateLimiter(1, 3, nil)
	handler := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	statuses := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/draws/0/entries", nil)
		req.Header.Set("X-Caller-Address", "0xalice")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}

	for i := 0; i < 3; i++ {
		if statuses[i] != http.StatusOK {
			t.Errorf("request %d status = %d, want 200", i, statuses[i])
		}
	}
	if statuses[3] != http.StatusTooManyRequests || statuses[4] != http.StatusTooManyRequests {
		t.Errorf("over-burst statuses = %v, want 429s", statuses[3:])
	}
}

func TestRateLimiter_FractionalRate(t *testing.T) {
	// A sub-1/s rate must keep its burst budget, not round down to a
	// limiter that rejects everything.
	rl := NewRateLimiter(0.5, 1, nil)
	handler := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/draws/0/entries", nil)
	req.Header.Set("X-Caller-Address", "0xalice")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}

	again := httptest.NewRequest(http.MethodPost, "/v1/draws/0/entries", nil)
	again.Header.Set("X-Caller-Address", "0xalice")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, again)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", rec.Code)
	}
}

func TestRateLimiter_KeysPerCaller(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil)
	handler := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRequest(http.MethodPost, "/v1/draws/0/entries", nil)
	first.Header.Set("X-Caller-Address", "0xalice")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	if rec.Code != http.StatusOK {
		t.Fatalf("first caller status = %d, want 200", rec.Code)
	}

	// A different caller holds an independent budget.
	second := httptest.NewRequest(http.MethodPost, "/v1/draws/0/entries", nil)
	second.Header.Set("X-Caller-Address", "0xbob")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	if rec.Code != http.StatusOK {
		t.Errorf("second caller status = %d, want 200", rec.Code)
	}

	// The first caller is now out of budget.
	again := httptest.NewRequest(http.MethodPost, "/v1/draws/0/entries", nil)
	again.Header.Set("X-Caller-Address", "0xalice")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, again)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("exhausted caller status = %d, want 429", rec.Code)
	}
}
