package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func authedHandler(t *testing.T, gotCaller *string) http.Handler {
	t.Helper()
	return Auth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*gotCaller = r.Header.Get("X-Caller-Address")
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAuth_ValidToken(t *testing.T) {
	token, err := IssueToken(testSecret, "0xalice")
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	var caller string
	req := httptest.NewRequest(http.MethodPost, "/v1/draws", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	authedHandler(t, &caller).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if caller != "0xalice" {
		t.Errorf("caller = %q, want 0xalice", caller)
	}
}

func TestAuth_MissingHeader(t *testing.T) {
	var caller string
	req := httptest.NewRequest(http.MethodPost, "/v1/draws", nil)
	rec := httptest.NewRecorder()
	authedHandler(t, &caller).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuth_MalformedHeader(t *testing.T) {
	var caller string
	req := httptest.NewRequest(http.MethodPost, "/v1/draws", nil)
	req.Header.Set("Authorization", "Basic abc123")
	rec := httptest.NewRecorder()
	authedHandler(t, &caller).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuth_WrongSecret(t *testing.T) {
	token, err := IssueToken("other-secret", "0xalice")
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	var caller string
	req := httptest.NewRequest(http.MethodPost, "/v1/draws", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	authedHandler(t, &caller).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuth_MissingSubject(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"scope": "admin"}).
		SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	var caller string
	req := httptest.NewRequest(http.MethodPost, "/v1/draws", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	authedHandler(t, &caller).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuth_OverridesSpoofedCallerHeader(t *testing.T) {
	token, err := IssueToken(testSecret, "0xalice")
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	var caller string
	req := httptest.NewRequest(http.MethodPost, "/v1/draws", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Caller-Address", "0xowner")
	rec := httptest.NewRecorder()
	authedHandler(t, &caller).ServeHTTP(rec, req)

	if caller != "0xalice" {
		t.Errorf("caller = %q, spoofed header must be replaced", caller)
	}
}
