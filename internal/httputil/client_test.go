package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Token: "secret-token"})
	resp, err := client.Get(context.Background(), "/v1/status")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	var out map[string]string
	if err := DecodeResponse(resp, &out); err != nil {
		t.Fatalf("DecodeResponse failed: %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if out["status"] != "ok" {
		t.Errorf("body = %v", out)
	}
}

func TestClient_RetriesAuthFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Token: "t", MaxRetries: 3})
	resp, err := client.Get(context.Background(), "/v1/status")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d after retries, want 200", resp.StatusCode)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestClient_PostSendsJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var body map[string]string
		if !DecodeJSON(w, r, &body) {
			return
		}
		WriteJSON(w, http.StatusCreated, body)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL})
	resp, err := client.Post(context.Background(), "/v1/draws", map[string]string{"token": "0xtoken"})
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	var out map[string]string
	if err := DecodeResponse(resp, &out); err != nil {
		t.Fatalf("DecodeResponse failed: %v", err)
	}
	if out["token"] != "0xtoken" {
		t.Errorf("echoed body = %v", out)
	}
}

func TestDecodeResponse_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusConflict, "draw is not open")
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL})
	resp, err := client.Get(context.Background(), "/v1/draws/0")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if err := DecodeResponse(resp, nil); err == nil {
		t.Error("expected error for 409 response")
	}
}
