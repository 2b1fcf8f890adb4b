package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealth(t *testing.T) {
	for _, reachable := range []bool{true, false} {
		h := NewHealthHandler(&stubBackend{pingOK: reachable}, "phi")
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()
		h.Health(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if body["status"] != "ok" {
			t.Fatalf("unexpected status %v", body["status"])
		}
		if body["ollama"] != reachable {
			t.Fatalf("expected ollama=%v, got %v", reachable, body["ollama"])
		}
		if body["default_model"] != "phi" {
			t.Fatalf("unexpected default model %v", body["default_model"])
		}
	}
}

func TestRoot(t *testing.T) {
	h := NewHealthHandler(&stubBackend{pingOK: true}, "phi")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.Root(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok true, got %v", body["ok"])
	}
	if body["health"] != "/api/health" {
		t.Fatalf("unexpected health link %v", body["health"])
	}
}
