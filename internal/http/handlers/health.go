package handlers

import (
	"context"
	"net/http"
)

// Pinger is the reachability probe the health endpoint depends on.
type Pinger interface {
	Ping(ctx context.Context) bool
}

// HealthHandler serves GET /api/health and the root service-info page.
// Neither requires auth.
type HealthHandler struct {
	backend      Pinger
	defaultModel string
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(backend Pinger, defaultModel string) *HealthHandler {
	return &HealthHandler{backend: backend, defaultModel: defaultModel}
}

// Health reports overall status plus Ollama reachability.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"ollama":        h.backend.Ping(r.Context()),
		"default_model": h.defaultModel,
	})
}

// Root answers with basic service information.
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"service": "llamagate",
		"health":  "/api/health",
	})
}
