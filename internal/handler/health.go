// Package handler implements the HTTP endpoints of the API server.
package handler

import (
	"net/http"

	natsclient "github.com/denuncia-labs/conversation-insights/internal/nats"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	natsClient *natsclient.Client
}

// NewHealthHandler creates a new health handler. natsClient may be nil when
// event publishing is disabled.
func NewHealthHandler(natsClient *natsclient.Client) *HealthHandler {
	return &HealthHandler{
		natsClient: natsClient,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
//
// The pipeline degrades to synthetic data when sources are absent, so the
// service is ready as soon as it is serving; NATS state is reported but does
// not gate readiness.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	nats := "disabled"
	if h.natsClient != nil {
		if h.natsClient.IsConnected() {
			nats = "connected"
		} else {
			nats = "disconnected"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"nats":   nats,
	})
}
