// Package health reports whether the record store is reachable.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"Repocache/internal/api/handlers"
)

// DefaultPingTimeout bounds a single store probe
const DefaultPingTimeout = 2 * time.Second

// Pinger is implemented by stores that can report liveness
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusResponse is the JSON body of a health reply
type StatusResponse struct {
	Status  string `json:"status"`
	Details string `json:"details,omitempty"`
}

// Handler serves the health endpoints
type Handler struct {
	pinger  Pinger
	timeout time.Duration
}

// NewHandler creates a health handler probing pinger
func NewHandler(pinger Pinger) *Handler {
	return &Handler{
		pinger:  pinger,
		timeout: DefaultPingTimeout,
	}
}

// HandleStatus responds 200 when the store answers and 503 otherwise
// GET /status, GET /health
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.pinger.Ping(ctx); err != nil {
		slog.Warn("[HEALTH] Store ping failed", "error", err)
		handlers.WriteJSON(w, http.StatusServiceUnavailable, StatusResponse{
			Status:  "unhealthy",
			Details: err.Error(),
		})
		return
	}

	handlers.WriteJSON(w, http.StatusOK, StatusResponse{Status: "healthy"})
}
