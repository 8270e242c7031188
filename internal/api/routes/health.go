package routes

import (
	"github.com/go-chi/chi/v5"

	"Repocache/internal/api/handlers/health"
)

// RegisterHealthRoutes registers the store liveness endpoints.
// /health is kept for load balancers that expect it.
func RegisterHealthRoutes(r chi.Router, pinger health.Pinger) {
	handler := health.NewHandler(pinger)

	r.Get("/status", handler.HandleStatus)
	r.Get("/health", handler.HandleStatus)
}
