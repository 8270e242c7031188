package repository

import (
	"errors"
	"log/slog"
	"net/http"

	"Repocache/internal/api/handlers"
	"Repocache/internal/core/repositories"
)

// handleServiceError converts service errors to appropriate HTTP responses
func handleServiceError(w http.ResponseWriter, identity string, err error) {
	switch {
	case errors.Is(err, repositories.ErrInvalidIdentity):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
	case errors.Is(err, repositories.ErrUpstreamNotFound):
		handlers.WriteError(w, http.StatusNotFound, "NotFound", "Repository "+identity+" not found")
	case errors.Is(err, repositories.ErrUpstreamTimeout):
		handlers.WriteError(w, http.StatusGatewayTimeout, "UpstreamTimeout", "GitHub did not respond in time")
	case errors.Is(err, repositories.ErrUpstreamUnavailable), errors.Is(err, repositories.ErrMalformedResponse):
		handlers.WriteError(w, http.StatusBadGateway, "UpstreamError", "GitHub request failed")
	default:
		slog.Error("[REPO-HANDLER] Unexpected error", "identity", identity, "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
	}
}
