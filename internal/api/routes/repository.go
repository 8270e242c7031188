package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"Repocache/internal/api/handlers/repository"
	"Repocache/internal/api/middleware"
	"Repocache/internal/core/repositories"
)

// RegisterRepositoryRoutes registers the repository lookup endpoint on the router.
// CORS runs ahead of rateLimiter (which may be nil) so throttled replies still
// carry CORS headers; preflight requests are answered by the CORS handler.
//
// Route: GET /repositories/{owner}/{repo}
func RegisterRepositoryRoutes(r chi.Router, service repositories.Service, allowedOrigins []string, rateLimiter *middleware.RateLimiter) {
	getHandler := repository.NewGetHandler(service)

	r.Group(func(r chi.Router) {
		r.Use(corsMiddleware(allowedOrigins))
		if rateLimiter != nil {
			r.Use(rateLimiter.Middleware)
		}

		r.Get("/repositories/{owner}/{repo}", getHandler.HandleGet)
		// cors.Handler replies to preflights itself; this only makes the route match OPTIONS
		r.Options("/repositories/{owner}/{repo}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})
}

// corsMiddleware allows browser clients on allowedOrigins to read repository metadata
func corsMiddleware(allowedOrigins []string) func(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
}
