// Package repository serves cached repository metadata over HTTP.
package repository

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"Repocache/internal/api/handlers"
	"Repocache/internal/core/repositories"
)

// CreatedAtLayout is the wire format of createdAt: second precision, no zone
const CreatedAtLayout = "2006-01-02T15:04:05"

// RepositoryView is the JSON representation of a repository
type RepositoryView struct {
	FullName    string  `json:"fullName"`
	Description *string `json:"description"`
	CloneURL    string  `json:"cloneUrl"`
	Stars       int     `json:"stars"`
	CreatedAt   string  `json:"createdAt"`
}

// NewRepositoryView converts a cached record into its wire form
func NewRepositoryView(r *repositories.Repository) RepositoryView {
	return RepositoryView{
		FullName:    r.Identity,
		Description: r.Description,
		CloneURL:    r.CloneURL,
		Stars:       r.Stars,
		CreatedAt:   r.CreatedAt.UTC().Format(CreatedAtLayout),
	}
}

// GetHandler handles repository lookups
type GetHandler struct {
	service repositories.Service
}

// NewGetHandler creates a new get handler
func NewGetHandler(service repositories.Service) *GetHandler {
	return &GetHandler{
		service: service,
	}
}

// HandleGet returns the repository metadata for owner/repo
// GET /repositories/{owner}/{repo}
func (h *GetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	repo := chi.URLParam(r, "repo")

	record, err := h.service.GetRepository(r.Context(), owner, repo)
	if err != nil {
		handleServiceError(w, owner+"/"+repo, err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, NewRepositoryView(record))
}
