package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"Repocache/internal/api/handlers"
	"Repocache/internal/core/repositories"
)

// MockRepositoryService is a mock implementation of repositories.Service
type MockRepositoryService struct {
	mock.Mock
}

func (m *MockRepositoryService) GetRepository(ctx context.Context, owner, repo string) (*repositories.Repository, error) {
	args := m.Called(ctx, owner, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repositories.Repository), args.Error(1)
}

// createTestRequest creates an HTTP request with chi URL params
func createTestRequest(owner, repo string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/repositories/"+owner+"/"+repo, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("owner", owner)
	rctx.URLParams.Add("repo", repo)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestGetHandler_Success(t *testing.T) {
	description := "My first repository on GitHub!"
	mockService := new(MockRepositoryService)
	mockService.On("GetRepository", mock.Anything, "octocat", "Hello-World").Return(&repositories.Repository{
		Identity:        "octocat/Hello-World",
		Description:     &description,
		CloneURL:        "https://github.com/octocat/Hello-World.git",
		Stars:           80,
		CreatedAt:       time.Date(2011, 1, 26, 19, 1, 12, 0, time.UTC),
		LastRefreshedAt: time.Now(),
		TTLSeconds:      3600,
	}, nil)

	handler := NewGetHandler(mockService)
	w := httptest.NewRecorder()
	handler.HandleGet(w, createTestRequest("octocat", "Hello-World"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{
		"fullName": "octocat/Hello-World",
		"description": "My first repository on GitHub!",
		"cloneUrl": "https://github.com/octocat/Hello-World.git",
		"stars": 80,
		"createdAt": "2011-01-26T19:01:12"
	}`, w.Body.String())
	mockService.AssertExpectations(t)
}

func TestGetHandler_NullDescription(t *testing.T) {
	mockService := new(MockRepositoryService)
	mockService.On("GetRepository", mock.Anything, "octocat", "Spoon-Knife").Return(&repositories.Repository{
		Identity:  "octocat/Spoon-Knife",
		CloneURL:  "https://github.com/octocat/Spoon-Knife.git",
		Stars:     12,
		CreatedAt: time.Date(2011, 1, 27, 19, 30, 43, 999, time.UTC),
	}, nil)

	handler := NewGetHandler(mockService)
	w := httptest.NewRecorder()
	handler.HandleGet(w, createTestRequest("octocat", "Spoon-Knife"))

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "description")
	assert.Nil(t, body["description"])
	assert.Equal(t, "2011-01-27T19:30:43", body["createdAt"])
}

func TestGetHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "invalid identity",
			err:        fmt.Errorf("%w: owner is empty", repositories.ErrInvalidIdentity),
			wantStatus: http.StatusBadRequest,
			wantError:  "InvalidRequest",
		},
		{
			name:       "upstream not found",
			err:        fmt.Errorf("failed to fetch a/b: %w", repositories.ErrUpstreamNotFound),
			wantStatus: http.StatusNotFound,
			wantError:  "NotFound",
		},
		{
			name:       "upstream timeout",
			err:        fmt.Errorf("failed to fetch a/b: %w", repositories.ErrUpstreamTimeout),
			wantStatus: http.StatusGatewayTimeout,
			wantError:  "UpstreamTimeout",
		},
		{
			name:       "upstream unavailable",
			err:        fmt.Errorf("failed to fetch a/b: %w", repositories.ErrUpstreamUnavailable),
			wantStatus: http.StatusBadGateway,
			wantError:  "UpstreamError",
		},
		{
			name:       "malformed upstream response",
			err:        fmt.Errorf("failed to fetch a/b: %w", repositories.ErrMalformedResponse),
			wantStatus: http.StatusBadGateway,
			wantError:  "UpstreamError",
		},
		{
			name:       "unexpected",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "InternalServerError",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockRepositoryService)
			mockService.On("GetRepository", mock.Anything, "a", "b").Return(nil, tt.err)

			handler := NewGetHandler(mockService)
			w := httptest.NewRecorder()
			handler.HandleGet(w, createTestRequest("a", "b"))

			assert.Equal(t, tt.wantStatus, w.Code)

			var resp handlers.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantError, resp.Error)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestNewRepositoryView_FormatsCreatedAtInUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	view := NewRepositoryView(&repositories.Repository{
		Identity:  "octocat/Hello-World",
		CreatedAt: time.Date(2011, 1, 26, 21, 1, 12, 0, loc),
	})
	assert.Equal(t, "2011-01-26T19:01:12", view.CreatedAt)
}
