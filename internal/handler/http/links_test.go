package http

import (
	"Supernova-Backend/internal/auth"
	"Supernova-Backend/internal/config"
	"Supernova-Backend/internal/domain"
	"Supernova-Backend/internal/repository/memory"
	"Supernova-Backend/internal/service"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLinksTestHandler(storage *memory.MemStorage) *LinksHandler {
	links := service.NewLinkService(storage, &config.URLShortener{
		CodeLength: 6,
		BaseURL:    "http://localhost:8080",
	}, zap.NewNop())
	return NewLinksHandler(links, zap.NewNop(), "http://localhost:8080")
}

func authedRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	ctx := context.WithValue(req.Context(), auth.UserIDKey, "user-1")
	return req.WithContext(ctx)
}

func TestLinksHandler_Dashboard(t *testing.T) {
	storage := memory.New()
	handler := newLinksTestHandler(storage)

	require.NoError(t, storage.SaveLink(context.Background(), &domain.Link{
		ID:          "link-1",
		UserID:      "user-1",
		CreatorID:   "user-1",
		ShortCode:   "abc123",
		OriginalURL: "https://example.com",
	}))

	t.Run("get_lists_entries", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.Dashboard(rec, authedRequest(http.MethodGet, "/api/links"))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "abc123")
	})

	t.Run("post_is_rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.Dashboard(rec, authedRequest(http.MethodPost, "/api/links"))

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestLinksHandler_MethodGuards(t *testing.T) {
	handler := newLinksTestHandler(memory.New())

	tests := []struct {
		name   string
		method string
		target string
		call   http.HandlerFunc
	}{
		{"create_rejects_get", http.MethodGet, "/api/shorten", handler.CreateLink},
		{"save_ref_rejects_get", http.MethodGet, "/api/refs", handler.SaveRef},
		{"earned_rejects_post", http.MethodPost, "/api/qubits/earned", handler.EarnedQubits},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.call(rec, authedRequest(tt.method, tt.target))

			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		})
	}
}
