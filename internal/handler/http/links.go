package http

import (
	"Supernova-Backend/internal/auth"
	"Supernova-Backend/internal/repository"
	"Supernova-Backend/internal/service"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// LinksHandler serves link creation, the dashboard and saved references.
type LinksHandler struct {
	links   *service.LinkService
	log     *zap.Logger
	baseURL string
}

// NewLinksHandler creates a new links handler.
func NewLinksHandler(links *service.LinkService, log *zap.Logger, baseURL string) *LinksHandler {
	return &LinksHandler{
		links:   links,
		log:     log,
		baseURL: baseURL,
	}
}

// CreateLinkRequest is the link creation request body.
type CreateLinkRequest struct {
	OriginalURL string `json:"original_url"`
	Title       string `json:"title,omitempty"`
	CustomCode  string `json:"custom_code,omitempty"`
}

// CreateLinkResponse is the link creation response body.
type CreateLinkResponse struct {
	ID        string `json:"id"`
	ShortCode string `json:"short_code"`
	ShortURL  string `json:"short_url,omitempty"`
}

// SaveRefRequest is the save-reference request body.
type SaveRefRequest struct {
	LinkID string `json:"link_id"`
}

// SaveRefResponse is the save-reference response body.
type SaveRefResponse struct {
	ID        string `json:"id"`
	ShortCode string `json:"short_code"`
	ShortURL  string `json:"short_url,omitempty"`
}

// EarnedQubitsResponse is the earned-but-unspent response body.
type EarnedQubitsResponse struct {
	Total     int64            `json:"total"`
	ByCreator map[string]int64 `json:"by_creator"`
}

// CreateLink creates a short link
//
//	@Summary		Create a short link
//	@Description	Create a new shortened URL owned by the authenticated user
//	@Tags			Links
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		CreateLinkRequest	true	"Link creation request"
//	@Success		201		{object}	CreateLinkResponse	"Link created"
//	@Failure		400		{object}	ErrorResponse		"Invalid request data"
//	@Failure		409		{object}	ErrorResponse		"Short code already exists"
//	@Router			/api/shorten [post]
func (h *LinksHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid create link request", zap.Error(err))
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if req.OriginalURL == "" {
		writeError(w, "Original URL is required", http.StatusBadRequest)
		return
	}
	if !strings.HasPrefix(req.OriginalURL, "http://") && !strings.HasPrefix(req.OriginalURL, "https://") {
		writeError(w, "Original URL must start with http:// or https://", http.StatusBadRequest)
		return
	}

	link, err := h.links.Create(r.Context(), userID, req.OriginalURL, req.Title, req.CustomCode)
	if err != nil {
		if errors.Is(err, repository.ErrShortCodeExists) {
			writeError(w, "Short code already exists", http.StatusConflict)
			return
		}
		h.log.Error("failed to create link", zap.String("user_id", userID), zap.Error(err))
		writeError(w, "Failed to create link", http.StatusInternalServerError)
		return
	}

	writeJSON(w, CreateLinkResponse{
		ID:        link.ID,
		ShortCode: link.ShortCode,
		ShortURL:  h.shortURL(link.ShortCode),
	}, http.StatusCreated)
}

// Dashboard returns the merged link list
//
//	@Summary		List dashboard entries
//	@Description	Own links and saved references in one tagged list
//	@Tags			Links
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}		domain.DashboardEntry	"Dashboard entries"
//	@Failure		401	{object}	ErrorResponse			"Authentication required"
//	@Router			/api/links [get]
func (h *LinksHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	entries, err := h.links.Dashboard(r.Context(), userID)
	if err != nil {
		h.log.Error("failed to build dashboard", zap.String("user_id", userID), zap.Error(err))
		writeError(w, "Failed to list links", http.StatusInternalServerError)
		return
	}

	writeJSON(w, entries, http.StatusOK)
}

// DeleteLink archives a link
//
//	@Summary		Archive a link
//	@Description	Soft-delete an owned link and flag its saved references
//	@Tags			Links
//	@Produce		json
//	@Security		BearerAuth
//	@Param			code	path		string			true	"Short code"
//	@Success		200		{object}	map[string]bool	"Archived"
//	@Failure		404		{object}	ErrorResponse	"Link not found"
//	@Router			/api/links/{code} [delete]
func (h *LinksHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	shortCode := pathSegment(r.URL.Path, "/api/links/")
	if shortCode == "" {
		writeError(w, "Short code is required", http.StatusBadRequest)
		return
	}

	if err := h.links.Archive(r.Context(), userID, shortCode); err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			writeError(w, "Link not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to archive link", zap.String("short_code", shortCode), zap.Error(err))
		writeError(w, "Failed to delete link", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]bool{"success": true}, http.StatusOK)
}

// RestoreLink clears the soft-delete flag
//
//	@Summary		Restore an archived link
//	@Tags			Links
//	@Produce		json
//	@Security		BearerAuth
//	@Param			code	path		string			true	"Short code"
//	@Success		200		{object}	map[string]bool	"Restored"
//	@Failure		404		{object}	ErrorResponse	"Link not found"
//	@Router			/api/links/{code}/restore [post]
func (h *LinksHandler) RestoreLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	rest := pathSegment(r.URL.Path, "/api/links/")
	shortCode := strings.TrimSuffix(rest, "/restore")
	if shortCode == "" || shortCode == rest {
		writeError(w, "Short code is required", http.StatusBadRequest)
		return
	}

	if err := h.links.Restore(r.Context(), userID, shortCode); err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			writeError(w, "Link not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to restore link", zap.String("short_code", shortCode), zap.Error(err))
		writeError(w, "Failed to restore link", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]bool{"success": true}, http.StatusOK)
}

// SaveRef saves a creator's link to the dashboard
//
//	@Summary		Save a reference to another creator's link
//	@Tags			Refs
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		SaveRefRequest	true	"Reference request"
//	@Success		201		{object}	SaveRefResponse	"Reference saved"
//	@Failure		404		{object}	ErrorResponse	"Link not found"
//	@Failure		409		{object}	ErrorResponse	"Already saved"
//	@Router			/api/refs [post]
func (h *LinksHandler) SaveRef(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	var req SaveRefRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	if req.LinkID == "" {
		writeError(w, "Missing link_id", http.StatusBadRequest)
		return
	}

	ref, err := h.links.SaveRef(r.Context(), userID, req.LinkID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrLinkNotFound):
			writeError(w, "Link not found", http.StatusNotFound)
		case errors.Is(err, repository.ErrRefExists):
			writeError(w, "Link already saved", http.StatusConflict)
		default:
			h.log.Error("failed to save ref", zap.String("link_id", req.LinkID), zap.Error(err))
			writeError(w, "Failed to save reference", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, SaveRefResponse{
		ID:        ref.ID,
		ShortCode: ref.ShortCode,
		ShortURL:  h.shortURL(ref.ShortCode),
	}, http.StatusCreated)
}

// RemoveRef hides a saved reference
//
//	@Summary		Remove a saved reference from the dashboard
//	@Tags			Refs
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string			true	"Reference id"
//	@Success		200	{object}	map[string]bool	"Removed"
//	@Failure		404	{object}	ErrorResponse	"Reference not found"
//	@Router			/api/refs/{id} [delete]
func (h *LinksHandler) RemoveRef(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	refID := pathSegment(r.URL.Path, "/api/refs/")
	if refID == "" {
		writeError(w, "Reference id is required", http.StatusBadRequest)
		return
	}

	if err := h.links.RemoveRef(r.Context(), userID, refID); err != nil {
		if errors.Is(err, repository.ErrRefNotFound) {
			writeError(w, "Reference not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to remove ref", zap.String("ref_id", refID), zap.Error(err))
		writeError(w, "Failed to remove reference", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]bool{"success": true}, http.StatusOK)
}

// EarnedQubits reports the computed earned figure
//
//	@Summary		Earned qubits per creator
//	@Description	Sums saved-reference counters; distinct from the stored balance
//	@Tags			Qubits
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	EarnedQubitsResponse	"Earned qubits"
//	@Router			/api/qubits/earned [get]
func (h *LinksHandler) EarnedQubits(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	byCreator, total, err := h.links.EarnedQubits(r.Context(), userID)
	if err != nil {
		h.log.Error("failed to sum earned qubits", zap.String("user_id", userID), zap.Error(err))
		writeError(w, "Failed to compute earned qubits", http.StatusInternalServerError)
		return
	}

	if byCreator == nil {
		byCreator = map[string]int64{}
	}
	writeJSON(w, EarnedQubitsResponse{Total: total, ByCreator: byCreator}, http.StatusOK)
}

func (h *LinksHandler) shortURL(code string) string {
	if h.baseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(h.baseURL, "/"), code)
}

// pathSegment returns the remainder of path after prefix, without a trailing
// slash.
func pathSegment(path, prefix string) string {
	rest := strings.TrimPrefix(path, prefix)
	if rest == path {
		return ""
	}
	return strings.TrimSuffix(rest, "/")
}
