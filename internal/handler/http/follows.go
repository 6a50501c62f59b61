package http

import (
	"Supernova-Backend/internal/auth"
	"Supernova-Backend/internal/repository"
	"net/http"

	"go.uber.org/zap"
)

// FollowsHandler manages follower relationships.
type FollowsHandler struct {
	storage repository.Storage
	log     *zap.Logger
}

// NewFollowsHandler creates a new follows handler.
func NewFollowsHandler(storage repository.Storage, log *zap.Logger) *FollowsHandler {
	return &FollowsHandler{storage: storage, log: log}
}

// Handle dispatches /api/follows/{creator_id} by method.
func (h *FollowsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	creatorID := pathSegment(r.URL.Path, "/api/follows/")
	if creatorID == "" {
		writeError(w, "Creator id is required", http.StatusBadRequest)
		return
	}
	if creatorID == userID {
		writeError(w, "Cannot follow yourself", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodPost:
		if err := h.storage.Follow(r.Context(), userID, creatorID); err != nil {
			h.log.Error("failed to follow", zap.String("creator_id", creatorID), zap.Error(err))
			writeError(w, "Failed to follow", http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]bool{"following": true}, http.StatusOK)
	case http.MethodDelete:
		if err := h.storage.Unfollow(r.Context(), userID, creatorID); err != nil {
			h.log.Error("failed to unfollow", zap.String("creator_id", creatorID), zap.Error(err))
			writeError(w, "Failed to unfollow", http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]bool{"following": false}, http.StatusOK)
	case http.MethodGet:
		following, err := h.storage.IsFollowing(r.Context(), userID, creatorID)
		if err != nil {
			h.log.Error("failed to check follow", zap.String("creator_id", creatorID), zap.Error(err))
			writeError(w, "Failed to check follow", http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]bool{"following": following}, http.StatusOK)
	default:
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
