package http

import (
	"Supernova-Backend/internal/auth"
	"Supernova-Backend/internal/repository"
	"Supernova-Backend/internal/service"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// RewardsHandler serves reward publishing and claiming.
type RewardsHandler struct {
	rewards *service.RewardService
	log     *zap.Logger
}

// NewRewardsHandler creates a new rewards handler.
func NewRewardsHandler(rewards *service.RewardService, log *zap.Logger) *RewardsHandler {
	return &RewardsHandler{rewards: rewards, log: log}
}

// CreateRewardRequest is the reward creation request body.
type CreateRewardRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	QubitCost   int64  `json:"qubit_cost"`
}

// Create publishes a reward
//
//	@Summary		Create a reward
//	@Tags			Rewards
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		CreateRewardRequest	true	"Reward request"
//	@Success		201		{object}	domain.Reward		"Reward created"
//	@Failure		400		{object}	ErrorResponse		"Invalid request data"
//	@Router			/api/rewards [post]
func (h *RewardsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	var req CreateRewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		writeError(w, "Title is required", http.StatusBadRequest)
		return
	}
	if req.QubitCost <= 0 {
		writeError(w, "Qubit cost must be positive", http.StatusBadRequest)
		return
	}

	reward, err := h.rewards.Create(r.Context(), userID, req.Title, req.Description, req.QubitCost)
	if err != nil {
		h.log.Error("failed to create reward", zap.String("creator_id", userID), zap.Error(err))
		writeError(w, "Failed to create reward", http.StatusInternalServerError)
		return
	}

	writeJSON(w, reward, http.StatusCreated)
}

// List returns a creator's rewards
//
//	@Summary		List a creator's rewards
//	@Tags			Rewards
//	@Produce		json
//	@Param			creator_id	query		string			true	"Creator id"
//	@Success		200			{array}		domain.Reward	"Rewards"
//	@Failure		400			{object}	ErrorResponse	"Missing creator_id"
//	@Router			/api/rewards [get]
func (h *RewardsHandler) List(w http.ResponseWriter, r *http.Request) {
	creatorID := r.URL.Query().Get("creator_id")
	if creatorID == "" {
		writeError(w, "Missing creator_id", http.StatusBadRequest)
		return
	}

	rewards, err := h.rewards.List(r.Context(), creatorID, true)
	if err != nil {
		h.log.Error("failed to list rewards", zap.String("creator_id", creatorID), zap.Error(err))
		writeError(w, "Failed to list rewards", http.StatusInternalServerError)
		return
	}

	writeJSON(w, rewards, http.StatusOK)
}

// Claim spends qubits on a reward
//
//	@Summary		Claim a reward
//	@Description	Deducts the reward cost from the user's qubit balance
//	@Tags			Rewards
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string			true	"Reward id"
//	@Success		200	{object}	domain.Reward	"Reward claimed"
//	@Failure		402	{object}	ErrorResponse	"Insufficient qubits"
//	@Failure		404	{object}	ErrorResponse	"Reward not found"
//	@Router			/api/rewards/{id}/claim [post]
func (h *RewardsHandler) Claim(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	rest := pathSegment(r.URL.Path, "/api/rewards/")
	rewardID := strings.TrimSuffix(rest, "/claim")
	if rewardID == "" || rewardID == rest {
		writeError(w, "Reward id is required", http.StatusBadRequest)
		return
	}

	reward, err := h.rewards.Claim(r.Context(), userID, rewardID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRewardNotFound):
			writeError(w, "Reward not found", http.StatusNotFound)
		case errors.Is(err, repository.ErrInsufficientQubits):
			writeError(w, "Insufficient qubits", http.StatusPaymentRequired)
		default:
			h.log.Error("failed to claim reward", zap.String("reward_id", rewardID), zap.Error(err))
			writeError(w, "Failed to claim reward", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, reward, http.StatusOK)
}
