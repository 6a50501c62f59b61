package http

import (
	"Supernova-Backend/internal/auth"
	"Supernova-Backend/internal/identity"
	"Supernova-Backend/internal/repository"
	"Supernova-Backend/internal/service"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ClickHandler serves the inbound click endpoint used by the frontend and by
// the client-side CAPTCHA retry flow.
type ClickHandler struct {
	clicks          *service.ClickService
	cooldownMinutes int
	log             *zap.Logger
}

// NewClickHandler creates a new click handler.
func NewClickHandler(clicks *service.ClickService, cooldownMinutes int, log *zap.Logger) *ClickHandler {
	return &ClickHandler{
		clicks:          clicks,
		cooldownMinutes: cooldownMinutes,
		log:             log,
	}
}

// ClickRequest is the click tracking request body.
type ClickRequest struct {
	LinkID       string `json:"link_id"`
	UserID       string `json:"user_id,omitempty"`
	CaptchaToken string `json:"captcha_token,omitempty"`
	Referrer     string `json:"referrer,omitempty"`
}

// ClickResponse is the accepted-click response body.
type ClickResponse struct {
	Success    bool `json:"success"`
	Suspicious bool `json:"suspicious"`
}

// CaptchaResponse is the CAPTCHA challenge response body.
type CaptchaResponse struct {
	CaptchaRequired bool   `json:"captcha_required"`
	Error           string `json:"error"`
}

// CooldownDebug echoes the timestamps behind a cooldown rejection.
type CooldownDebug struct {
	Now             time.Time `json:"now"`
	LastClick       time.Time `json:"lastClick"`
	CooldownMinutes int       `json:"cooldown"`
}

// CooldownResponse is the cooldown rejection body.
type CooldownResponse struct {
	Error         string         `json:"error"`
	CooldownDebug *CooldownDebug `json:"cooldown_debug,omitempty"`
}

// Track records a click
//
//	@Summary		Track a click on a short link
//	@Description	Run the abuse checks, record the click and queue attribution
//	@Tags			Clicks
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ClickRequest	true	"Click request"
//	@Success		200		{object}	ClickResponse	"Click recorded"
//	@Failure		400		{object}	ErrorResponse	"Missing link_id"
//	@Failure		403		{object}	CaptchaResponse	"CAPTCHA required or invalid"
//	@Failure		404		{object}	ErrorResponse	"Link not found"
//	@Failure		429		{object}	CooldownResponse	"Cooldown active"
//	@Router			/api/click [post]
func (h *ClickHandler) Track(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ClickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if req.LinkID == "" {
		writeError(w, "Missing link_id", http.StatusBadRequest)
		return
	}

	// A validated session wins over the self-reported user_id field.
	userID := req.UserID
	if ctxUserID, ok := auth.GetUserIDFromContext(r.Context()); ok {
		userID = ctxUserID
	}

	id := identity.Resolve(r, userID)
	if req.Referrer != "" {
		id.ReferrerUserID = req.Referrer
	}

	result, err := h.clicks.Track(r.Context(), req.LinkID, id, r.UserAgent(), req.CaptchaToken)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			writeError(w, "Link not found", http.StatusNotFound)
			return
		}
		h.log.Error("click tracking failed", zap.String("link_id", req.LinkID), zap.Error(err))
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	switch result.Evaluation.Decision {
	case service.DecisionCooldown:
		writeJSON(w, CooldownResponse{
			Error: "Cooldown active for this link.",
			CooldownDebug: &CooldownDebug{
				Now:             time.Now(),
				LastClick:       result.Evaluation.LastClick,
				CooldownMinutes: h.cooldownMinutes,
			},
		}, http.StatusTooManyRequests)
	case service.DecisionCaptchaRequired:
		writeJSON(w, CaptchaResponse{
			CaptchaRequired: true,
			Error:           "Too many clicks. Please complete the CAPTCHA.",
		}, http.StatusForbidden)
	case service.DecisionCaptchaInvalid:
		writeError(w, "Invalid CAPTCHA.", http.StatusForbidden)
	default:
		writeJSON(w, ClickResponse{Success: true, Suspicious: result.Evaluation.Suspicious}, http.StatusOK)
	}
}
