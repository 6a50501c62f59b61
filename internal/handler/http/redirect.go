package http

import (
	"Supernova-Backend/internal/auth"
	"Supernova-Backend/internal/identity"
	"Supernova-Backend/internal/service"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RedirectHandler resolves short codes and issues the redirect.
type RedirectHandler struct {
	redirects       *service.RedirectService
	cooldownMinutes int
	log             *zap.Logger
}

// NewRedirectHandler creates a new redirect handler.
func NewRedirectHandler(redirects *service.RedirectService, cooldownMinutes int, log *zap.Logger) *RedirectHandler {
	return &RedirectHandler{
		redirects:       redirects,
		cooldownMinutes: cooldownMinutes,
		log:             log,
	}
}

// HandleRedirect resolves the short code in the path and redirects, or
// renders the abuse-policy rejection as JSON.
func (h *RedirectHandler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	shortCode := strings.TrimPrefix(r.URL.Path, "/")
	if shortCode == "" || isSystemPath(r.URL.Path) {
		http.NotFound(w, r)
		return
	}

	userID, _ := auth.GetUserIDFromContext(r.Context())
	id := identity.Resolve(r, userID)
	captchaToken := r.URL.Query().Get("captcha_token")

	result, err := h.redirects.Resolve(r.Context(), shortCode, id, r.UserAgent(), captchaToken)
	if err != nil {
		h.log.Error("redirect failed", zap.String("short_code", shortCode), zap.Error(err))
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	switch result.Outcome {
	case service.OutcomeNotFound:
		http.NotFound(w, r)
	case service.OutcomeDeleted:
		// Archived links send visitors to the login page instead of a 404.
		http.Redirect(w, r, "/login", http.StatusFound)
	case service.OutcomeCooldown:
		writeJSON(w, CooldownResponse{
			Error: "Cooldown active for this link.",
			CooldownDebug: &CooldownDebug{
				Now:             time.Now(),
				LastClick:       result.Evaluation.LastClick,
				CooldownMinutes: h.cooldownMinutes,
			},
		}, http.StatusTooManyRequests)
	case service.OutcomeCaptchaRequired:
		writeJSON(w, CaptchaResponse{
			CaptchaRequired: true,
			Error:           "Too many clicks. Please complete the CAPTCHA.",
		}, http.StatusForbidden)
	case service.OutcomeCaptchaInvalid:
		writeError(w, "Invalid CAPTCHA.", http.StatusForbidden)
	case service.OutcomeRedirect:
		h.log.Info("redirect",
			zap.String("short_code", shortCode),
			zap.String("target", result.TargetURL),
			zap.String("identity", id.Key()))
		http.Redirect(w, r, result.TargetURL, http.StatusFound)
	}
}
