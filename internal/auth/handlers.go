package auth

import (
	"Supernova-Backend/internal/domain"
	"Supernova-Backend/internal/repository"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthHandlers serves registration and login.
type AuthHandlers struct {
	storage         repository.Storage
	jwtService      *JWTService
	passwordService *PasswordService
	log             *zap.Logger
}

// NewAuthHandlers creates new authentication handlers.
func NewAuthHandlers(storage repository.Storage, jwtService *JWTService, passwordService *PasswordService, log *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		storage:         storage,
		jwtService:      jwtService,
		passwordService: passwordService,
		log:             log,
	}
}

// RegisterRequest is the registration request body.
type RegisterRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	IsCreator bool   `json:"is_creator"`
}

// LoginRequest is the login request body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse carries the token pair and profile info.
type AuthResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         ProfileInfo `json:"user"`
}

// ProfileInfo is the public view of a profile.
type ProfileInfo struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	IsCreator bool   `json:"is_creator"`
	Qubits    int64  `json:"qubits"`
}

// ErrorResponse is the error body shape.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Register creates a new profile
//
//	@Summary		Register a new user
//	@Description	Create a new profile account
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RegisterRequest	true	"Registration request"
//	@Success		201		{object}	AuthResponse		"User registered successfully"
//	@Failure		400		{object}	ErrorResponse		"Invalid request data"
//	@Failure		409		{object}	ErrorResponse		"Username already taken"
//	@Router			/api/auth/register [post]
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid registration request", zap.Error(err))
		h.writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if !isValidUsername(req.Username) {
		h.writeError(w, "Invalid username", http.StatusBadRequest)
		return
	}

	if err := IsValidPassword(req.Password); err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	hashedPassword, err := h.passwordService.HashPassword(req.Password)
	if err != nil {
		h.log.Error("failed to hash password", zap.Error(err))
		h.writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	profile := &domain.Profile{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: hashedPassword,
		IsCreator:    req.IsCreator,
	}

	if err := h.storage.CreateProfile(r.Context(), profile); err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			h.writeError(w, "Username already taken", http.StatusConflict)
			return
		}
		h.log.Error("failed to create profile", zap.String("username", req.Username), zap.Error(err))
		h.writeError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	h.log.Info("user registered", zap.String("user_id", profile.ID), zap.String("username", req.Username))
	h.respondWithTokens(w, profile, http.StatusCreated)
}

// Login authenticates a profile
//
//	@Summary		Login user
//	@Description	Authenticate and receive JWT tokens
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			request	body		LoginRequest	true	"Login request"
//	@Success		200		{object}	AuthResponse	"Login successful"
//	@Failure		400		{object}	ErrorResponse	"Invalid request data"
//	@Failure		401		{object}	ErrorResponse	"Invalid credentials"
//	@Router			/api/auth/login [post]
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid login request", zap.Error(err))
		h.writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	req.Username = strings.ToLower(strings.TrimSpace(req.Username))

	profile, err := h.storage.GetProfileByUsername(r.Context(), req.Username)
	if err != nil {
		h.log.Debug("profile not found for login", zap.String("username", req.Username))
		h.writeError(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	if err := h.passwordService.VerifyPassword(profile.PasswordHash, req.Password); err != nil {
		h.log.Debug("invalid password", zap.String("username", req.Username))
		h.writeError(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	h.log.Info("user logged in", zap.String("user_id", profile.ID), zap.String("username", req.Username))
	h.respondWithTokens(w, profile, http.StatusOK)
}

func (h *AuthHandlers) respondWithTokens(w http.ResponseWriter, profile *domain.Profile, statusCode int) {
	accessToken, err := h.jwtService.GenerateAccessToken(profile.ID, profile.Username)
	if err != nil {
		h.log.Error("failed to generate access token", zap.Error(err))
		h.writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(profile.ID, profile.Username)
	if err != nil {
		h.log.Error("failed to generate refresh token", zap.Error(err))
		h.writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: ProfileInfo{
			ID:        profile.ID,
			Username:  profile.Username,
			IsCreator: profile.IsCreator,
			Qubits:    profile.Qubits,
		},
	}, statusCode)
}

func (h *AuthHandlers) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *AuthHandlers) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

func isValidUsername(username string) bool {
	if len(username) < 3 || len(username) > 32 {
		return false
	}
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-' || r == '.':
		default:
			return false
		}
	}
	return true
}
