package http

import (
	"Supernova-Backend/internal/auth"
	"Supernova-Backend/internal/repository"
	"Supernova-Backend/internal/service"
	"net/http"
	"strings"

	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// Server wires the HTTP handlers to routes.
type Server struct {
	authHandlers    *auth.AuthHandlers
	linksHandler    *LinksHandler
	clickHandler    *ClickHandler
	redirectHandler *RedirectHandler
	rewardsHandler  *RewardsHandler
	followsHandler  *FollowsHandler
	healthHandler   *HealthHandler
	authMiddleware  *auth.Middleware
	rateLimiter     *RateLimiter
	log             *zap.Logger
}

// NewServer creates a new HTTP server.
func NewServer(
	storage repository.Storage,
	linkService *service.LinkService,
	clickService *service.ClickService,
	redirectService *service.RedirectService,
	rewardService *service.RewardService,
	jwtService *auth.JWTService,
	passwordService *auth.PasswordService,
	cooldownMinutes int,
	log *zap.Logger,
	baseURL string,
) *Server {
	return &Server{
		authHandlers:    auth.NewAuthHandlers(storage, jwtService, passwordService, log),
		linksHandler:    NewLinksHandler(linkService, log, baseURL),
		clickHandler:    NewClickHandler(clickService, cooldownMinutes, log),
		redirectHandler: NewRedirectHandler(redirectService, cooldownMinutes, log),
		rewardsHandler:  NewRewardsHandler(rewardService, log),
		followsHandler:  NewFollowsHandler(storage, log),
		healthHandler:   NewHealthHandler(storage, log),
		authMiddleware:  auth.NewMiddleware(jwtService, log),
		rateLimiter:     NewRateLimiter(20, 40, log),
		log:             log,
	}
}

// Close releases the server's background resources.
func (s *Server) Close() {
	s.rateLimiter.Stop()
}

// SetupRoutes builds the route table.
func (s *Server) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Probes, no auth.
	mux.HandleFunc("/health", s.healthHandler.Health)
	mux.HandleFunc("/ready", s.healthHandler.Ready)

	// Swagger docs.
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// Auth endpoints, no auth.
	mux.HandleFunc("/api/auth/register", s.withCORS(s.authHandlers.Register))
	mux.HandleFunc("/api/auth/login", s.withCORS(s.authHandlers.Login))

	// Click tracking: public, but an attached session wins over the
	// self-reported user id. Edge rate limited.
	mux.HandleFunc("/api/click", s.withCORS(s.rateLimiter.Limit(s.authMiddleware.OptionalAuth(s.clickHandler.Track))))

	// Authenticated API.
	mux.HandleFunc("/api/shorten", s.withCORS(s.authMiddleware.RequireAuth(s.linksHandler.CreateLink)))
	mux.HandleFunc("/api/links", s.withCORS(s.authMiddleware.RequireAuth(s.linksHandler.Dashboard)))
	mux.HandleFunc("/api/links/", s.withCORS(s.authMiddleware.RequireAuth(s.handleLinksAPI)))
	mux.HandleFunc("/api/refs", s.withCORS(s.authMiddleware.RequireAuth(s.linksHandler.SaveRef)))
	mux.HandleFunc("/api/refs/", s.withCORS(s.authMiddleware.RequireAuth(s.handleRefsAPI)))
	mux.HandleFunc("/api/qubits/earned", s.withCORS(s.authMiddleware.RequireAuth(s.linksHandler.EarnedQubits)))

	// Rewards: listing is public, creation and claiming require auth.
	mux.HandleFunc("/api/rewards", s.withCORS(s.handleRewardsAPI))
	mux.HandleFunc("/api/rewards/", s.withCORS(s.authMiddleware.RequireAuth(s.rewardsHandler.Claim)))

	mux.HandleFunc("/api/follows/", s.withCORS(s.authMiddleware.RequireAuth(s.followsHandler.Handle)))

	// Redirect catch-all, must come last.
	mux.HandleFunc("/", s.rateLimiter.Limit(s.authMiddleware.OptionalAuth(s.redirectHandler.HandleRedirect)))

	return mux
}

// handleLinksAPI dispatches /api/links/{code} and /api/links/{code}/restore.
func (s *Server) handleLinksAPI(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodDelete:
		s.linksHandler.DeleteLink(w, r)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/restore"):
		s.linksHandler.RestoreLink(w, r)
	default:
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleRefsAPI dispatches /api/refs/{id}.
func (s *Server) handleRefsAPI(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodDelete:
		s.linksHandler.RemoveRef(w, r)
	default:
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleRewardsAPI dispatches /api/rewards by method.
func (s *Server) handleRewardsAPI(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.rewardsHandler.List(w, r)
	case http.MethodPost:
		s.authMiddleware.RequireAuth(s.rewardsHandler.Create)(w, r)
	default:
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) withCORS(handler http.HandlerFunc) http.HandlerFunc {
	return s.authMiddleware.CORS(handler)
}

func isSystemPath(path string) bool {
	systemPaths := []string{
		"/api/",
		"/health",
		"/ready",
		"/swagger/",
		"/login",
	}

	for _, systemPath := range systemPaths {
		if strings.HasPrefix(path, systemPath) {
			return true
		}
	}

	return false
}
