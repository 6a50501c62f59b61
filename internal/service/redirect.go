package service

import (
	"Supernova-Backend/internal/identity"
	"Supernova-Backend/internal/repository"
	"context"
	"errors"

	"go.uber.org/zap"
)

// Outcome is the terminal state of one redirect request.
type Outcome int

const (
	OutcomeRedirect Outcome = iota
	OutcomeNotFound
	OutcomeDeleted
	OutcomeCooldown
	OutcomeCaptchaRequired
	OutcomeCaptchaInvalid
)

// RedirectResult is the orchestrator's answer for a short code. TargetURL is
// set only for OutcomeRedirect; Evaluation is set for every outcome that went
// through the abuse guard.
type RedirectResult struct {
	Outcome    Outcome
	TargetURL  string
	Evaluation *Evaluation
}

// RedirectService is the entry point tying short-code resolution, the abuse
// guard, the click ledger and attribution together for a single request.
type RedirectService struct {
	storage repository.Storage
	clicks  *ClickService
	log     *zap.Logger
}

// NewRedirectService creates a new redirect orchestrator.
func NewRedirectService(storage repository.Storage, clicks *ClickService, log *zap.Logger) *RedirectService {
	return &RedirectService{
		storage: storage,
		clicks:  clicks,
		log:     log,
	}
}

// Resolve walks the per-request state machine. Unknown short codes and
// soft-deleted links terminate before the abuse guard runs, so no ledger row
// or attribution ever exists for them. Deleted links do not redirect to
// their target; the handler sends those users to the login page instead.
func (s *RedirectService) Resolve(ctx context.Context, shortCode string, id identity.Identity, userAgent, captchaToken string) (*RedirectResult, error) {
	link, err := s.storage.GetLink(ctx, shortCode)
	if errors.Is(err, repository.ErrLinkNotFound) {
		s.log.Debug("short code not found", zap.String("short_code", shortCode))
		return &RedirectResult{Outcome: OutcomeNotFound}, nil
	}
	if err != nil {
		return nil, err
	}

	if link.Deleted {
		s.log.Debug("short code resolves to deleted link", zap.String("short_code", shortCode))
		return &RedirectResult{Outcome: OutcomeDeleted}, nil
	}

	res, err := s.clicks.trackLink(ctx, link, id, userAgent, captchaToken)
	if err != nil {
		return nil, err
	}

	result := &RedirectResult{Evaluation: res.Evaluation}
	switch res.Evaluation.Decision {
	case DecisionCooldown:
		result.Outcome = OutcomeCooldown
	case DecisionCaptchaRequired:
		result.Outcome = OutcomeCaptchaRequired
	case DecisionCaptchaInvalid:
		result.Outcome = OutcomeCaptchaInvalid
	default:
		result.Outcome = OutcomeRedirect
		result.TargetURL = link.OriginalURL
	}

	return result, nil
}
