package service

import (
	"Supernova-Backend/internal/captcha"
	"Supernova-Backend/internal/config"
	"Supernova-Backend/internal/identity"
	"Supernova-Backend/internal/repository"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Decision is the abuse-policy outcome for a single click. These are expected
// control-flow values, not errors: the caller renders a different surface for
// each one.
type Decision int

const (
	DecisionAllow Decision = iota
	DecisionCooldown
	DecisionCaptchaRequired
	DecisionCaptchaInvalid
)

func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionCooldown:
		return "cooldown"
	case DecisionCaptchaRequired:
		return "captcha_required"
	case DecisionCaptchaInvalid:
		return "captcha_invalid"
	default:
		return "unknown"
	}
}

// Evaluation is the full result of an abuse check. RetryAfter and LastClick
// are set only for cooldown decisions; Suspicious survives into ALLOW results
// so the response can report that a CAPTCHA was solved.
type Evaluation struct {
	Decision   Decision
	Suspicious bool
	RetryAfter time.Duration
	LastClick  time.Time
}

// AbuseGuard enforces the per-link cooldown and the global rate limit, and
// escalates suspicious traffic to CAPTCHA verification.
type AbuseGuard struct {
	storage  repository.Storage
	verifier captcha.Verifier
	cfg      *config.Abuse
	log      *zap.Logger
	now      func() time.Time
}

// NewAbuseGuard creates a new abuse guard.
func NewAbuseGuard(storage repository.Storage, verifier captcha.Verifier, cfg *config.Abuse, log *zap.Logger) *AbuseGuard {
	return &AbuseGuard{
		storage:  storage,
		verifier: verifier,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// Evaluate runs the checks in fixed order: cooldown first, then the global
// rate limit, then CAPTCHA escalation. A request inside its cooldown is
// rejected even when it would otherwise be non-suspicious. Storage failures
// propagate: the guard sits on the critical path and cannot guess.
func (g *AbuseGuard) Evaluate(ctx context.Context, linkID string, id identity.Identity, captchaToken string) (*Evaluation, error) {
	now := g.now()

	// 1. Per-link cooldown. A first click from this identity is always free.
	last, err := g.storage.LastClick(ctx, linkID, id.UserID, id.IP)
	if err != nil {
		return nil, fmt.Errorf("cooldown lookup failed: %w", err)
	}
	if last != nil {
		elapsed := now.Sub(last.ClickedAt)
		if elapsed < g.cfg.CooldownWindow() {
			remaining := g.cfg.CooldownWindow() - elapsed
			g.log.Debug("click rejected by cooldown",
				zap.String("link_id", linkID),
				zap.String("identity", id.Key()),
				zap.Duration("remaining", remaining))
			return &Evaluation{
				Decision:   DecisionCooldown,
				RetryAfter: remaining,
				LastClick:  last.ClickedAt,
			}, nil
		}
	}

	// 2. Global rate limit across all links, keyed by IP.
	since := now.Add(-g.cfg.RateLimitWindow())
	recent, err := g.storage.CountClicksSince(ctx, id.IP, since)
	if err != nil {
		return nil, fmt.Errorf("rate limit lookup failed: %w", err)
	}
	suspicious := recent >= int64(g.cfg.RateLimitClicks)

	// 3. CAPTCHA escalation for suspicious traffic.
	if suspicious {
		if captchaToken == "" {
			g.log.Info("captcha challenge issued",
				zap.String("link_id", linkID),
				zap.String("ip", id.IP),
				zap.Int64("recent_clicks", recent))
			return &Evaluation{Decision: DecisionCaptchaRequired, Suspicious: true}, nil
		}

		valid, err := g.verifier.Verify(ctx, captchaToken)
		if err != nil || !valid {
			// Fail closed: an unreachable verifier blocks suspicious traffic.
			if err != nil {
				g.log.Warn("captcha verification errored, treating as invalid",
					zap.String("ip", id.IP), zap.Error(err))
			}
			return &Evaluation{Decision: DecisionCaptchaInvalid, Suspicious: true}, nil
		}
	}

	return &Evaluation{Decision: DecisionAllow, Suspicious: suspicious}, nil
}
