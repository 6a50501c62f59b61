package service

import (
	"Supernova-Backend/internal/attribution"
	"Supernova-Backend/internal/domain"
	"Supernova-Backend/internal/identity"
	"Supernova-Backend/internal/repository"
	"Supernova-Backend/pkg/useragent"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// AttributionSubmitter queues attribution work without blocking the click.
type AttributionSubmitter interface {
	Submit(job *attribution.Job) error
}

// ClickResult carries the abuse evaluation and the resolved link for one
// tracked click. The evaluation decides which surface the handler renders.
type ClickResult struct {
	Link       *domain.Link
	Evaluation *Evaluation
}

// Accepted reports whether the click passed the abuse guard and was recorded.
func (r *ClickResult) Accepted() bool {
	return r.Evaluation.Decision == DecisionAllow
}

// ClickService accepts clicks: it runs the abuse guard, durably appends the
// ledger entry with the counter increment, and hands attribution off to the
// async propagator.
type ClickService struct {
	storage    repository.Storage
	guard      *AbuseGuard
	propagator AttributionSubmitter
	log        *zap.Logger
	now        func() time.Time
}

// NewClickService creates a new click service.
func NewClickService(storage repository.Storage, guard *AbuseGuard, propagator AttributionSubmitter, log *zap.Logger) *ClickService {
	return &ClickService{
		storage:    storage,
		guard:      guard,
		propagator: propagator,
		log:        log,
		now:        time.Now,
	}
}

// Track processes a click addressed by link id (the JSON API path).
func (s *ClickService) Track(ctx context.Context, linkID string, id identity.Identity, userAgent, captchaToken string) (*ClickResult, error) {
	link, err := s.storage.GetLinkByID(ctx, linkID)
	if err != nil {
		return nil, err
	}

	return s.trackLink(ctx, link, id, userAgent, captchaToken)
}

// trackLink runs the pipeline against an already-resolved link. The ledger
// write is the record of truth, so its failure fails the whole request;
// attribution submission failures are logged and swallowed.
func (s *ClickService) trackLink(ctx context.Context, link *domain.Link, id identity.Identity, userAgent, captchaToken string) (*ClickResult, error) {
	eval, err := s.guard.Evaluate(ctx, link.ID, id, captchaToken)
	if err != nil {
		return nil, fmt.Errorf("abuse evaluation failed: %w", err)
	}

	result := &ClickResult{Link: link, Evaluation: eval}
	if eval.Decision != DecisionAllow {
		return result, nil
	}

	click := &domain.LinkClick{
		LinkID:    link.ID,
		IPAddress: &id.IP,
		ClickedAt: s.now(),
	}
	if id.UserID != "" {
		click.UserID = &id.UserID
	}
	if id.ReferrerUserID != "" {
		click.Referrer = &id.ReferrerUserID
	}
	if userAgent != "" {
		click.UserAgent = &userAgent
		deviceType := detectDevice(userAgent)
		click.DeviceType = &deviceType
	}

	if err := s.storage.RecordClick(ctx, click); err != nil {
		return nil, fmt.Errorf("failed to record click: %w", err)
	}

	if err := s.propagator.Submit(&attribution.Job{
		LinkID:         link.ID,
		ReferrerUserID: id.ReferrerUserID,
	}); err != nil {
		// Best-effort side channel: the click stands even when attribution
		// cannot be queued.
		s.log.Warn("failed to submit attribution job",
			zap.String("link_id", link.ID), zap.Error(err))
	}

	s.log.Info("recorded click",
		zap.String("link_id", link.ID),
		zap.String("identity", id.Key()),
		zap.Bool("suspicious", eval.Suspicious))

	return result, nil
}

func detectDevice(userAgent string) string {
	if parser := useragent.GetGlobalParser(); parser != nil {
		return parser.ParseUserAgent(userAgent).DeviceType
	}
	return useragent.DetectDeviceType(userAgent)
}
