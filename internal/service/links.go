package service

import (
	"Supernova-Backend/internal/config"
	"Supernova-Backend/internal/domain"
	"Supernova-Backend/internal/repository"
	"Supernova-Backend/pkg/random"
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxCodeRetries = 5

// LinkService covers link creation, the merged dashboard view, soft deletion
// and saved references.
type LinkService struct {
	storage repository.Storage
	cfg     *config.URLShortener
	log     *zap.Logger
}

// NewLinkService creates a new link service.
func NewLinkService(storage repository.Storage, cfg *config.URLShortener, log *zap.Logger) *LinkService {
	return &LinkService{
		storage: storage,
		cfg:     cfg,
		log:     log,
	}
}

// Create saves a new link for a user. The creator id is stamped from the
// owner at creation time and never changes afterwards. A custom code is used
// as-is when free; otherwise codes are generated with a bounded retry against
// collisions.
func (s *LinkService) Create(ctx context.Context, userID, originalURL, title, customCode string) (*domain.Link, error) {
	var shortCode string
	if customCode != "" {
		exists, err := s.storage.ShortCodeExists(ctx, customCode)
		if err != nil {
			return nil, fmt.Errorf("failed to check custom code: %w", err)
		}
		if exists {
			return nil, repository.ErrShortCodeExists
		}
		shortCode = customCode
	} else {
		for i := 0; i < maxCodeRetries; i++ {
			code, err := random.NewRandomString(s.cfg.CodeLength)
			if err != nil {
				return nil, fmt.Errorf("failed to generate short code: %w", err)
			}
			exists, err := s.storage.ShortCodeExists(ctx, code)
			if err != nil {
				return nil, fmt.Errorf("failed to check short code: %w", err)
			}
			if !exists {
				shortCode = code
				break
			}
		}
		if shortCode == "" {
			return nil, fmt.Errorf("failed to find a free short code after %d attempts", maxCodeRetries)
		}
	}

	link := &domain.Link{
		ID:          uuid.NewString(),
		UserID:      userID,
		CreatorID:   userID,
		ShortCode:   shortCode,
		OriginalURL: originalURL,
	}
	if title != "" {
		link.PageTitle = &title
	}

	if err := s.storage.SaveLink(ctx, link); err != nil {
		return nil, err
	}

	return link, nil
}

// Dashboard merges the user's own links and saved references into one list of
// tagged entries, originals first.
func (s *LinkService) Dashboard(ctx context.Context, userID string) ([]domain.DashboardEntry, error) {
	links, err := s.storage.ListUserLinks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	refs, err := s.storage.ListUserRefs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list refs: %w", err)
	}

	entries := make([]domain.DashboardEntry, 0, len(links)+len(refs))
	for _, link := range links {
		entries = append(entries, domain.DashboardEntryFromLink(link))
	}
	for _, ref := range refs {
		entries = append(entries, domain.DashboardEntryFromRef(ref))
	}

	return entries, nil
}

// Archive soft-deletes a user's link and flags every saved reference to it as
// removed by the creator. Counters are never touched.
func (s *LinkService) Archive(ctx context.Context, userID, shortCode string) error {
	link, err := s.storage.GetLink(ctx, shortCode)
	if err != nil {
		return err
	}
	if link.UserID != userID {
		return repository.ErrLinkNotFound
	}

	if err := s.storage.SetLinkDeleted(ctx, shortCode, true); err != nil {
		return err
	}
	if err := s.storage.MarkRefsRemovedByCreator(ctx, link.ID, true); err != nil {
		// The link is archived either way; reference flags catch up on restore.
		s.log.Warn("failed to flag refs for archived link",
			zap.String("link_id", link.ID), zap.Error(err))
	}

	s.log.Info("archived link", zap.String("short_code", shortCode), zap.String("user_id", userID))
	return nil
}

// Restore clears the soft-delete flag and re-enables saved references.
func (s *LinkService) Restore(ctx context.Context, userID, shortCode string) error {
	link, err := s.storage.GetLink(ctx, shortCode)
	if err != nil {
		return err
	}
	if link.UserID != userID {
		return repository.ErrLinkNotFound
	}

	if err := s.storage.SetLinkDeleted(ctx, shortCode, false); err != nil {
		return err
	}
	if err := s.storage.MarkRefsRemovedByCreator(ctx, link.ID, false); err != nil {
		s.log.Warn("failed to restore ref flags",
			zap.String("link_id", link.ID), zap.Error(err))
	}

	s.log.Info("restored link", zap.String("short_code", shortCode), zap.String("user_id", userID))
	return nil
}

// SaveRef explicitly adds another creator's link to the user's dashboard.
func (s *LinkService) SaveRef(ctx context.Context, userID, linkID string) (*domain.LinkRef, error) {
	link, err := s.storage.GetLinkByID(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if link.UserID == userID {
		return nil, fmt.Errorf("cannot save a reference to your own link")
	}

	code, err := random.NewRandomString(s.cfg.CodeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate short code: %w", err)
	}

	ref := &domain.LinkRef{
		ID:              uuid.NewString(),
		UserID:          userID,
		OriginalLinkID:  link.ID,
		OriginalURL:     link.OriginalURL,
		ShortCode:       code,
		UTMParam:        userID,
		PageTitle:       link.PageTitle,
		PageDescription: link.PageDescription,
		PageImage:       link.PageImage,
		PageFavicon:     link.PageFavicon,
	}

	if err := s.storage.CreateLinkRef(ctx, ref); err != nil {
		return nil, err
	}

	s.log.Info("saved link ref", zap.String("ref_id", ref.ID), zap.String("user_id", userID))
	return ref, nil
}

// RemoveRef hides a saved reference from the user's dashboard.
func (s *LinkService) RemoveRef(ctx context.Context, userID, refID string) error {
	return s.storage.SetRefRemovedByUser(ctx, refID, userID, true)
}

// EarnedQubits computes the user's earned-but-unspent figure by summing their
// reference counters per original creator. This is intentionally distinct
// from the stored profile balance, which only reward claims mutate.
func (s *LinkService) EarnedQubits(ctx context.Context, userID string) (map[string]int64, int64, error) {
	byCreator, err := s.storage.SumRefClicks(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	for _, n := range byCreator {
		total += n
	}

	return byCreator, total, nil
}
