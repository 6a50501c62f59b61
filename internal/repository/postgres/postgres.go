package postgres

import (
	"Supernova-Backend/internal/domain"
	"Supernova-Backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PostgresStorage implements the Storage interface for PostgreSQL
type PostgresStorage struct {
	db  *gorm.DB
	log *zap.Logger
}

// New creates a new PostgreSQL storage instance
func New(db *gorm.DB, log *zap.Logger) *PostgresStorage {
	return &PostgresStorage{
		db:  db,
		log: log,
	}
}

// --- Profile Methods ---

func (s *PostgresStorage) CreateProfile(ctx context.Context, profile *domain.Profile) error {
	err := s.db.WithContext(ctx).Create(profile).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repository.ErrUsernameExists
	}
	if err != nil {
		s.log.Error("failed to create profile", zap.String("username", profile.Username), zap.Error(err))
		return fmt.Errorf("failed to create profile: %w", err)
	}

	s.log.Info("created profile", zap.String("profile_id", profile.ID), zap.String("username", profile.Username))
	return nil
}

func (s *PostgresStorage) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	var profile domain.Profile

	err := s.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrProfileNotFound
	}
	if err != nil {
		s.log.Error("failed to get profile", zap.String("profile_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &profile, nil
}

func (s *PostgresStorage) GetProfileByUsername(ctx context.Context, username string) (*domain.Profile, error) {
	var profile domain.Profile

	err := s.db.WithContext(ctx).Where("username = ?", username).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrProfileNotFound
	}
	if err != nil {
		s.log.Error("failed to get profile by username", zap.String("username", username), zap.Error(err))
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &profile, nil
}

// AddQubits adjusts the balance atomically. For negative deltas the WHERE
// clause guards against overdraft, so a concurrent claim can never take the
// balance below zero.
func (s *PostgresStorage) AddQubits(ctx context.Context, profileID string, delta int64) error {
	q := s.db.WithContext(ctx).Model(&domain.Profile{}).Where("id = ?", profileID)
	if delta < 0 {
		q = q.Where("qubits >= ?", -delta)
	}

	result := q.Update("qubits", gorm.Expr("qubits + ?", delta))
	if result.Error != nil {
		s.log.Error("failed to adjust qubits", zap.String("profile_id", profileID), zap.Int64("delta", delta), zap.Error(result.Error))
		return fmt.Errorf("failed to adjust qubits: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		if delta < 0 {
			return repository.ErrInsufficientQubits
		}
		return repository.ErrProfileNotFound
	}

	return nil
}

// --- Link Methods ---

func (s *PostgresStorage) SaveLink(ctx context.Context, link *domain.Link) error {
	err := s.db.WithContext(ctx).Create(link).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repository.ErrShortCodeExists
	}
	if err != nil {
		s.log.Error("failed to save link", zap.String("short_code", link.ShortCode), zap.Error(err))
		return fmt.Errorf("failed to save link: %w", err)
	}

	s.log.Info("saved new link", zap.String("short_code", link.ShortCode), zap.String("user_id", link.UserID))
	return nil
}

func (s *PostgresStorage) GetLink(ctx context.Context, shortCode string) (*domain.Link, error) {
	var link domain.Link

	err := s.db.WithContext(ctx).Where("short_code = ?", shortCode).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrLinkNotFound
	}
	if err != nil {
		s.log.Error("failed to get link", zap.String("short_code", shortCode), zap.Error(err))
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return &link, nil
}

func (s *PostgresStorage) GetLinkByID(ctx context.Context, id string) (*domain.Link, error) {
	var link domain.Link

	err := s.db.WithContext(ctx).Where("id = ?", id).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrLinkNotFound
	}
	if err != nil {
		s.log.Error("failed to get link by id", zap.String("link_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return &link, nil
}

func (s *PostgresStorage) FindCreatorLink(ctx context.Context, originalURL, creatorID string) (*domain.Link, error) {
	var link domain.Link

	err := s.db.WithContext(ctx).
		Where("original_url = ? AND user_id = ?", originalURL, creatorID).
		Order("created_at ASC").
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrLinkNotFound
	}
	if err != nil {
		s.log.Error("failed to find creator link", zap.String("creator_id", creatorID), zap.Error(err))
		return nil, fmt.Errorf("failed to find creator link: %w", err)
	}

	return &link, nil
}

func (s *PostgresStorage) ShortCodeExists(ctx context.Context, shortCode string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.Link{}).Where("short_code = ?", shortCode).Count(&count).Error
	if err != nil {
		s.log.Error("failed to check short code existence", zap.String("short_code", shortCode), zap.Error(err))
		return false, fmt.Errorf("failed to check short code: %w", err)
	}

	return count > 0, nil
}

// SetLinkDeleted flips the soft-delete flag. Counters are left untouched.
func (s *PostgresStorage) SetLinkDeleted(ctx context.Context, shortCode string, deleted bool) error {
	result := s.db.WithContext(ctx).Model(&domain.Link{}).Where("short_code = ?", shortCode).Update("deleted", deleted)
	if result.Error != nil {
		s.log.Error("failed to update link deleted flag", zap.String("short_code", shortCode), zap.Error(result.Error))
		return fmt.Errorf("failed to update link: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return repository.ErrLinkNotFound
	}

	s.log.Info("updated link deleted flag", zap.String("short_code", shortCode), zap.Bool("deleted", deleted))
	return nil
}

func (s *PostgresStorage) IncrementLinkClicks(ctx context.Context, linkID string) error {
	result := s.db.WithContext(ctx).Model(&domain.Link{}).
		Where("id = ?", linkID).
		Update("click_count", gorm.Expr("click_count + 1"))
	if result.Error != nil {
		s.log.Error("failed to increment link clicks", zap.String("link_id", linkID), zap.Error(result.Error))
		return fmt.Errorf("failed to increment link clicks: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return repository.ErrLinkNotFound
	}

	return nil
}

func (s *PostgresStorage) ListUserLinks(ctx context.Context, userID string) ([]*domain.Link, error) {
	var links []*domain.Link

	err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").Find(&links).Error
	if err != nil {
		s.log.Error("failed to list user links", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list user links: %w", err)
	}

	return links, nil
}

// --- Link Reference Methods ---

// CreateLinkRef relies on the (user_id, original_link_id) unique index: a
// concurrent duplicate insert surfaces as ErrRefExists and the caller fetches
// the winning row instead.
func (s *PostgresStorage) CreateLinkRef(ctx context.Context, ref *domain.LinkRef) error {
	err := s.db.WithContext(ctx).Create(ref).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repository.ErrRefExists
	}
	if err != nil {
		s.log.Error("failed to create link ref", zap.String("user_id", ref.UserID), zap.String("original_link_id", ref.OriginalLinkID), zap.Error(err))
		return fmt.Errorf("failed to create link ref: %w", err)
	}

	s.log.Info("created link ref", zap.String("ref_id", ref.ID), zap.String("user_id", ref.UserID))
	return nil
}

func (s *PostgresStorage) GetLinkRef(ctx context.Context, userID, originalLinkID string) (*domain.LinkRef, error) {
	var ref domain.LinkRef

	err := s.db.WithContext(ctx).
		Where("user_id = ? AND original_link_id = ?", userID, originalLinkID).
		First(&ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrRefNotFound
	}
	if err != nil {
		s.log.Error("failed to get link ref", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to get link ref: %w", err)
	}

	return &ref, nil
}

func (s *PostgresStorage) GetLinkRefByShortCode(ctx context.Context, userID, shortCode string) (*domain.LinkRef, error) {
	var ref domain.LinkRef

	err := s.db.WithContext(ctx).
		Where("user_id = ? AND short_code = ?", userID, shortCode).
		First(&ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrRefNotFound
	}
	if err != nil {
		s.log.Error("failed to get link ref by short code", zap.String("user_id", userID), zap.String("short_code", shortCode), zap.Error(err))
		return nil, fmt.Errorf("failed to get link ref: %w", err)
	}

	return &ref, nil
}

func (s *PostgresStorage) IncrementRefClicks(ctx context.Context, refID string) error {
	result := s.db.WithContext(ctx).Model(&domain.LinkRef{}).
		Where("id = ?", refID).
		Update("click_count", gorm.Expr("click_count + 1"))
	if result.Error != nil {
		s.log.Error("failed to increment ref clicks", zap.String("ref_id", refID), zap.Error(result.Error))
		return fmt.Errorf("failed to increment ref clicks: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return repository.ErrRefNotFound
	}

	return nil
}

func (s *PostgresStorage) ListUserRefs(ctx context.Context, userID string) ([]*domain.LinkRef, error) {
	var refs []*domain.LinkRef

	err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").Find(&refs).Error
	if err != nil {
		s.log.Error("failed to list user refs", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list user refs: %w", err)
	}

	return refs, nil
}

func (s *PostgresStorage) SetRefRemovedByUser(ctx context.Context, refID, userID string, removed bool) error {
	result := s.db.WithContext(ctx).Model(&domain.LinkRef{}).
		Where("id = ? AND user_id = ?", refID, userID).
		Update("removed_by_user", removed)
	if result.Error != nil {
		s.log.Error("failed to update ref removed flag", zap.String("ref_id", refID), zap.Error(result.Error))
		return fmt.Errorf("failed to update link ref: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return repository.ErrRefNotFound
	}

	return nil
}

func (s *PostgresStorage) MarkRefsRemovedByCreator(ctx context.Context, originalLinkID string, removed bool) error {
	err := s.db.WithContext(ctx).Model(&domain.LinkRef{}).
		Where("original_link_id = ?", originalLinkID).
		Update("removed_by_creator", removed).Error
	if err != nil {
		s.log.Error("failed to mark refs removed by creator", zap.String("original_link_id", originalLinkID), zap.Error(err))
		return fmt.Errorf("failed to mark refs: %w", err)
	}

	return nil
}

func (s *PostgresStorage) SumRefClicks(ctx context.Context, userID string) (map[string]int64, error) {
	var results []struct {
		CreatorID string `gorm:"column:creator_id"`
		Total     int64  `gorm:"column:total"`
	}

	err := s.db.WithContext(ctx).
		Model(&domain.LinkRef{}).
		Select("links.creator_id as creator_id, SUM(link_refs.click_count) as total").
		Joins("JOIN links ON links.id = link_refs.original_link_id").
		Where("link_refs.user_id = ?", userID).
		Group("links.creator_id").
		Find(&results).Error
	if err != nil {
		s.log.Error("failed to sum ref clicks", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to sum ref clicks: %w", err)
	}

	totals := make(map[string]int64, len(results))
	for _, r := range results {
		totals[r.CreatorID] = r.Total
	}

	return totals, nil
}

// --- Click Ledger Methods ---

// RecordClick appends the ledger row and bumps the cached counter in a single
// transaction, so the counter can only drift if the whole write is lost.
func (s *PostgresStorage) RecordClick(ctx context.Context, click *domain.LinkClick) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(click).Error; err != nil {
			return fmt.Errorf("failed to create click: %w", err)
		}

		result := tx.Model(&domain.Link{}).
			Where("id = ?", click.LinkID).
			Update("click_count", gorm.Expr("click_count + 1"))
		if result.Error != nil {
			return fmt.Errorf("failed to update click count: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return repository.ErrLinkNotFound
		}

		return nil
	})
	if err != nil {
		s.log.Error("failed to record click", zap.String("link_id", click.LinkID), zap.Error(err))
		return err
	}

	s.log.Debug("recorded click", zap.String("link_id", click.LinkID))
	return nil
}

func (s *PostgresStorage) LastClick(ctx context.Context, linkID, userID, ip string) (*domain.LinkClick, error) {
	var click domain.LinkClick

	q := s.db.WithContext(ctx).Where("link_id = ?", linkID)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	} else {
		q = q.Where("ip_address = ?", ip)
	}

	err := q.Order("clicked_at DESC").First(&click).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		s.log.Error("failed to get last click", zap.String("link_id", linkID), zap.Error(err))
		return nil, fmt.Errorf("failed to get last click: %w", err)
	}

	return &click, nil
}

func (s *PostgresStorage) CountClicksSince(ctx context.Context, ip string, since time.Time) (int64, error) {
	var count int64

	err := s.db.WithContext(ctx).Model(&domain.LinkClick{}).
		Where("ip_address = ? AND clicked_at >= ?", ip, since).
		Count(&count).Error
	if err != nil {
		s.log.Error("failed to count recent clicks", zap.String("ip", ip), zap.Error(err))
		return 0, fmt.Errorf("failed to count recent clicks: %w", err)
	}

	return count, nil
}

func (s *PostgresStorage) CountLinkClicks(ctx context.Context, linkID string) (int64, error) {
	var count int64

	err := s.db.WithContext(ctx).Model(&domain.LinkClick{}).
		Where("link_id = ?", linkID).
		Count(&count).Error
	if err != nil {
		s.log.Error("failed to count link clicks", zap.String("link_id", linkID), zap.Error(err))
		return 0, fmt.Errorf("failed to count link clicks: %w", err)
	}

	return count, nil
}

// --- Reward Methods ---

func (s *PostgresStorage) CreateReward(ctx context.Context, reward *domain.Reward) error {
	if err := s.db.WithContext(ctx).Create(reward).Error; err != nil {
		s.log.Error("failed to create reward", zap.String("creator_id", reward.CreatorID), zap.Error(err))
		return fmt.Errorf("failed to create reward: %w", err)
	}

	s.log.Info("created reward", zap.String("reward_id", reward.ID), zap.String("creator_id", reward.CreatorID))
	return nil
}

func (s *PostgresStorage) GetReward(ctx context.Context, id string) (*domain.Reward, error) {
	var reward domain.Reward

	err := s.db.WithContext(ctx).Where("id = ?", id).First(&reward).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrRewardNotFound
	}
	if err != nil {
		s.log.Error("failed to get reward", zap.String("reward_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get reward: %w", err)
	}

	return &reward, nil
}

func (s *PostgresStorage) ListCreatorRewards(ctx context.Context, creatorID string, activeOnly bool) ([]*domain.Reward, error) {
	var rewards []*domain.Reward

	q := s.db.WithContext(ctx).Where("creator_id = ?", creatorID)
	if activeOnly {
		q = q.Where("active = ?", true)
	}

	err := q.Order("created_at DESC").Find(&rewards).Error
	if err != nil {
		s.log.Error("failed to list creator rewards", zap.String("creator_id", creatorID), zap.Error(err))
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}

	return rewards, nil
}

// --- Follow Methods ---

func (s *PostgresStorage) Follow(ctx context.Context, followerID, creatorID string) error {
	follow := domain.Follow{FollowerID: followerID, CreatorID: creatorID}

	err := s.db.WithContext(ctx).Create(&follow).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil // already following
	}
	if err != nil {
		s.log.Error("failed to follow creator", zap.String("follower_id", followerID), zap.String("creator_id", creatorID), zap.Error(err))
		return fmt.Errorf("failed to follow creator: %w", err)
	}

	return nil
}

func (s *PostgresStorage) Unfollow(ctx context.Context, followerID, creatorID string) error {
	err := s.db.WithContext(ctx).
		Where("follower_id = ? AND creator_id = ?", followerID, creatorID).
		Delete(&domain.Follow{}).Error
	if err != nil {
		s.log.Error("failed to unfollow creator", zap.String("follower_id", followerID), zap.String("creator_id", creatorID), zap.Error(err))
		return fmt.Errorf("failed to unfollow creator: %w", err)
	}

	return nil
}

func (s *PostgresStorage) IsFollowing(ctx context.Context, followerID, creatorID string) (bool, error) {
	var count int64

	err := s.db.WithContext(ctx).Model(&domain.Follow{}).
		Where("follower_id = ? AND creator_id = ?", followerID, creatorID).
		Count(&count).Error
	if err != nil {
		s.log.Error("failed to check follow", zap.String("follower_id", followerID), zap.Error(err))
		return false, fmt.Errorf("failed to check follow: %w", err)
	}

	return count > 0, nil
}
