package repository

import (
	"Supernova-Backend/internal/domain"
	"context"
	"errors"
	"time"
)

var (
	ErrLinkNotFound       = errors.New("link not found")
	ErrShortCodeExists    = errors.New("short code already exists")
	ErrRefNotFound        = errors.New("link reference not found")
	ErrRefExists          = errors.New("link reference already exists")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrUsernameExists     = errors.New("username already exists")
	ErrRewardNotFound     = errors.New("reward not found")
	ErrInsufficientQubits = errors.New("insufficient qubits")
)

type Storage interface {
	// Profile methods
	CreateProfile(ctx context.Context, profile *domain.Profile) error
	GetProfile(ctx context.Context, id string) (*domain.Profile, error)
	GetProfileByUsername(ctx context.Context, username string) (*domain.Profile, error)
	// AddQubits atomically adjusts a profile's balance. A negative delta that
	// would take the balance below zero fails with ErrInsufficientQubits.
	AddQubits(ctx context.Context, profileID string, delta int64) error

	// Link methods
	SaveLink(ctx context.Context, link *domain.Link) error
	// GetLink returns the link for a short code including soft-deleted rows;
	// callers decide how to treat the Deleted flag.
	GetLink(ctx context.Context, shortCode string) (*domain.Link, error)
	GetLinkByID(ctx context.Context, id string) (*domain.Link, error)
	// FindCreatorLink locates the creator's canonical row for a URL. The lookup
	// is scoped by (original_url, owner=creatorID) because unrelated creators
	// may share a target URL.
	FindCreatorLink(ctx context.Context, originalURL, creatorID string) (*domain.Link, error)
	ShortCodeExists(ctx context.Context, shortCode string) (bool, error)
	SetLinkDeleted(ctx context.Context, shortCode string, deleted bool) error
	IncrementLinkClicks(ctx context.Context, linkID string) error
	ListUserLinks(ctx context.Context, userID string) ([]*domain.Link, error)

	// Link reference methods
	CreateLinkRef(ctx context.Context, ref *domain.LinkRef) error
	GetLinkRef(ctx context.Context, userID, originalLinkID string) (*domain.LinkRef, error)
	GetLinkRefByShortCode(ctx context.Context, userID, shortCode string) (*domain.LinkRef, error)
	IncrementRefClicks(ctx context.Context, refID string) error
	ListUserRefs(ctx context.Context, userID string) ([]*domain.LinkRef, error)
	SetRefRemovedByUser(ctx context.Context, refID, userID string, removed bool) error
	MarkRefsRemovedByCreator(ctx context.Context, originalLinkID string, removed bool) error
	// SumRefClicks returns the user's attributed click totals keyed by the
	// original creator's id.
	SumRefClicks(ctx context.Context, userID string) (map[string]int64, error)

	// Click ledger methods
	// RecordClick appends a ledger row and increments the link's cached counter
	// in one transaction.
	RecordClick(ctx context.Context, click *domain.LinkClick) error
	// LastClick returns the most recent ledger entry for a link from the given
	// identity (user id when set, IP otherwise), or nil when none exists.
	LastClick(ctx context.Context, linkID, userID, ip string) (*domain.LinkClick, error)
	CountClicksSince(ctx context.Context, ip string, since time.Time) (int64, error)
	// CountLinkClicks is the live ledger count, preferred over the cached
	// counter when precision matters.
	CountLinkClicks(ctx context.Context, linkID string) (int64, error)

	// Reward methods
	CreateReward(ctx context.Context, reward *domain.Reward) error
	GetReward(ctx context.Context, id string) (*domain.Reward, error)
	ListCreatorRewards(ctx context.Context, creatorID string, activeOnly bool) ([]*domain.Reward, error)

	// Follow methods
	Follow(ctx context.Context, followerID, creatorID string) error
	Unfollow(ctx context.Context, followerID, creatorID string) error
	IsFollowing(ctx context.Context, followerID, creatorID string) (bool, error)
}
