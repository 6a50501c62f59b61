package memory

import (
	"Supernova-Backend/internal/domain"
	"Supernova-Backend/internal/repository"
	"context"
	"sync"
	"time"
)

// MemStorage is an in-memory Storage implementation used in tests and local
// development. Coordination is a single RWMutex, so unlike the Postgres
// implementation the check-then-act paths here are race-free by construction.
type MemStorage struct {
	mu          sync.RWMutex
	profiles    map[string]*domain.Profile
	byUsername  map[string]string
	links       map[string]*domain.Link
	linksByCode map[string]string
	refs        map[string]*domain.LinkRef
	refByPair   map[string]string
	clicks      []*domain.LinkClick
	clickSeq    int64
	rewards     map[string]*domain.Reward
	follows     map[string]struct{}
}

func New() *MemStorage {
	return &MemStorage{
		profiles:    make(map[string]*domain.Profile),
		byUsername:  make(map[string]string),
		links:       make(map[string]*domain.Link),
		linksByCode: make(map[string]string),
		refs:        make(map[string]*domain.LinkRef),
		refByPair:   make(map[string]string),
		rewards:     make(map[string]*domain.Reward),
		follows:     make(map[string]struct{}),
	}
}

func pairKey(userID, originalLinkID string) string {
	return userID + "|" + originalLinkID
}

// --- Profile Methods ---

func (s *MemStorage) CreateProfile(_ context.Context, profile *domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUsername[profile.Username]; exists {
		return repository.ErrUsernameExists
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now()
	}
	s.profiles[profile.ID] = profile
	s.byUsername[profile.Username] = profile.ID
	return nil
}

func (s *MemStorage) GetProfile(_ context.Context, id string) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[id]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	return profile, nil
}

func (s *MemStorage) GetProfileByUsername(_ context.Context, username string) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	return s.profiles[id], nil
}

func (s *MemStorage) AddQubits(_ context.Context, profileID string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[profileID]
	if !ok {
		return repository.ErrProfileNotFound
	}
	if delta < 0 && profile.Qubits+delta < 0 {
		return repository.ErrInsufficientQubits
	}
	profile.Qubits += delta
	return nil
}

// --- Link Methods ---

func (s *MemStorage) SaveLink(_ context.Context, link *domain.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.linksByCode[link.ShortCode]; exists {
		return repository.ErrShortCodeExists
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}
	s.links[link.ID] = link
	s.linksByCode[link.ShortCode] = link.ID
	return nil
}

func (s *MemStorage) GetLink(_ context.Context, shortCode string) (*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.linksByCode[shortCode]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	return s.links[id], nil
}

func (s *MemStorage) GetLinkByID(_ context.Context, id string) (*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	link, ok := s.links[id]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	return link, nil
}

func (s *MemStorage) FindCreatorLink(_ context.Context, originalURL, creatorID string) (*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *domain.Link
	for _, link := range s.links {
		if link.OriginalURL != originalURL || link.UserID != creatorID {
			continue
		}
		if found == nil || link.CreatedAt.Before(found.CreatedAt) {
			found = link
		}
	}
	if found == nil {
		return nil, repository.ErrLinkNotFound
	}
	return found, nil
}

func (s *MemStorage) ShortCodeExists(_ context.Context, shortCode string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.linksByCode[shortCode]
	return ok, nil
}

func (s *MemStorage) SetLinkDeleted(_ context.Context, shortCode string, deleted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.linksByCode[shortCode]
	if !ok {
		return repository.ErrLinkNotFound
	}
	s.links[id].Deleted = deleted
	return nil
}

func (s *MemStorage) IncrementLinkClicks(_ context.Context, linkID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.links[linkID]
	if !ok {
		return repository.ErrLinkNotFound
	}
	link.ClickCount++
	return nil
}

func (s *MemStorage) ListUserLinks(_ context.Context, userID string) ([]*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var userLinks []*domain.Link
	for _, link := range s.links {
		if link.UserID == userID {
			userLinks = append(userLinks, link)
		}
	}
	return userLinks, nil
}

// --- Link Reference Methods ---

func (s *MemStorage) CreateLinkRef(_ context.Context, ref *domain.LinkRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(ref.UserID, ref.OriginalLinkID)
	if _, exists := s.refByPair[key]; exists {
		return repository.ErrRefExists
	}
	if ref.CreatedAt.IsZero() {
		ref.CreatedAt = time.Now()
	}
	s.refs[ref.ID] = ref
	s.refByPair[key] = ref.ID
	return nil
}

func (s *MemStorage) GetLinkRef(_ context.Context, userID, originalLinkID string) (*domain.LinkRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.refByPair[pairKey(userID, originalLinkID)]
	if !ok {
		return nil, repository.ErrRefNotFound
	}
	return s.refs[id], nil
}

func (s *MemStorage) GetLinkRefByShortCode(_ context.Context, userID, shortCode string) (*domain.LinkRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ref := range s.refs {
		if ref.UserID == userID && ref.ShortCode == shortCode {
			return ref, nil
		}
	}
	return nil, repository.ErrRefNotFound
}

func (s *MemStorage) IncrementRefClicks(_ context.Context, refID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, ok := s.refs[refID]
	if !ok {
		return repository.ErrRefNotFound
	}
	ref.ClickCount++
	return nil
}

func (s *MemStorage) ListUserRefs(_ context.Context, userID string) ([]*domain.LinkRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var userRefs []*domain.LinkRef
	for _, ref := range s.refs {
		if ref.UserID == userID {
			userRefs = append(userRefs, ref)
		}
	}
	return userRefs, nil
}

func (s *MemStorage) SetRefRemovedByUser(_ context.Context, refID, userID string, removed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, ok := s.refs[refID]
	if !ok || ref.UserID != userID {
		return repository.ErrRefNotFound
	}
	ref.RemovedByUser = removed
	return nil
}

func (s *MemStorage) MarkRefsRemovedByCreator(_ context.Context, originalLinkID string, removed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ref := range s.refs {
		if ref.OriginalLinkID == originalLinkID {
			ref.RemovedByCreator = removed
		}
	}
	return nil
}

func (s *MemStorage) SumRefClicks(_ context.Context, userID string) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[string]int64)
	for _, ref := range s.refs {
		if ref.UserID != userID {
			continue
		}
		original, ok := s.links[ref.OriginalLinkID]
		if !ok {
			continue
		}
		totals[original.CreatorID] += ref.ClickCount
	}
	return totals, nil
}

// --- Click Ledger Methods ---

func (s *MemStorage) RecordClick(_ context.Context, click *domain.LinkClick) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.links[click.LinkID]
	if !ok {
		return repository.ErrLinkNotFound
	}

	s.clickSeq++
	click.ID = s.clickSeq
	if click.ClickedAt.IsZero() {
		click.ClickedAt = time.Now()
	}
	s.clicks = append(s.clicks, click)
	link.ClickCount++
	return nil
}

func (s *MemStorage) LastClick(_ context.Context, linkID, userID, ip string) (*domain.LinkClick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var last *domain.LinkClick
	for _, click := range s.clicks {
		if click.LinkID != linkID {
			continue
		}
		if userID != "" {
			if click.UserID == nil || *click.UserID != userID {
				continue
			}
		} else if click.IPAddress == nil || *click.IPAddress != ip {
			continue
		}
		if last == nil || click.ClickedAt.After(last.ClickedAt) {
			last = click
		}
	}
	return last, nil
}

func (s *MemStorage) CountClicksSince(_ context.Context, ip string, since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, click := range s.clicks {
		if click.IPAddress != nil && *click.IPAddress == ip && !click.ClickedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *MemStorage) CountLinkClicks(_ context.Context, linkID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, click := range s.clicks {
		if click.LinkID == linkID {
			count++
		}
	}
	return count, nil
}

// --- Reward Methods ---

func (s *MemStorage) CreateReward(_ context.Context, reward *domain.Reward) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if reward.CreatedAt.IsZero() {
		reward.CreatedAt = time.Now()
	}
	s.rewards[reward.ID] = reward
	return nil
}

func (s *MemStorage) GetReward(_ context.Context, id string) (*domain.Reward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reward, ok := s.rewards[id]
	if !ok {
		return nil, repository.ErrRewardNotFound
	}
	return reward, nil
}

func (s *MemStorage) ListCreatorRewards(_ context.Context, creatorID string, activeOnly bool) ([]*domain.Reward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rewards []*domain.Reward
	for _, reward := range s.rewards {
		if reward.CreatorID != creatorID {
			continue
		}
		if activeOnly && !reward.Active {
			continue
		}
		rewards = append(rewards, reward)
	}
	return rewards, nil
}

// --- Follow Methods ---

func (s *MemStorage) Follow(_ context.Context, followerID, creatorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.follows[pairKey(followerID, creatorID)] = struct{}{}
	return nil
}

func (s *MemStorage) Unfollow(_ context.Context, followerID, creatorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.follows, pairKey(followerID, creatorID))
	return nil
}

func (s *MemStorage) IsFollowing(_ context.Context, followerID, creatorID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.follows[pairKey(followerID, creatorID)]
	return ok, nil
}
