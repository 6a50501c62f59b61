package attribution

import (
	"Supernova-Backend/internal/domain"
	"Supernova-Backend/internal/repository"
	"Supernova-Backend/internal/repository/memory"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testPropagator(storage *memory.MemStorage) *Propagator {
	cfg := DefaultConfig()
	cfg.RetryAttempts = 1
	cfg.RetryDelay = time.Millisecond
	return NewPropagator(storage, zap.NewNop(), cfg)
}

// canonical creator link plus a forwarded copy owned by the sharer.
func seedChain(t *testing.T, storage *memory.MemStorage) (canonical, forwarded *domain.Link) {
	t.Helper()
	ctx := context.Background()

	canonical = &domain.Link{
		ID:          "link-canonical",
		UserID:      "creator-1",
		CreatorID:   "creator-1",
		ShortCode:   "orig01",
		OriginalURL: "https://example.com/page",
	}
	require.NoError(t, storage.SaveLink(ctx, canonical))

	forwarded = &domain.Link{
		ID:          "link-forwarded",
		UserID:      "sharer-1",
		CreatorID:   "creator-1",
		ShortCode:   "fwd001",
		OriginalURL: "https://example.com/page",
	}
	require.NoError(t, storage.SaveLink(ctx, forwarded))
	return canonical, forwarded
}

func TestPropagate_ForwardedLink(t *testing.T) {
	storage := memory.New()
	canonical, forwarded := seedChain(t, storage)
	p := testPropagator(storage)

	require.NoError(t, p.Propagate(context.Background(), &Job{LinkID: forwarded.ID}))

	// The sharer's reference is materialized seeded with the first click.
	ref, err := storage.GetLinkRef(context.Background(), "sharer-1", canonical.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ref.ClickCount)
	assert.Equal(t, "sharer-1", ref.UTMParam)
	assert.Equal(t, canonical.OriginalURL, ref.OriginalURL)
	assert.Equal(t, forwarded.ShortCode, ref.ShortCode)

	// The creator's canonical counter got the companion increment.
	assert.Equal(t, int64(1), canonical.ClickCount)

	// A second click credits the existing row.
	require.NoError(t, p.Propagate(context.Background(), &Job{LinkID: forwarded.ID}))
	assert.Equal(t, int64(2), ref.ClickCount)
	assert.Equal(t, int64(2), canonical.ClickCount)
}

func TestPropagate_UTMRefOnCanonicalLink(t *testing.T) {
	storage := memory.New()
	canonical, _ := seedChain(t, storage)
	p := testPropagator(storage)

	require.NoError(t, p.Propagate(context.Background(), &Job{
		LinkID:         canonical.ID,
		ReferrerUserID: "sharer-2",
	}))

	ref, err := storage.GetLinkRef(context.Background(), "sharer-2", canonical.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ref.ClickCount)
}

func TestPropagate_NoReferrer(t *testing.T) {
	storage := memory.New()
	canonical, _ := seedChain(t, storage)
	p := testPropagator(storage)

	t.Run("plain_click_on_own_link", func(t *testing.T) {
		require.NoError(t, p.Propagate(context.Background(), &Job{LinkID: canonical.ID}))
		refs, err := storage.ListUserRefs(context.Background(), "creator-1")
		require.NoError(t, err)
		assert.Empty(t, refs)
	})

	t.Run("self_referral_ignored", func(t *testing.T) {
		// A creator sharing their own canonical link earns nothing.
		require.NoError(t, p.Propagate(context.Background(), &Job{
			LinkID:         canonical.ID,
			ReferrerUserID: "creator-1",
		}))
		refs, err := storage.ListUserRefs(context.Background(), "creator-1")
		require.NoError(t, err)
		assert.Empty(t, refs)
	})
}

func TestPropagate_ExistingRefCredited(t *testing.T) {
	storage := memory.New()
	canonical, forwarded := seedChain(t, storage)
	p := testPropagator(storage)

	// Another worker already materialized the reference for this pair.
	winner := &domain.LinkRef{
		ID:             "ref-winner",
		UserID:         "sharer-1",
		OriginalLinkID: canonical.ID,
		OriginalURL:    canonical.OriginalURL,
		ShortCode:      "other1",
		UTMParam:       "sharer-1",
		ClickCount:     1,
	}
	require.NoError(t, storage.CreateLinkRef(context.Background(), winner))

	require.NoError(t, p.Propagate(context.Background(), &Job{LinkID: forwarded.ID}))

	assert.Equal(t, int64(2), winner.ClickCount)
	refs, err := storage.ListUserRefs(context.Background(), "sharer-1")
	require.NoError(t, err)
	assert.Len(t, refs, 1)
}

// refRaceStorage injects the insert race the unique pair index exists for:
// the pair lookup misses until CreateLinkRef reports the conflict, at which
// point the winning row becomes visible.
type refRaceStorage struct {
	*memory.MemStorage
	winner *domain.LinkRef
	raced  bool
}

func (s *refRaceStorage) GetLinkRef(ctx context.Context, userID, originalLinkID string) (*domain.LinkRef, error) {
	if !s.raced {
		return nil, repository.ErrRefNotFound
	}
	return s.MemStorage.GetLinkRef(ctx, userID, originalLinkID)
}

func (s *refRaceStorage) GetLinkRefByShortCode(ctx context.Context, userID, shortCode string) (*domain.LinkRef, error) {
	if !s.raced {
		return nil, repository.ErrRefNotFound
	}
	return s.MemStorage.GetLinkRefByShortCode(ctx, userID, shortCode)
}

func (s *refRaceStorage) CreateLinkRef(ctx context.Context, ref *domain.LinkRef) error {
	if s.raced {
		return s.MemStorage.CreateLinkRef(ctx, ref)
	}
	s.raced = true
	if err := s.MemStorage.CreateLinkRef(ctx, s.winner); err != nil {
		return err
	}
	return repository.ErrRefExists
}

func TestPropagate_CreateConflictCreditsWinner(t *testing.T) {
	mem := memory.New()
	canonical, forwarded := seedChain(t, mem)

	winner := &domain.LinkRef{
		ID:             "ref-winner",
		UserID:         "sharer-1",
		OriginalLinkID: canonical.ID,
		OriginalURL:    canonical.OriginalURL,
		ShortCode:      forwarded.ShortCode,
		UTMParam:       "sharer-1",
		ClickCount:     1,
	}
	storage := &refRaceStorage{MemStorage: mem, winner: winner}

	cfg := DefaultConfig()
	cfg.RetryAttempts = 1
	cfg.RetryDelay = time.Millisecond
	p := NewPropagator(storage, zap.NewNop(), cfg)

	// Both lookups miss and the insert loses; the losing worker must fetch
	// the winning row and credit it instead of erroring or double-creating.
	require.NoError(t, p.Propagate(context.Background(), &Job{LinkID: forwarded.ID}))

	assert.Equal(t, int64(2), winner.ClickCount)
	refs, err := mem.ListUserRefs(context.Background(), "sharer-1")
	require.NoError(t, err)
	assert.Len(t, refs, 1)
	assert.Equal(t, "ref-winner", refs[0].ID)
}

func TestPropagator_SubmitLifecycle(t *testing.T) {
	storage := memory.New()
	_, forwarded := seedChain(t, storage)
	p := testPropagator(storage)

	t.Run("submit_before_start_fails", func(t *testing.T) {
		assert.Error(t, p.Submit(&Job{LinkID: forwarded.ID}))
	})

	require.NoError(t, p.Start())

	t.Run("submitted_job_is_processed", func(t *testing.T) {
		require.NoError(t, p.Submit(&Job{LinkID: forwarded.ID}))

		assert.Eventually(t, func() bool {
			refs, err := storage.ListUserRefs(context.Background(), "sharer-1")
			return err == nil && len(refs) == 1
		}, 2*time.Second, 10*time.Millisecond)
	})

	require.NoError(t, p.Stop())

	t.Run("submit_after_stop_fails", func(t *testing.T) {
		assert.Error(t, p.Submit(&Job{LinkID: forwarded.ID}))
	})
}
