package service

import (
	"Supernova-Backend/internal/config"
	"Supernova-Backend/internal/domain"
	"Supernova-Backend/internal/repository"
	"Supernova-Backend/internal/repository/memory"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLinkService(storage *memory.MemStorage) *LinkService {
	return NewLinkService(storage, &config.URLShortener{CodeLength: 6, BaseURL: "http://localhost:8080"}, zap.NewNop())
}

func TestLinkService_Create(t *testing.T) {
	storage := memory.New()
	svc := newLinkService(storage)
	ctx := context.Background()

	t.Run("stamps_creator", func(t *testing.T) {
		link, err := svc.Create(ctx, "user-1", "https://example.com", "My page", "")

		require.NoError(t, err)
		assert.Equal(t, "user-1", link.UserID)
		assert.Equal(t, "user-1", link.CreatorID)
		assert.Len(t, link.ShortCode, 6)
		assert.Equal(t, "My page", *link.PageTitle)
		assert.False(t, link.IsForwarded())
	})

	t.Run("custom_code", func(t *testing.T) {
		link, err := svc.Create(ctx, "user-1", "https://example.com/2", "", "my-code")

		require.NoError(t, err)
		assert.Equal(t, "my-code", link.ShortCode)
	})

	t.Run("custom_code_conflict", func(t *testing.T) {
		_, err := svc.Create(ctx, "user-2", "https://example.com/3", "", "my-code")

		assert.ErrorIs(t, err, repository.ErrShortCodeExists)
	})
}

func TestLinkService_ArchiveAndRestore(t *testing.T) {
	storage := memory.New()
	svc := newLinkService(storage)
	ctx := context.Background()

	link, err := svc.Create(ctx, "creator-1", "https://example.com", "", "")
	require.NoError(t, err)
	link.ClickCount = 7

	ref := &domain.LinkRef{
		ID:             "ref-1",
		UserID:         "sharer-1",
		OriginalLinkID: link.ID,
		OriginalURL:    link.OriginalURL,
		ShortCode:      "shared",
		UTMParam:       "sharer-1",
		ClickCount:     3,
	}
	require.NoError(t, storage.CreateLinkRef(ctx, ref))

	t.Run("archive_flags_refs_keeps_counters", func(t *testing.T) {
		require.NoError(t, svc.Archive(ctx, "creator-1", link.ShortCode))

		assert.True(t, link.Deleted)
		assert.True(t, ref.RemovedByCreator)
		assert.Equal(t, int64(7), link.ClickCount)
		assert.Equal(t, int64(3), ref.ClickCount)
	})

	t.Run("restore_clears_flags", func(t *testing.T) {
		require.NoError(t, svc.Restore(ctx, "creator-1", link.ShortCode))

		assert.False(t, link.Deleted)
		assert.False(t, ref.RemovedByCreator)
	})

	t.Run("not_owner", func(t *testing.T) {
		err := svc.Archive(ctx, "someone-else", link.ShortCode)

		assert.ErrorIs(t, err, repository.ErrLinkNotFound)
	})
}

func TestLinkService_Dashboard(t *testing.T) {
	storage := memory.New()
	svc := newLinkService(storage)
	ctx := context.Background()

	own, err := svc.Create(ctx, "user-1", "https://example.com", "Own", "")
	require.NoError(t, err)

	require.NoError(t, storage.CreateLinkRef(ctx, &domain.LinkRef{
		ID:             "ref-1",
		UserID:         "user-1",
		OriginalLinkID: "someone-elses-link",
		OriginalURL:    "https://other.example.com",
		ShortCode:      "saved1",
		UTMParam:       "user-1",
		ClickCount:     5,
		RemovedByUser:  true,
	}))

	entries, err := svc.Dashboard(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byKind := map[domain.LinkKind]domain.DashboardEntry{}
	for _, e := range entries {
		byKind[e.Kind] = e
	}

	original := byKind[domain.LinkKindOriginal]
	assert.Equal(t, own.ID, original.ID)
	assert.Equal(t, own.ShortCode, original.ShortCode)
	assert.False(t, original.Archived)

	reference := byKind[domain.LinkKindReference]
	assert.Equal(t, "ref-1", reference.ID)
	assert.Equal(t, int64(5), reference.ClickCount)
	assert.True(t, reference.Archived)
}

func TestLinkService_SaveRef(t *testing.T) {
	storage := memory.New()
	svc := newLinkService(storage)
	ctx := context.Background()

	link, err := svc.Create(ctx, "creator-1", "https://example.com", "", "")
	require.NoError(t, err)

	t.Run("own_link_rejected", func(t *testing.T) {
		_, err := svc.SaveRef(ctx, "creator-1", link.ID)

		assert.Error(t, err)
	})

	t.Run("saved_with_fresh_code", func(t *testing.T) {
		ref, err := svc.SaveRef(ctx, "user-2", link.ID)

		require.NoError(t, err)
		assert.Equal(t, "user-2", ref.UserID)
		assert.Equal(t, "user-2", ref.UTMParam)
		assert.Equal(t, link.ID, ref.OriginalLinkID)
		assert.NotEqual(t, link.ShortCode, ref.ShortCode)
		assert.Equal(t, int64(0), ref.ClickCount)
	})

	t.Run("duplicate_conflicts", func(t *testing.T) {
		_, err := svc.SaveRef(ctx, "user-2", link.ID)

		assert.ErrorIs(t, err, repository.ErrRefExists)
	})
}

func TestLinkService_EarnedQubits(t *testing.T) {
	storage := memory.New()
	svc := newLinkService(storage)
	ctx := context.Background()

	linkA, err := svc.Create(ctx, "creator-a", "https://a.example.com", "", "")
	require.NoError(t, err)
	linkB, err := svc.Create(ctx, "creator-b", "https://b.example.com", "", "")
	require.NoError(t, err)

	require.NoError(t, storage.CreateLinkRef(ctx, &domain.LinkRef{
		ID: "ref-a", UserID: "user-1", OriginalLinkID: linkA.ID,
		OriginalURL: linkA.OriginalURL, ShortCode: "refa01", ClickCount: 4,
	}))
	require.NoError(t, storage.CreateLinkRef(ctx, &domain.LinkRef{
		ID: "ref-b", UserID: "user-1", OriginalLinkID: linkB.ID,
		OriginalURL: linkB.OriginalURL, ShortCode: "refb01", ClickCount: 6,
	}))

	byCreator, total, err := svc.EarnedQubits(ctx, "user-1")

	require.NoError(t, err)
	assert.Equal(t, int64(10), total)
	assert.Equal(t, int64(4), byCreator["creator-a"])
	assert.Equal(t, int64(6), byCreator["creator-b"])
}
