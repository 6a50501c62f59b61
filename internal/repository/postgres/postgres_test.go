package postgres

import (
	"Supernova-Backend/internal/database"
	"Supernova-Backend/internal/domain"
	"Supernova-Backend/internal/repository"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupStorage(t *testing.T) *PostgresStorage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()

	container, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("supernova_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2*time.Minute)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	log := zap.NewNop()
	require.NoError(t, database.AutoMigrate(db, log))

	return New(db, log)
}

func newTestLink(userID string) *domain.Link {
	return &domain.Link{
		ID:          uuid.NewString(),
		UserID:      userID,
		CreatorID:   userID,
		ShortCode:   uuid.NewString()[:8],
		OriginalURL: "https://example.com/page",
	}
}

func TestPostgresStorage(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()

	creator := &domain.Profile{ID: uuid.NewString(), Username: "creator", PasswordHash: "x", IsCreator: true}
	sharer := &domain.Profile{ID: uuid.NewString(), Username: "sharer", PasswordHash: "x"}
	require.NoError(t, storage.CreateProfile(ctx, creator))
	require.NoError(t, storage.CreateProfile(ctx, sharer))

	t.Run("duplicate_username_conflict", func(t *testing.T) {
		err := storage.CreateProfile(ctx, &domain.Profile{ID: uuid.NewString(), Username: "creator", PasswordHash: "x"})
		assert.ErrorIs(t, err, repository.ErrUsernameExists)
	})

	t.Run("duplicate_short_code_conflict", func(t *testing.T) {
		link := newTestLink(creator.ID)
		require.NoError(t, storage.SaveLink(ctx, link))

		dup := newTestLink(creator.ID)
		dup.ShortCode = link.ShortCode
		err := storage.SaveLink(ctx, dup)
		assert.ErrorIs(t, err, repository.ErrShortCodeExists)
	})

	t.Run("record_click_appends_and_increments", func(t *testing.T) {
		link := newTestLink(creator.ID)
		require.NoError(t, storage.SaveLink(ctx, link))

		ip := "1.2.3.4"
		require.NoError(t, storage.RecordClick(ctx, &domain.LinkClick{
			LinkID:    link.ID,
			IPAddress: &ip,
			ClickedAt: time.Now(),
		}))

		stored, err := storage.GetLinkByID(ctx, link.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stored.ClickCount)

		count, err := storage.CountLinkClicks(ctx, link.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		last, err := storage.LastClick(ctx, link.ID, "", ip)
		require.NoError(t, err)
		require.NotNil(t, last)
		assert.Equal(t, ip, *last.IPAddress)
	})

	t.Run("last_click_nil_when_none", func(t *testing.T) {
		link := newTestLink(creator.ID)
		require.NoError(t, storage.SaveLink(ctx, link))

		last, err := storage.LastClick(ctx, link.ID, "", "9.9.9.9")
		require.NoError(t, err)
		assert.Nil(t, last)
	})

	t.Run("concurrent_increments_lose_nothing", func(t *testing.T) {
		link := newTestLink(creator.ID)
		require.NoError(t, storage.SaveLink(ctx, link))

		const n = 20
		var wg sync.WaitGroup
		wg.Add(n)
		for i := 0; i < n; i++ {
			go func() {
				defer wg.Done()
				assert.NoError(t, storage.IncrementLinkClicks(ctx, link.ID))
			}()
		}
		wg.Wait()

		stored, err := storage.GetLinkByID(ctx, link.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(n), stored.ClickCount)
	})

	t.Run("ref_pair_unique", func(t *testing.T) {
		link := newTestLink(creator.ID)
		require.NoError(t, storage.SaveLink(ctx, link))

		ref := &domain.LinkRef{
			ID:             uuid.NewString(),
			UserID:         sharer.ID,
			OriginalLinkID: link.ID,
			OriginalURL:    link.OriginalURL,
			ShortCode:      uuid.NewString()[:8],
			UTMParam:       sharer.ID,
			ClickCount:     1,
		}
		require.NoError(t, storage.CreateLinkRef(ctx, ref))

		dup := &domain.LinkRef{
			ID:             uuid.NewString(),
			UserID:         sharer.ID,
			OriginalLinkID: link.ID,
			OriginalURL:    link.OriginalURL,
			ShortCode:      uuid.NewString()[:8],
			UTMParam:       sharer.ID,
		}
		err := storage.CreateLinkRef(ctx, dup)
		assert.ErrorIs(t, err, repository.ErrRefExists)

		// The loser credits the winner instead.
		require.NoError(t, storage.IncrementRefClicks(ctx, ref.ID))
		fetched, err := storage.GetLinkRef(ctx, sharer.ID, link.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), fetched.ClickCount)
	})

	t.Run("sum_ref_clicks_by_creator", func(t *testing.T) {
		link := newTestLink(creator.ID)
		require.NoError(t, storage.SaveLink(ctx, link))

		require.NoError(t, storage.CreateLinkRef(ctx, &domain.LinkRef{
			ID:             uuid.NewString(),
			UserID:         sharer.ID,
			OriginalLinkID: link.ID,
			OriginalURL:    link.OriginalURL,
			ShortCode:      uuid.NewString()[:8],
			UTMParam:       sharer.ID,
			ClickCount:     7,
		}))

		totals, err := storage.SumRefClicks(ctx, sharer.ID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, totals[creator.ID], int64(7))
	})

	t.Run("qubit_overdraft_guard", func(t *testing.T) {
		require.NoError(t, storage.AddQubits(ctx, sharer.ID, 50))

		err := storage.AddQubits(ctx, sharer.ID, -80)
		assert.ErrorIs(t, err, repository.ErrInsufficientQubits)

		require.NoError(t, storage.AddQubits(ctx, sharer.ID, -50))
		profile, err := storage.GetProfile(ctx, sharer.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), profile.Qubits)
	})

	t.Run("soft_delete_flags", func(t *testing.T) {
		link := newTestLink(creator.ID)
		require.NoError(t, storage.SaveLink(ctx, link))

		ref := &domain.LinkRef{
			ID:             uuid.NewString(),
			UserID:         sharer.ID,
			OriginalLinkID: link.ID,
			OriginalURL:    link.OriginalURL,
			ShortCode:      uuid.NewString()[:8],
			UTMParam:       sharer.ID,
			ClickCount:     3,
		}
		require.NoError(t, storage.CreateLinkRef(ctx, ref))

		require.NoError(t, storage.SetLinkDeleted(ctx, link.ShortCode, true))
		require.NoError(t, storage.MarkRefsRemovedByCreator(ctx, link.ID, true))

		stored, err := storage.GetLink(ctx, link.ShortCode)
		require.NoError(t, err)
		assert.True(t, stored.Deleted)

		refs, err := storage.ListUserRefs(ctx, sharer.ID)
		require.NoError(t, err)
		var found *domain.LinkRef
		for _, r := range refs {
			if r.ID == ref.ID {
				found = r
			}
		}
		require.NotNil(t, found)
		assert.True(t, found.RemovedByCreator)
		assert.Equal(t, int64(3), found.ClickCount)
	})
}
