package service

import (
	"Supernova-Backend/internal/domain"
	"Supernova-Backend/internal/repository"
	"Supernova-Backend/internal/repository/memory"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRewardService_Claim(t *testing.T) {
	storage := memory.New()
	svc := NewRewardService(storage, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, storage.CreateProfile(ctx, &domain.Profile{
		ID:       "user-1",
		Username: "clicker",
		Qubits:   100,
	}))

	reward, err := svc.Create(ctx, "creator-1", "Sticker pack", "A pack of stickers", 60)
	require.NoError(t, err)

	t.Run("deducts_balance", func(t *testing.T) {
		claimed, err := svc.Claim(ctx, "user-1", reward.ID)

		require.NoError(t, err)
		assert.Equal(t, reward.ID, claimed.ID)

		profile, err := storage.GetProfile(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, int64(40), profile.Qubits)
	})

	t.Run("insufficient_balance", func(t *testing.T) {
		_, err := svc.Claim(ctx, "user-1", reward.ID)

		assert.ErrorIs(t, err, repository.ErrInsufficientQubits)

		profile, err := storage.GetProfile(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, int64(40), profile.Qubits)
	})

	t.Run("unknown_reward", func(t *testing.T) {
		_, err := svc.Claim(ctx, "user-1", "missing")

		assert.ErrorIs(t, err, repository.ErrRewardNotFound)
	})

	t.Run("inactive_reward_hidden", func(t *testing.T) {
		reward.Active = false
		_, err := svc.Claim(ctx, "user-1", reward.ID)

		assert.ErrorIs(t, err, repository.ErrRewardNotFound)

		rewards, err := svc.List(ctx, "creator-1", true)
		require.NoError(t, err)
		assert.Empty(t, rewards)
	})
}
