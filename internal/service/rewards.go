package service

import (
	"Supernova-Backend/internal/domain"
	"Supernova-Backend/internal/repository"
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RewardService lets creators publish rewards and followers spend qubits
// claiming them.
type RewardService struct {
	storage repository.Storage
	log     *zap.Logger
}

// NewRewardService creates a new reward service.
func NewRewardService(storage repository.Storage, log *zap.Logger) *RewardService {
	return &RewardService{storage: storage, log: log}
}

// Create publishes a reward for a creator.
func (s *RewardService) Create(ctx context.Context, creatorID, title, description string, qubitCost int64) (*domain.Reward, error) {
	reward := &domain.Reward{
		ID:          uuid.NewString(),
		CreatorID:   creatorID,
		Title:       title,
		Description: description,
		QubitCost:   qubitCost,
		Active:      true,
	}

	if err := s.storage.CreateReward(ctx, reward); err != nil {
		return nil, err
	}

	s.log.Info("created reward",
		zap.String("reward_id", reward.ID),
		zap.String("creator_id", creatorID),
		zap.Int64("cost", qubitCost))
	return reward, nil
}

// List returns a creator's rewards. Public callers see active rewards only.
func (s *RewardService) List(ctx context.Context, creatorID string, activeOnly bool) ([]*domain.Reward, error) {
	return s.storage.ListCreatorRewards(ctx, creatorID, activeOnly)
}

// Claim spends the user's qubit balance on a reward. The debit is guarded
// against overdraft at the storage layer, so two concurrent claims cannot
// both succeed on an insufficient balance.
func (s *RewardService) Claim(ctx context.Context, userID, rewardID string) (*domain.Reward, error) {
	reward, err := s.storage.GetReward(ctx, rewardID)
	if err != nil {
		return nil, err
	}
	if !reward.Active {
		return nil, repository.ErrRewardNotFound
	}

	if err := s.storage.AddQubits(ctx, userID, -reward.QubitCost); err != nil {
		return nil, err
	}

	s.log.Info("reward claimed",
		zap.String("reward_id", rewardID),
		zap.String("user_id", userID),
		zap.Int64("cost", reward.QubitCost))
	return reward, nil
}
