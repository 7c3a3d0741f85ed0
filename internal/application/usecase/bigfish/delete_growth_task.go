package bigfish

import (
	"context"
	"log/slog"

	"github.com/agency-crm/backend/internal/application/adapter"
	"github.com/agency-crm/backend/internal/domain/entity"
)

// DeleteGrowthTaskInput represents the input for removing a growth task.
type DeleteGrowthTaskInput struct {
	BigFishID string
	TaskID    string
}

// DeleteGrowthTaskOutput represents the output of removing a growth task.
type DeleteGrowthTaskOutput struct {
	Wallet *entity.BigFish
}

// DeleteGrowthTaskUseCase handles removing a growth task.
type DeleteGrowthTaskUseCase struct {
	walletRepo adapter.WalletRepository
	forwarder  adapter.SyncForwarder
}

// NewDeleteGrowthTaskUseCase creates a new DeleteGrowthTaskUseCase instance.
func NewDeleteGrowthTaskUseCase(walletRepo adapter.WalletRepository, forwarder adapter.SyncForwarder) *DeleteGrowthTaskUseCase {
	return &DeleteGrowthTaskUseCase{
		walletRepo: walletRepo,
		forwarder:  forwarder,
	}
}

// Execute removes the task and forwards the task list as an update.
func (uc *DeleteGrowthTaskUseCase) Execute(ctx context.Context, input DeleteGrowthTaskInput) (*DeleteGrowthTaskOutput, error) {
	wallet, err := uc.walletRepo.Mutate(ctx, input.BigFishID, func(current entity.BigFish) (entity.BigFish, error) {
		idx, found := current.FindGrowthTask(input.TaskID)
		if !found {
			return current, growthTaskNotFound(input.TaskID)
		}
		current.GrowthTasks = append(current.GrowthTasks[:idx], current.GrowthTasks[idx+1:]...)
		return current, nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Growth task deleted", "big_fish_id", wallet.ID, "task_id", input.TaskID)

	uc.forwarder.Forward(ctx, entity.SyncActionUpdate, wallet.ID, map[string]interface{}{
		"growth_tasks": growthTaskFields(wallet.GrowthTasks),
	})

	return &DeleteGrowthTaskOutput{Wallet: wallet}, nil
}
