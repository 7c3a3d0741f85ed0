package bigfish

import (
	"context"
	"log/slog"

	"github.com/agency-crm/backend/internal/application/adapter"
	"github.com/agency-crm/backend/internal/domain/entity"
)

// ToggleGrowthTaskInput represents the input for completing or reopening a task.
type ToggleGrowthTaskInput struct {
	BigFishID string
	TaskID    string
}

// ToggleGrowthTaskOutput represents the output of toggling a task.
type ToggleGrowthTaskOutput struct {
	Wallet *entity.BigFish
	Task   entity.GrowthTask
}

// ToggleGrowthTaskUseCase flips the completed flag of a growth task.
type ToggleGrowthTaskUseCase struct {
	walletRepo adapter.WalletRepository
	forwarder  adapter.SyncForwarder
}

// NewToggleGrowthTaskUseCase creates a new ToggleGrowthTaskUseCase instance.
func NewToggleGrowthTaskUseCase(walletRepo adapter.WalletRepository, forwarder adapter.SyncForwarder) *ToggleGrowthTaskUseCase {
	return &ToggleGrowthTaskUseCase{
		walletRepo: walletRepo,
		forwarder:  forwarder,
	}
}

// Execute toggles the task and forwards the task list as an update.
func (uc *ToggleGrowthTaskUseCase) Execute(ctx context.Context, input ToggleGrowthTaskInput) (*ToggleGrowthTaskOutput, error) {
	wallet, err := uc.walletRepo.Mutate(ctx, input.BigFishID, func(current entity.BigFish) (entity.BigFish, error) {
		idx, found := current.FindGrowthTask(input.TaskID)
		if !found {
			return current, growthTaskNotFound(input.TaskID)
		}
		current.GrowthTasks[idx].Completed = !current.GrowthTasks[idx].Completed
		return current, nil
	})
	if err != nil {
		return nil, err
	}

	idx, _ := wallet.FindGrowthTask(input.TaskID)
	task := wallet.GrowthTasks[idx]

	slog.Info("Growth task toggled",
		"big_fish_id", wallet.ID,
		"task_id", task.ID,
		"completed", task.Completed,
	)

	uc.forwarder.Forward(ctx, entity.SyncActionUpdate, wallet.ID, map[string]interface{}{
		"growth_tasks": growthTaskFields(wallet.GrowthTasks),
	})

	return &ToggleGrowthTaskOutput{Wallet: wallet, Task: task}, nil
}
