package bigfish

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/agency-crm/backend/internal/application/adapter"
	"github.com/agency-crm/backend/internal/domain/entity"
	domainerror "github.com/agency-crm/backend/internal/domain/error"
)

// MaxGrowthTaskTitleLength is the longest growth task title accepted.
const MaxGrowthTaskTitleLength = 200

// AddGrowthTaskInput represents the input for adding a growth task.
type AddGrowthTaskInput struct {
	BigFishID string
	Title     string
	DueDate   *time.Time
}

// AddGrowthTaskOutput represents the output of adding a growth task.
type AddGrowthTaskOutput struct {
	Wallet *entity.BigFish
	Task   entity.GrowthTask
}

// AddGrowthTaskUseCase handles adding follow-up tasks to a wallet.
type AddGrowthTaskUseCase struct {
	walletRepo adapter.WalletRepository
	forwarder  adapter.SyncForwarder
}

// NewAddGrowthTaskUseCase creates a new AddGrowthTaskUseCase instance.
func NewAddGrowthTaskUseCase(walletRepo adapter.WalletRepository, forwarder adapter.SyncForwarder) *AddGrowthTaskUseCase {
	return &AddGrowthTaskUseCase{
		walletRepo: walletRepo,
		forwarder:  forwarder,
	}
}

// Execute appends the task and forwards the task list as an update.
func (uc *AddGrowthTaskUseCase) Execute(ctx context.Context, input AddGrowthTaskInput) (*AddGrowthTaskOutput, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" || len(title) > MaxGrowthTaskTitleLength {
		return nil, domainerror.NewWalletError(
			domainerror.ErrCodeMissingWalletFields,
			"title is required and must be at most 200 characters",
			nil,
		)
	}

	task := entity.NewGrowthTask(title, input.DueDate)

	wallet, err := uc.walletRepo.Mutate(ctx, input.BigFishID, func(current entity.BigFish) (entity.BigFish, error) {
		current.GrowthTasks = append(current.GrowthTasks, *task)
		return current, nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Growth task added", "big_fish_id", wallet.ID, "task_id", task.ID)

	uc.forwarder.Forward(ctx, entity.SyncActionUpdate, wallet.ID, map[string]interface{}{
		"growth_tasks": growthTaskFields(wallet.GrowthTasks),
	})

	return &AddGrowthTaskOutput{Wallet: wallet, Task: *task}, nil
}
