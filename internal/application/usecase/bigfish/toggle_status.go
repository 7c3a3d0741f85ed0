package bigfish

import (
	"context"
	"log/slog"

	"github.com/agency-crm/backend/internal/application/adapter"
	"github.com/agency-crm/backend/internal/domain/entity"
)

// ToggleStatusInput represents the input for flipping a wallet's status.
type ToggleStatusInput struct {
	BigFishID string
}

// ToggleStatusOutput represents the output of flipping a wallet's status.
type ToggleStatusOutput struct {
	Wallet *entity.BigFish
}

// ToggleStatusUseCase moves a wallet between the active pool and the hall of fame.
type ToggleStatusUseCase struct {
	walletRepo adapter.WalletRepository
	forwarder  adapter.SyncForwarder
}

// NewToggleStatusUseCase creates a new ToggleStatusUseCase instance.
func NewToggleStatusUseCase(walletRepo adapter.WalletRepository, forwarder adapter.SyncForwarder) *ToggleStatusUseCase {
	return &ToggleStatusUseCase{
		walletRepo: walletRepo,
		forwarder:  forwarder,
	}
}

// Execute flips the status and forwards it as an update.
func (uc *ToggleStatusUseCase) Execute(ctx context.Context, input ToggleStatusInput) (*ToggleStatusOutput, error) {
	wallet, err := uc.walletRepo.Mutate(ctx, input.BigFishID, func(current entity.BigFish) (entity.BigFish, error) {
		current.Status = current.Status.Toggled()
		return current, nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Big fish status toggled",
		"big_fish_id", wallet.ID,
		"status", wallet.Status,
	)

	uc.forwarder.Forward(ctx, entity.SyncActionUpdate, wallet.ID, map[string]interface{}{
		"status": string(wallet.Status),
	})

	return &ToggleStatusOutput{Wallet: wallet}, nil
}
