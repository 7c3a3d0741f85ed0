package bigfish

import (
	"context"
	"log/slog"

	"github.com/agency-crm/backend/internal/application/adapter"
	"github.com/agency-crm/backend/internal/domain/entity"
)

// UpdatePortalConfigInput represents the input for changing portal visibility.
// Nil fields are left unchanged.
type UpdatePortalConfigInput struct {
	BigFishID   string
	ShowBalance *bool
	ShowHistory *bool
	IsSuspended *bool
}

// UpdatePortalConfigOutput represents the output of changing portal visibility.
type UpdatePortalConfigOutput struct {
	Wallet *entity.BigFish
}

// UpdatePortalConfigUseCase handles changes to what a client sees on their portal.
type UpdatePortalConfigUseCase struct {
	walletRepo adapter.WalletRepository
	forwarder  adapter.SyncForwarder
}

// NewUpdatePortalConfigUseCase creates a new UpdatePortalConfigUseCase instance.
func NewUpdatePortalConfigUseCase(walletRepo adapter.WalletRepository, forwarder adapter.SyncForwarder) *UpdatePortalConfigUseCase {
	return &UpdatePortalConfigUseCase{
		walletRepo: walletRepo,
		forwarder:  forwarder,
	}
}

// Execute merges the given flags into the stored config and forwards the full config.
func (uc *UpdatePortalConfigUseCase) Execute(ctx context.Context, input UpdatePortalConfigInput) (*UpdatePortalConfigOutput, error) {
	wallet, err := uc.walletRepo.Mutate(ctx, input.BigFishID, func(current entity.BigFish) (entity.BigFish, error) {
		if input.ShowBalance != nil {
			current.PortalConfig.ShowBalance = *input.ShowBalance
		}
		if input.ShowHistory != nil {
			current.PortalConfig.ShowHistory = *input.ShowHistory
		}
		if input.IsSuspended != nil {
			current.PortalConfig.IsSuspended = *input.IsSuspended
		}
		return current, nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Portal config updated",
		"big_fish_id", wallet.ID,
		"show_balance", wallet.PortalConfig.ShowBalance,
		"show_history", wallet.PortalConfig.ShowHistory,
		"is_suspended", wallet.PortalConfig.IsSuspended,
	)

	uc.forwarder.Forward(ctx, entity.SyncActionUpdate, wallet.ID, map[string]interface{}{
		"portal_config": portalConfigFields(wallet.PortalConfig),
	})

	return &UpdatePortalConfigOutput{Wallet: wallet}, nil
}
