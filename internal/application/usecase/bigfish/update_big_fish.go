package bigfish

import (
	"context"
	"log/slog"
	"strings"

	"github.com/agency-crm/backend/internal/application/adapter"
	"github.com/agency-crm/backend/internal/domain/entity"
	domainerror "github.com/agency-crm/backend/internal/domain/error"
)

// UpdateBigFishInput represents the input for editing a wallet's profile.
// Nil fields are left unchanged. Balances are never edited directly.
type UpdateBigFishInput struct {
	BigFishID   string
	Name        *string
	Company     *string
	Email       *string
	Phone       *string
	Notes       *string
	Status      *entity.BigFishStatus
	TargetSales *int
}

// UpdateBigFishOutput represents the output of editing a wallet's profile.
type UpdateBigFishOutput struct {
	Wallet *entity.BigFish
}

// UpdateBigFishUseCase handles profile and sales goal edits.
type UpdateBigFishUseCase struct {
	walletRepo adapter.WalletRepository
	forwarder  adapter.SyncForwarder
}

// NewUpdateBigFishUseCase creates a new UpdateBigFishUseCase instance.
func NewUpdateBigFishUseCase(walletRepo adapter.WalletRepository, forwarder adapter.SyncForwarder) *UpdateBigFishUseCase {
	return &UpdateBigFishUseCase{
		walletRepo: walletRepo,
		forwarder:  forwarder,
	}
}

// Execute applies the profile changes and forwards them as an update.
func (uc *UpdateBigFishUseCase) Execute(ctx context.Context, input UpdateBigFishInput) (*UpdateBigFishOutput, error) {
	// Validate input
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, domainerror.NewWalletError(
			domainerror.ErrCodeMissingWalletFields,
			"name must not be empty",
			nil,
		)
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, domainerror.NewWalletError(
			domainerror.ErrCodeInvalidStatus,
			"status must be 'Active Pool' or 'Hall of Fame'",
			domainerror.ErrInvalidStatus,
		)
	}
	if input.TargetSales != nil && *input.TargetSales < 0 {
		return nil, domainerror.NewWalletError(
			domainerror.ErrCodeMissingWalletFields,
			"target sales must not be negative",
			nil,
		)
	}

	wallet, err := uc.walletRepo.Mutate(ctx, input.BigFishID, func(current entity.BigFish) (entity.BigFish, error) {
		if input.Name != nil {
			current.Name = strings.TrimSpace(*input.Name)
		}
		if input.Company != nil {
			current.Company = strings.TrimSpace(*input.Company)
		}
		if input.Email != nil {
			current.Email = strings.TrimSpace(*input.Email)
		}
		if input.Phone != nil {
			current.Phone = strings.TrimSpace(*input.Phone)
		}
		if input.Notes != nil {
			current.Notes = *input.Notes
		}
		if input.Status != nil {
			current.Status = *input.Status
		}
		if input.TargetSales != nil {
			current.TargetSales = *input.TargetSales
		}
		return current, nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Big fish profile updated", "big_fish_id", wallet.ID)

	uc.forwarder.Forward(ctx, entity.SyncActionUpdate, wallet.ID, profileFields(wallet))

	return &UpdateBigFishOutput{Wallet: wallet}, nil
}
