package bigfish

import (
	"context"

	"github.com/agency-crm/backend/internal/application/adapter"
	"github.com/agency-crm/backend/internal/domain/entity"
)

// GetBigFishInput represents the input for fetching a wallet.
type GetBigFishInput struct {
	ID string
}

// GetBigFishOutput represents the output of fetching a wallet.
type GetBigFishOutput struct {
	Wallet *entity.BigFish
}

// GetBigFishUseCase handles fetching a single client wallet.
type GetBigFishUseCase struct {
	walletRepo adapter.WalletRepository
}

// NewGetBigFishUseCase creates a new GetBigFishUseCase instance.
func NewGetBigFishUseCase(walletRepo adapter.WalletRepository) *GetBigFishUseCase {
	return &GetBigFishUseCase{
		walletRepo: walletRepo,
	}
}

// Execute returns the wallet with its transactions sorted newest first.
func (uc *GetBigFishUseCase) Execute(ctx context.Context, input GetBigFishInput) (*GetBigFishOutput, error) {
	wallet, err := uc.walletRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	wallet.Transactions = wallet.SortedTransactions()
	return &GetBigFishOutput{Wallet: wallet}, nil
}
