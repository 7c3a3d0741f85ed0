package bigfish

import (
	"context"
	"fmt"
	"sort"

	"github.com/agency-crm/backend/internal/application/adapter"
	"github.com/agency-crm/backend/internal/domain/entity"
)

// ListBigFishInput represents the input for listing wallets.
type ListBigFishInput struct {
	// Status filters by lifecycle marker when set.
	Status entity.BigFishStatus
}

// ListBigFishOutput represents the output of listing wallets.
type ListBigFishOutput struct {
	Wallets []entity.BigFish
}

// ListBigFishUseCase handles listing client wallets.
type ListBigFishUseCase struct {
	walletRepo adapter.WalletRepository
}

// NewListBigFishUseCase creates a new ListBigFishUseCase instance.
func NewListBigFishUseCase(walletRepo adapter.WalletRepository) *ListBigFishUseCase {
	return &ListBigFishUseCase{
		walletRepo: walletRepo,
	}
}

// Execute returns every wallet, newest first.
func (uc *ListBigFishUseCase) Execute(ctx context.Context, input ListBigFishInput) (*ListBigFishOutput, error) {
	wallets, err := uc.walletRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}

	filtered := make([]entity.BigFish, 0, len(wallets))
	for _, w := range wallets {
		if input.Status != "" && w.Status != input.Status {
			continue
		}
		w.Transactions = w.SortedTransactions()
		filtered = append(filtered, w)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	return &ListBigFishOutput{Wallets: filtered}, nil
}
