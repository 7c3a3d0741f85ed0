package bigfish

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agency-crm/backend/internal/application/adapter"
	"github.com/agency-crm/backend/internal/domain/entity"
	"github.com/agency-crm/backend/internal/domain/ledger"
)

// ReconcileWalletsInput represents the input for checking cached aggregates.
type ReconcileWalletsInput struct {
	// Repair rewrites drifted wallets from their transactions.
	Repair bool
}

// ReconcileWalletsOutput lists the wallets whose caches disagree with their transactions.
type ReconcileWalletsOutput struct {
	Checked  int
	Drifted  []ledger.Drift
	Repaired bool
}

// ReconcileWalletsUseCase compares every wallet against the fold of its transactions.
type ReconcileWalletsUseCase struct {
	walletRepo adapter.WalletRepository
}

// NewReconcileWalletsUseCase creates a new ReconcileWalletsUseCase instance.
func NewReconcileWalletsUseCase(walletRepo adapter.WalletRepository) *ReconcileWalletsUseCase {
	return &ReconcileWalletsUseCase{
		walletRepo: walletRepo,
	}
}

// Execute reports drift and optionally repairs it.
// Repairs stay local; the remote store is not told.
func (uc *ReconcileWalletsUseCase) Execute(ctx context.Context, input ReconcileWalletsInput) (*ReconcileWalletsOutput, error) {
	wallets, err := uc.walletRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}

	output := &ReconcileWalletsOutput{Checked: len(wallets)}
	for _, w := range wallets {
		if drift := ledger.Verify(w); !drift.Consistent() {
			output.Drifted = append(output.Drifted, drift)
		}
	}

	if !input.Repair || len(output.Drifted) == 0 {
		return output, nil
	}

	// Recompute against the latest snapshot of each drifted wallet
	for _, drift := range output.Drifted {
		_, err := uc.walletRepo.Mutate(ctx, drift.WalletID, func(current entity.BigFish) (entity.BigFish, error) {
			return ledger.Recompute(current), nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to repair wallet %s: %w", drift.WalletID, err)
		}
	}
	output.Repaired = true

	slog.Info("Wallet aggregates repaired", "count", len(output.Drifted))

	return output, nil
}
