package bigfish

import (
	"context"
	"log/slog"

	"github.com/agency-crm/backend/internal/application/adapter"
	"github.com/agency-crm/backend/internal/domain/entity"
	"github.com/agency-crm/backend/internal/domain/ledger"
)

// DeleteTransactionInput represents the input for removing a transaction.
type DeleteTransactionInput struct {
	BigFishID     string
	TransactionID string
}

// DeleteTransactionOutput represents the output of removing a transaction.
// TransactionFound is false when the id was not in the wallet; nothing changed then.
type DeleteTransactionOutput struct {
	Wallet           *entity.BigFish
	TransactionFound bool
}

// DeleteTransactionUseCase handles removing a transaction from a client wallet.
type DeleteTransactionUseCase struct {
	walletRepo adapter.WalletRepository
	forwarder  adapter.SyncForwarder
}

// NewDeleteTransactionUseCase creates a new DeleteTransactionUseCase instance.
func NewDeleteTransactionUseCase(walletRepo adapter.WalletRepository, forwarder adapter.SyncForwarder) *DeleteTransactionUseCase {
	return &DeleteTransactionUseCase{
		walletRepo: walletRepo,
		forwarder:  forwarder,
	}
}

// Execute reverses and removes the transaction, saves the wallet and forwards the mutation.
// Deleting an unknown id is a no-op.
func (uc *DeleteTransactionUseCase) Execute(ctx context.Context, input DeleteTransactionInput) (*DeleteTransactionOutput, error) {
	wallet, err := uc.walletRepo.Mutate(ctx, input.BigFishID, func(current entity.BigFish) (entity.BigFish, error) {
		next, found := ledger.ApplyDelete(current, input.TransactionID)
		if !found {
			return current, transactionNotFound(input.TransactionID)
		}
		return next, nil
	})
	if err != nil {
		if !isTransactionNotFound(err) {
			return nil, err
		}

		slog.Warn("Transaction to delete not found, nothing changed",
			"big_fish_id", input.BigFishID,
			"transaction_id", input.TransactionID,
		)
		unchanged, err := uc.walletRepo.GetByID(ctx, input.BigFishID)
		if err != nil {
			return nil, err
		}
		return &DeleteTransactionOutput{Wallet: unchanged}, nil
	}

	slog.Info("Transaction deleted",
		"big_fish_id", wallet.ID,
		"transaction_id", input.TransactionID,
		"balance", wallet.Balance.String(),
	)

	fields := aggregateFields(wallet)
	fields["transaction_id"] = input.TransactionID
	uc.forwarder.Forward(ctx, entity.SyncActionDeleteTransaction, wallet.ID, fields)

	return &DeleteTransactionOutput{
		Wallet:           wallet,
		TransactionFound: true,
	}, nil
}
