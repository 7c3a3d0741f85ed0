package bigfish

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agency-crm/backend/internal/application/adapter"
	"github.com/agency-crm/backend/internal/domain/entity"
	domainerror "github.com/agency-crm/backend/internal/domain/error"
	"github.com/agency-crm/backend/internal/domain/ledger"
	"github.com/agency-crm/backend/internal/domain/valueobject"
)

// UpdateTransactionInput represents the input for editing a transaction.
// Only amount, date and description can change.
type UpdateTransactionInput struct {
	BigFishID     string
	TransactionID string
	Amount        *decimal.Decimal
	Currency      string
	Date          *time.Time
	Description   *string
}

// UpdateTransactionOutput represents the output of editing a transaction.
// TransactionFound is false when the id was not in the wallet; nothing changed then.
type UpdateTransactionOutput struct {
	Wallet           *entity.BigFish
	Transaction      *entity.Transaction
	TransactionFound bool
}

// UpdateTransactionUseCase handles editing a transaction on a client wallet.
type UpdateTransactionUseCase struct {
	walletRepo adapter.WalletRepository
	forwarder  adapter.SyncForwarder
}

// NewUpdateTransactionUseCase creates a new UpdateTransactionUseCase instance.
func NewUpdateTransactionUseCase(walletRepo adapter.WalletRepository, forwarder adapter.SyncForwarder) *UpdateTransactionUseCase {
	return &UpdateTransactionUseCase{
		walletRepo: walletRepo,
		forwarder:  forwarder,
	}
}

// Execute applies the edit, saves the wallet and forwards the mutation.
func (uc *UpdateTransactionUseCase) Execute(ctx context.Context, input UpdateTransactionInput) (*UpdateTransactionOutput, error) {
	patch := entity.TransactionPatch{
		Date:        input.Date,
		Description: input.Description,
	}
	if input.Amount != nil {
		amount, err := valueobject.ParseMoney(*input.Amount, input.Currency)
		if err != nil {
			return nil, err
		}
		value := amount.Amount()
		patch.Amount = &value
	} else if err := valueobject.ValidateCurrency(input.Currency); err != nil {
		return nil, err
	}

	if patch.IsEmpty() {
		return nil, domainerror.NewWalletError(
			domainerror.ErrCodeMissingWalletFields,
			"at least one of amount, date or description is required",
			nil,
		)
	}

	wallet, err := uc.walletRepo.Mutate(ctx, input.BigFishID, func(current entity.BigFish) (entity.BigFish, error) {
		next, found, err := ledger.ApplyEdit(current, input.TransactionID, patch)
		if err != nil {
			return current, err
		}
		if !found {
			return current, transactionNotFound(input.TransactionID)
		}
		return next, nil
	})
	if err != nil {
		if isTransactionNotFound(err) {
			return uc.notFound(ctx, input)
		}
		return nil, err
	}

	idx, _ := wallet.FindTransaction(input.TransactionID)
	tx := wallet.Transactions[idx]

	slog.Info("Transaction updated",
		"big_fish_id", wallet.ID,
		"transaction_id", tx.ID,
		"amount", tx.Amount.String(),
		"balance", wallet.Balance.String(),
	)

	fields := aggregateFields(wallet)
	fields["transaction_id"] = tx.ID
	fields["amount"] = tx.Amount.InexactFloat64()
	fields["date"] = tx.Date.UTC().Format(time.RFC3339)
	fields["description"] = tx.Description
	uc.forwarder.Forward(ctx, entity.SyncActionUpdateTransaction, wallet.ID, fields)

	return &UpdateTransactionOutput{
		Wallet:           wallet,
		Transaction:      &tx,
		TransactionFound: true,
	}, nil
}

// notFound reports the no-op edit with the unchanged wallet.
func (uc *UpdateTransactionUseCase) notFound(ctx context.Context, input UpdateTransactionInput) (*UpdateTransactionOutput, error) {
	slog.Warn("Transaction to update not found, nothing changed",
		"big_fish_id", input.BigFishID,
		"transaction_id", input.TransactionID,
	)

	wallet, err := uc.walletRepo.GetByID(ctx, input.BigFishID)
	if err != nil {
		return nil, err
	}
	return &UpdateTransactionOutput{Wallet: wallet}, nil
}
