package bigfish

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agency-crm/backend/internal/application/adapter"
	"github.com/agency-crm/backend/internal/domain/entity"
	"github.com/agency-crm/backend/internal/domain/ledger"
	"github.com/agency-crm/backend/internal/domain/valueobject"
)

// AddTransactionInput represents the input for appending a transaction to a wallet.
type AddTransactionInput struct {
	BigFishID string
	// ID is generated when empty.
	ID          string
	Date        time.Time
	Type        entity.TransactionType
	Amount      decimal.Decimal
	Currency    string
	Description string
	Metadata    *entity.CampaignMetadata
}

// AddTransactionOutput represents the output of appending a transaction.
type AddTransactionOutput struct {
	Wallet      *entity.BigFish
	Transaction entity.Transaction
}

// AddTransactionUseCase handles appending a transaction to a client wallet.
type AddTransactionUseCase struct {
	walletRepo adapter.WalletRepository
	forwarder  adapter.SyncForwarder
}

// NewAddTransactionUseCase creates a new AddTransactionUseCase instance.
func NewAddTransactionUseCase(walletRepo adapter.WalletRepository, forwarder adapter.SyncForwarder) *AddTransactionUseCase {
	return &AddTransactionUseCase{
		walletRepo: walletRepo,
		forwarder:  forwarder,
	}
}

// Execute validates the transaction, applies it, saves the wallet and forwards the mutation.
func (uc *AddTransactionUseCase) Execute(ctx context.Context, input AddTransactionInput) (*AddTransactionOutput, error) {
	amount, err := valueobject.ParseMoney(input.Amount, input.Currency)
	if err != nil {
		return nil, err
	}

	tx := entity.NewTransaction(input.Date, input.Type, amount.Amount(), input.Description, input.Metadata)
	if input.ID != "" {
		tx.ID = input.ID
	}

	// Validate before touching the store
	if err := ledger.ValidateTransaction(*tx); err != nil {
		return nil, err
	}

	wallet, err := uc.walletRepo.Mutate(ctx, input.BigFishID, func(current entity.BigFish) (entity.BigFish, error) {
		return ledger.ApplyAdd(current, *tx)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Transaction added",
		"big_fish_id", wallet.ID,
		"transaction_id", tx.ID,
		"type", tx.Type,
		"amount", tx.Amount.String(),
		"balance", wallet.Balance.String(),
	)

	uc.forwarder.Forward(ctx, entity.SyncActionAddTransaction, wallet.ID,
		merge(transactionFields(*tx), aggregateFields(wallet)))

	return &AddTransactionOutput{
		Wallet:      wallet,
		Transaction: *tx,
	}, nil
}
