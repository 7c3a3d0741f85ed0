package bigfish

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agency-crm/backend/internal/application/adapter"
	"github.com/agency-crm/backend/internal/domain/entity"
	domainerror "github.com/agency-crm/backend/internal/domain/error"
	"github.com/agency-crm/backend/internal/domain/ledger"
	"github.com/agency-crm/backend/internal/domain/valueobject"
)

// CreateBigFishInput represents the input for onboarding a client wallet.
type CreateBigFishInput struct {
	LeadID      string
	Name        string
	Company     string
	Email       string
	Phone       string
	Notes       string
	TargetSales int
	// InitialDeposit is recorded as the first DEPOSIT when set.
	InitialDeposit *decimal.Decimal
	Currency       string
}

// CreateBigFishOutput represents the output of onboarding a client wallet.
type CreateBigFishOutput struct {
	Wallet *entity.BigFish
}

// CreateBigFishUseCase handles onboarding a client or promoting a lead.
type CreateBigFishUseCase struct {
	walletRepo adapter.WalletRepository
	forwarder  adapter.SyncForwarder
}

// NewCreateBigFishUseCase creates a new CreateBigFishUseCase instance.
func NewCreateBigFishUseCase(walletRepo adapter.WalletRepository, forwarder adapter.SyncForwarder) *CreateBigFishUseCase {
	return &CreateBigFishUseCase{
		walletRepo: walletRepo,
		forwarder:  forwarder,
	}
}

// Execute creates the wallet, saves it and forwards it to the remote store.
func (uc *CreateBigFishUseCase) Execute(ctx context.Context, input CreateBigFishInput) (*CreateBigFishOutput, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domainerror.NewWalletError(
			domainerror.ErrCodeMissingWalletFields,
			"name is required",
			nil,
		)
	}
	if input.TargetSales < 0 {
		return nil, domainerror.NewWalletError(
			domainerror.ErrCodeMissingWalletFields,
			"target sales must not be negative",
			nil,
		)
	}

	wallet := entity.NewBigFish(
		name,
		strings.TrimSpace(input.Company),
		strings.TrimSpace(input.Email),
		strings.TrimSpace(input.Phone),
		input.LeadID,
		input.TargetSales,
	)
	wallet.Notes = input.Notes

	// Record the opening deposit through the reconciler
	if input.InitialDeposit != nil {
		amount, err := valueobject.ParseMoney(*input.InitialDeposit, input.Currency)
		if err != nil {
			return nil, err
		}
		deposit := entity.NewTransaction(time.Time{}, entity.TransactionTypeDeposit, amount.Amount(), "Initial deposit", nil)
		next, err := ledger.ApplyAdd(*wallet, *deposit)
		if err != nil {
			return nil, err
		}
		wallet = &next
	}

	if err := uc.walletRepo.Create(ctx, wallet); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	slog.Info("Big fish wallet created",
		"big_fish_id", wallet.ID,
		"lead_id", wallet.LeadID,
	)

	fields := merge(profileFields(wallet), aggregateFields(wallet))
	fields["portal_config"] = portalConfigFields(wallet.PortalConfig)
	if len(wallet.Transactions) > 0 {
		txs := make([]map[string]interface{}, len(wallet.Transactions))
		for i, tx := range wallet.Transactions {
			txs[i] = transactionFields(tx)
		}
		fields["transactions"] = txs
	}
	uc.forwarder.Forward(ctx, entity.SyncActionCreate, wallet.ID, fields)

	return &CreateBigFishOutput{Wallet: wallet}, nil
}
