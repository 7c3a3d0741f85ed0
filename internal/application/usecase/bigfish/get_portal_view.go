package bigfish

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/agency-crm/backend/internal/application/adapter"
	"github.com/agency-crm/backend/internal/domain/entity"
	domainerror "github.com/agency-crm/backend/internal/domain/error"
)

// GetPortalViewInput represents the input for the client portal page.
type GetPortalViewInput struct {
	BigFishID string
}

// GetPortalViewOutput is what a client may see about their own wallet.
// Balance and Transactions are nil when the portal config hides them.
// Hiding the balance also hides report spend: SpendHidden is set and every
// report carries a zero Spend and no Summary, since summaries quote the spend.
type GetPortalViewOutput struct {
	ID            string
	Name          string
	Company       string
	Status        entity.BigFishStatus
	Balance       *decimal.Decimal
	SpentAmount   *decimal.Decimal
	TargetSales   int
	CurrentSales  int
	SalesProgress float64
	Transactions  []entity.Transaction
	Reports       []entity.CampaignReport
	SpendHidden   bool
}

// GetPortalViewUseCase builds the client-facing view of a wallet.
type GetPortalViewUseCase struct {
	walletRepo adapter.WalletRepository
}

// NewGetPortalViewUseCase creates a new GetPortalViewUseCase instance.
func NewGetPortalViewUseCase(walletRepo adapter.WalletRepository) *GetPortalViewUseCase {
	return &GetPortalViewUseCase{
		walletRepo: walletRepo,
	}
}

// Execute returns the portal view honouring the wallet's portal config.
func (uc *GetPortalViewUseCase) Execute(ctx context.Context, input GetPortalViewInput) (*GetPortalViewOutput, error) {
	wallet, err := uc.walletRepo.GetByID(ctx, input.BigFishID)
	if err != nil {
		return nil, err
	}

	if wallet.PortalConfig.IsSuspended {
		return nil, domainerror.NewWalletError(
			domainerror.ErrCodePortalSuspended,
			"this portal has been suspended",
			domainerror.ErrPortalSuspended,
		)
	}

	output := &GetPortalViewOutput{
		ID:            wallet.ID,
		Name:          wallet.Name,
		Company:       wallet.Company,
		Status:        wallet.Status,
		TargetSales:   wallet.TargetSales,
		CurrentSales:  wallet.CurrentSales,
		SalesProgress: wallet.SalesProgress(),
		Reports:       wallet.Reports,
	}
	if wallet.PortalConfig.ShowBalance {
		balance, spent := wallet.Balance, wallet.SpentAmount
		output.Balance = &balance
		output.SpentAmount = &spent
	} else {
		output.SpendHidden = true
		output.Reports = make([]entity.CampaignReport, len(wallet.Reports))
		for i, report := range wallet.Reports {
			report.Spend = decimal.Zero
			report.Summary = ""
			output.Reports[i] = report
		}
	}
	if wallet.PortalConfig.ShowHistory {
		output.Transactions = wallet.SortedTransactions()
	}

	return output, nil
}
