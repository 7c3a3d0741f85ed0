package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/agency-crm/backend/internal/application/usecase/bigfish"
	"github.com/agency-crm/backend/internal/domain/entity"
	"github.com/agency-crm/backend/internal/domain/valueobject"
)

// CreateBigFishRequest represents the request body for wallet creation.
type CreateBigFishRequest struct {
	LeadID         string           `json:"lead_id,omitempty"`
	Name           string           `json:"name" binding:"required,min=1,max=255"`
	Company        string           `json:"company,omitempty" binding:"omitempty,max=255"`
	Email          string           `json:"email,omitempty" binding:"omitempty,email"`
	Phone          string           `json:"phone,omitempty" binding:"omitempty,max=50"`
	Notes          string           `json:"notes,omitempty" binding:"omitempty,max=2000"`
	TargetSales    int              `json:"target_sales,omitempty" binding:"omitempty,min=0"`
	InitialDeposit *decimal.Decimal `json:"initial_deposit,omitempty"`
	Currency       string           `json:"currency,omitempty"`
}

// UpdateBigFishRequest represents the request body for a profile update.
type UpdateBigFishRequest struct {
	Name        *string `json:"name,omitempty" binding:"omitempty,min=1,max=255"`
	Company     *string `json:"company,omitempty" binding:"omitempty,max=255"`
	Email       *string `json:"email,omitempty" binding:"omitempty,email"`
	Phone       *string `json:"phone,omitempty" binding:"omitempty,max=50"`
	Notes       *string `json:"notes,omitempty" binding:"omitempty,max=2000"`
	Status      *string `json:"status,omitempty"`
	TargetSales *int    `json:"target_sales,omitempty" binding:"omitempty,min=0"`
}

// UpdatePortalConfigRequest represents the request body for portal settings.
type UpdatePortalConfigRequest struct {
	ShowBalance *bool `json:"show_balance,omitempty"`
	ShowHistory *bool `json:"show_history,omitempty"`
	IsSuspended *bool `json:"is_suspended,omitempty"`
}

// CampaignMetadataRequest represents campaign results sent with an ad spend.
type CampaignMetadataRequest struct {
	Impressions int64            `json:"impressions" binding:"min=0"`
	Reach       int64            `json:"reach" binding:"min=0"`
	Leads       int              `json:"leads" binding:"min=0"`
	ResultType  string           `json:"result_type,omitempty" binding:"omitempty,oneof=SALES MESSAGES"`
	ROAS        *decimal.Decimal `json:"roas,omitempty"`
}

// AddTransactionRequest represents the request body for adding a wallet transaction.
type AddTransactionRequest struct {
	ID          string                   `json:"id,omitempty"`
	Date        string                   `json:"date,omitempty"`
	Type        string                   `json:"type" binding:"required,oneof=DEPOSIT DEDUCT AD_SPEND SERVICE_CHARGE"`
	Amount      *decimal.Decimal         `json:"amount" binding:"required"`
	Currency    string                   `json:"currency,omitempty"`
	Description string                   `json:"description,omitempty" binding:"omitempty,max=255"`
	Metadata    *CampaignMetadataRequest `json:"metadata,omitempty"`
}

// UpdateTransactionRequest represents the request body for editing a transaction.
// The transaction type cannot be changed.
type UpdateTransactionRequest struct {
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Currency    string           `json:"currency,omitempty"`
	Date        *string          `json:"date,omitempty"`
	Description *string          `json:"description,omitempty" binding:"omitempty,max=255"`
}

// AddGrowthTaskRequest represents the request body for adding a growth task.
type AddGrowthTaskRequest struct {
	Title   string  `json:"title" binding:"required,min=1,max=200"`
	DueDate *string `json:"due_date,omitempty"`
}

// GenerateReportRequest represents the request body for report generation.
type GenerateReportRequest struct {
	Title       string `json:"title,omitempty" binding:"omitempty,max=255"`
	PeriodStart string `json:"period_start,omitempty"`
	PeriodEnd   string `json:"period_end,omitempty"`
}

// PortalConfigResponse represents portal settings in API responses.
type PortalConfigResponse struct {
	ShowBalance bool `json:"show_balance"`
	ShowHistory bool `json:"show_history"`
	IsSuspended bool `json:"is_suspended"`
}

// CampaignMetadataResponse represents campaign results in API responses.
type CampaignMetadataResponse struct {
	Impressions int64   `json:"impressions"`
	Reach       int64   `json:"reach"`
	Leads       int     `json:"leads"`
	ResultType  string  `json:"result_type,omitempty"`
	ROAS        float64 `json:"roas"`
}

// WalletTransactionResponse represents a wallet transaction in API responses.
type WalletTransactionResponse struct {
	ID            string                    `json:"id"`
	Date          time.Time                 `json:"date"`
	Type          string                    `json:"type"`
	Amount        float64                   `json:"amount"`
	AmountDisplay string                    `json:"amount_display"`
	Description   string                    `json:"description"`
	Metadata      *CampaignMetadataResponse `json:"metadata,omitempty"`
	CreatedAt     time.Time                 `json:"created_at"`
}

// GrowthTaskResponse represents a growth task in API responses.
type GrowthTaskResponse struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Completed bool       `json:"completed"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// CampaignReportResponse represents a campaign report in API responses.
// Spend is omitted on a portal that hides the balance.
type CampaignReportResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	PeriodStart  string    `json:"period_start,omitempty"`
	PeriodEnd    string    `json:"period_end,omitempty"`
	Spend        *float64  `json:"spend,omitempty"`
	SpendDisplay string    `json:"spend_display,omitempty"`
	Impressions  int64     `json:"impressions"`
	Reach        int64     `json:"reach"`
	Leads        int       `json:"leads"`
	Sales        int       `json:"sales"`
	AverageROAS  float64   `json:"average_roas"`
	Campaigns    int       `json:"campaigns"`
	Summary      string    `json:"summary"`
	GeneratedBy  string    `json:"generated_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// BigFishResponse represents a client wallet in API responses.
type BigFishResponse struct {
	ID                 string                      `json:"id"`
	LeadID             string                      `json:"lead_id,omitempty"`
	Name               string                      `json:"name"`
	Company            string                      `json:"company"`
	Email              string                      `json:"email"`
	Phone              string                      `json:"phone"`
	Notes              string                      `json:"notes"`
	Status             string                      `json:"status"`
	Currency           string                      `json:"currency"`
	Balance            float64                     `json:"balance"`
	BalanceDisplay     string                      `json:"balance_display"`
	SpentAmount        float64                     `json:"spent_amount"`
	SpentAmountDisplay string                      `json:"spent_amount_display"`
	TargetSales        int                         `json:"target_sales"`
	CurrentSales       int                         `json:"current_sales"`
	SalesProgress      float64                     `json:"sales_progress"`
	PortalConfig       PortalConfigResponse        `json:"portal_config"`
	Transactions       []WalletTransactionResponse `json:"transactions"`
	GrowthTasks        []GrowthTaskResponse        `json:"growth_tasks"`
	Reports            []CampaignReportResponse    `json:"reports"`
	CreatedAt          time.Time                   `json:"created_at"`
	UpdatedAt          time.Time                   `json:"updated_at"`
}

// BigFishListResponse represents the response for listing wallets.
type BigFishListResponse struct {
	BigFish []BigFishResponse `json:"big_fish"`
	Total   int               `json:"total"`
}

// TransactionMutationResponse represents the response for transaction edits and deletes.
// Warning is set when the transaction was not found and nothing changed.
type TransactionMutationResponse struct {
	BigFish     BigFishResponse            `json:"big_fish"`
	Transaction *WalletTransactionResponse `json:"transaction,omitempty"`
	Warning     string                     `json:"warning,omitempty"`
}

// AddTransactionResponse represents the response for a new transaction.
type AddTransactionResponse struct {
	BigFish     BigFishResponse           `json:"big_fish"`
	Transaction WalletTransactionResponse `json:"transaction"`
}

// GenerateReportResponse represents the response for report generation.
type GenerateReportResponse struct {
	BigFish BigFishResponse        `json:"big_fish"`
	Report  CampaignReportResponse `json:"report"`
}

// PortalViewResponse represents the client-facing portal view.
// Balance fields are omitted when the wallet hides them.
type PortalViewResponse struct {
	ID                 string                      `json:"id"`
	Name               string                      `json:"name"`
	Company            string                      `json:"company"`
	Status             string                      `json:"status"`
	Balance            *float64                    `json:"balance,omitempty"`
	BalanceDisplay     string                      `json:"balance_display,omitempty"`
	SpentAmount        *float64                    `json:"spent_amount,omitempty"`
	SpentAmountDisplay string                      `json:"spent_amount_display,omitempty"`
	TargetSales        int                         `json:"target_sales"`
	CurrentSales       int                         `json:"current_sales"`
	SalesProgress      float64                     `json:"sales_progress"`
	Transactions       []WalletTransactionResponse `json:"transactions,omitempty"`
	Reports            []CampaignReportResponse    `json:"reports"`
}

// ToBigFishResponse converts a wallet entity to a BigFishResponse DTO.
func ToBigFishResponse(w *entity.BigFish) BigFishResponse {
	response := BigFishResponse{
		ID:                 w.ID,
		LeadID:             w.LeadID,
		Name:               w.Name,
		Company:            w.Company,
		Email:              w.Email,
		Phone:              w.Phone,
		Notes:              w.Notes,
		Status:             string(w.Status),
		Currency:           valueobject.LedgerCurrency,
		Balance:            w.Balance.InexactFloat64(),
		BalanceDisplay:     valueobject.NewMoney(w.Balance).String(),
		SpentAmount:        w.SpentAmount.InexactFloat64(),
		SpentAmountDisplay: valueobject.NewMoney(w.SpentAmount).String(),
		TargetSales:        w.TargetSales,
		CurrentSales:       w.CurrentSales,
		SalesProgress:      w.SalesProgress(),
		PortalConfig: PortalConfigResponse{
			ShowBalance: w.PortalConfig.ShowBalance,
			ShowHistory: w.PortalConfig.ShowHistory,
			IsSuspended: w.PortalConfig.IsSuspended,
		},
		Transactions: ToWalletTransactionResponses(w.SortedTransactions()),
		GrowthTasks:  make([]GrowthTaskResponse, 0, len(w.GrowthTasks)),
		Reports:      ToCampaignReportResponses(w.Reports),
		CreatedAt:    w.CreatedAt,
		UpdatedAt:    w.UpdatedAt,
	}

	for _, task := range w.GrowthTasks {
		response.GrowthTasks = append(response.GrowthTasks, ToGrowthTaskResponse(task))
	}

	return response
}

// ToBigFishListResponse converts a list output to a BigFishListResponse DTO.
func ToBigFishListResponse(output *bigfish.ListBigFishOutput) BigFishListResponse {
	response := BigFishListResponse{
		BigFish: make([]BigFishResponse, 0, len(output.Wallets)),
		Total:   len(output.Wallets),
	}
	for i := range output.Wallets {
		response.BigFish = append(response.BigFish, ToBigFishResponse(&output.Wallets[i]))
	}
	return response
}

// ToWalletTransactionResponse converts a transaction entity to its DTO.
func ToWalletTransactionResponse(tx entity.Transaction) WalletTransactionResponse {
	response := WalletTransactionResponse{
		ID:            tx.ID,
		Date:          tx.Date,
		Type:          string(tx.Type),
		Amount:        tx.Amount.InexactFloat64(),
		AmountDisplay: valueobject.NewMoney(tx.Amount).String(),
		Description:   tx.Description,
		CreatedAt:     tx.CreatedAt,
	}

	if tx.Metadata != nil {
		response.Metadata = &CampaignMetadataResponse{
			Impressions: tx.Metadata.Impressions,
			Reach:       tx.Metadata.Reach,
			Leads:       tx.Metadata.Leads,
			ResultType:  string(tx.Metadata.ResultType),
			ROAS:        tx.Metadata.ROAS.InexactFloat64(),
		}
	}

	return response
}

// ToWalletTransactionResponses converts transactions to DTOs, never returning nil.
func ToWalletTransactionResponses(txs []entity.Transaction) []WalletTransactionResponse {
	out := make([]WalletTransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, ToWalletTransactionResponse(tx))
	}
	return out
}

// ToGrowthTaskResponse converts a growth task entity to its DTO.
func ToGrowthTaskResponse(task entity.GrowthTask) GrowthTaskResponse {
	return GrowthTaskResponse{
		ID:        task.ID,
		Title:     task.Title,
		Completed: task.Completed,
		DueDate:   task.DueDate,
		CreatedAt: task.CreatedAt,
	}
}

// ToCampaignReportResponse converts a campaign report entity to its DTO.
func ToCampaignReportResponse(r entity.CampaignReport) CampaignReportResponse {
	spend := r.Spend.InexactFloat64()
	response := CampaignReportResponse{
		ID:           r.ID,
		Title:        r.Title,
		Spend:        &spend,
		SpendDisplay: valueobject.NewMoney(r.Spend).String(),
		Impressions:  r.Impressions,
		Reach:        r.Reach,
		Leads:        r.Leads,
		Sales:        r.Sales,
		AverageROAS:  r.AverageROAS.InexactFloat64(),
		Campaigns:    r.Campaigns,
		Summary:      r.Summary,
		GeneratedBy:  r.GeneratedBy,
		CreatedAt:    r.CreatedAt,
	}
	if !r.PeriodStart.IsZero() {
		response.PeriodStart = r.PeriodStart.Format("2006-01-02")
	}
	if !r.PeriodEnd.IsZero() {
		response.PeriodEnd = r.PeriodEnd.Format("2006-01-02")
	}
	return response
}

// ToCampaignReportResponses converts reports to DTOs, never returning nil.
func ToCampaignReportResponses(reports []entity.CampaignReport) []CampaignReportResponse {
	out := make([]CampaignReportResponse, 0, len(reports))
	for _, r := range reports {
		out = append(out, ToCampaignReportResponse(r))
	}
	return out
}

// ToPortalViewResponse converts a portal view output to its DTO.
func ToPortalViewResponse(output *bigfish.GetPortalViewOutput) PortalViewResponse {
	response := PortalViewResponse{
		ID:            output.ID,
		Name:          output.Name,
		Company:       output.Company,
		Status:        string(output.Status),
		TargetSales:   output.TargetSales,
		CurrentSales:  output.CurrentSales,
		SalesProgress: output.SalesProgress,
		Reports:       ToCampaignReportResponses(output.Reports),
	}
	if output.SpendHidden {
		for i := range response.Reports {
			response.Reports[i].Spend = nil
			response.Reports[i].SpendDisplay = ""
		}
	}

	if output.Balance != nil {
		balance := output.Balance.InexactFloat64()
		response.Balance = &balance
		response.BalanceDisplay = valueobject.NewMoney(*output.Balance).String()
	}
	if output.SpentAmount != nil {
		spent := output.SpentAmount.InexactFloat64()
		response.SpentAmount = &spent
		response.SpentAmountDisplay = valueobject.NewMoney(*output.SpentAmount).String()
	}
	if output.Transactions != nil {
		response.Transactions = ToWalletTransactionResponses(output.Transactions)
	}

	return response
}
