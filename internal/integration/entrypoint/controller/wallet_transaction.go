package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/agency-crm/backend/internal/application/usecase/bigfish"
	"github.com/agency-crm/backend/internal/domain/entity"
	domainerror "github.com/agency-crm/backend/internal/domain/error"
	"github.com/agency-crm/backend/internal/integration/entrypoint/dto"
)

// transactionNotFoundWarning is returned with a 200 when an edit or delete targets an unknown id.
const transactionNotFoundWarning = "transaction not found; wallet unchanged"

// WalletTransactionController handles wallet transaction endpoints.
type WalletTransactionController struct {
	addUseCase    *bigfish.AddTransactionUseCase
	updateUseCase *bigfish.UpdateTransactionUseCase
	deleteUseCase *bigfish.DeleteTransactionUseCase
}

// NewWalletTransactionController creates a new wallet transaction controller instance.
func NewWalletTransactionController(
	addUseCase *bigfish.AddTransactionUseCase,
	updateUseCase *bigfish.UpdateTransactionUseCase,
	deleteUseCase *bigfish.DeleteTransactionUseCase,
) *WalletTransactionController {
	return &WalletTransactionController{
		addUseCase:    addUseCase,
		updateUseCase: updateUseCase,
		deleteUseCase: deleteUseCase,
	}
}

// Add handles POST /big-fish/:id/transactions requests.
func (c *WalletTransactionController) Add(ctx *gin.Context) {
	var req dto.AddTransactionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid request body: " + err.Error(),
			Code:  string(domainerror.ErrCodeMissingWalletFields),
		})
		return
	}

	input := bigfish.AddTransactionInput{
		BigFishID:   ctx.Param("id"),
		ID:          req.ID,
		Type:        entity.TransactionType(req.Type),
		Amount:      *req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
	}

	// Missing date defaults to now
	if req.Date != "" {
		date, err := parseDate(req.Date)
		if err != nil {
			invalidDate(ctx)
			return
		}
		input.Date = date
	}

	if req.Metadata != nil {
		input.Metadata = &entity.CampaignMetadata{
			Impressions: req.Metadata.Impressions,
			Reach:       req.Metadata.Reach,
			Leads:       req.Metadata.Leads,
			ResultType:  entity.ResultType(req.Metadata.ResultType),
			ROAS:        decimal.Zero,
		}
		if req.Metadata.ROAS != nil {
			input.Metadata.ROAS = *req.Metadata.ROAS
		}
	}

	output, err := c.addUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		handleWalletError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.AddTransactionResponse{
		BigFish:     dto.ToBigFishResponse(output.Wallet),
		Transaction: dto.ToWalletTransactionResponse(output.Transaction),
	})
}

// Update handles PATCH /big-fish/:id/transactions/:transactionId requests.
func (c *WalletTransactionController) Update(ctx *gin.Context) {
	var req dto.UpdateTransactionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid request body: " + err.Error(),
			Code:  string(domainerror.ErrCodeMissingWalletFields),
		})
		return
	}

	input := bigfish.UpdateTransactionInput{
		BigFishID:     ctx.Param("id"),
		TransactionID: ctx.Param("transactionId"),
		Amount:        req.Amount,
		Currency:      req.Currency,
		Description:   req.Description,
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			invalidDate(ctx)
			return
		}
		input.Date = &date
	}

	output, err := c.updateUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		handleWalletError(ctx, err)
		return
	}

	response := dto.TransactionMutationResponse{
		BigFish: dto.ToBigFishResponse(output.Wallet),
	}
	if !output.TransactionFound {
		response.Warning = transactionNotFoundWarning
	} else if output.Transaction != nil {
		tx := dto.ToWalletTransactionResponse(*output.Transaction)
		response.Transaction = &tx
	}

	ctx.JSON(http.StatusOK, response)
}

// Delete handles DELETE /big-fish/:id/transactions/:transactionId requests.
func (c *WalletTransactionController) Delete(ctx *gin.Context) {
	output, err := c.deleteUseCase.Execute(ctx.Request.Context(), bigfish.DeleteTransactionInput{
		BigFishID:     ctx.Param("id"),
		TransactionID: ctx.Param("transactionId"),
	})
	if err != nil {
		handleWalletError(ctx, err)
		return
	}

	response := dto.TransactionMutationResponse{
		BigFish: dto.ToBigFishResponse(output.Wallet),
	}
	if !output.TransactionFound {
		response.Warning = transactionNotFoundWarning
	}

	ctx.JSON(http.StatusOK, response)
}
