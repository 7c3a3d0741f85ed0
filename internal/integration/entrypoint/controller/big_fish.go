package controller

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agency-crm/backend/internal/application/usecase/bigfish"
	"github.com/agency-crm/backend/internal/domain/entity"
	domainerror "github.com/agency-crm/backend/internal/domain/error"
	"github.com/agency-crm/backend/internal/integration/entrypoint/dto"
)

// BigFishController handles client wallet endpoints.
type BigFishController struct {
	listUseCase         *bigfish.ListBigFishUseCase
	getUseCase          *bigfish.GetBigFishUseCase
	createUseCase       *bigfish.CreateBigFishUseCase
	updateUseCase       *bigfish.UpdateBigFishUseCase
	toggleStatusUseCase *bigfish.ToggleStatusUseCase
	portalConfigUseCase *bigfish.UpdatePortalConfigUseCase
	reportUseCase       *bigfish.GenerateReportUseCase
}

// NewBigFishController creates a new wallet controller instance.
func NewBigFishController(
	listUseCase *bigfish.ListBigFishUseCase,
	getUseCase *bigfish.GetBigFishUseCase,
	createUseCase *bigfish.CreateBigFishUseCase,
	updateUseCase *bigfish.UpdateBigFishUseCase,
	toggleStatusUseCase *bigfish.ToggleStatusUseCase,
	portalConfigUseCase *bigfish.UpdatePortalConfigUseCase,
	reportUseCase *bigfish.GenerateReportUseCase,
) *BigFishController {
	return &BigFishController{
		listUseCase:         listUseCase,
		getUseCase:          getUseCase,
		createUseCase:       createUseCase,
		updateUseCase:       updateUseCase,
		toggleStatusUseCase: toggleStatusUseCase,
		portalConfigUseCase: portalConfigUseCase,
		reportUseCase:       reportUseCase,
	}
}

// List handles GET /big-fish requests.
func (c *BigFishController) List(ctx *gin.Context) {
	input := bigfish.ListBigFishInput{}

	// Optional status filter
	if status := ctx.Query("status"); status != "" {
		input.Status = entity.BigFishStatus(status)
		if !input.Status.IsValid() {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error: "Invalid status filter",
				Code:  string(domainerror.ErrCodeInvalidStatus),
			})
			return
		}
	}

	output, err := c.listUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		handleWalletError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToBigFishListResponse(output))
}

// Get handles GET /big-fish/:id requests.
func (c *BigFishController) Get(ctx *gin.Context) {
	output, err := c.getUseCase.Execute(ctx.Request.Context(), bigfish.GetBigFishInput{
		ID: ctx.Param("id"),
	})
	if err != nil {
		handleWalletError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToBigFishResponse(output.Wallet))
}

// Create handles POST /big-fish requests.
func (c *BigFishController) Create(ctx *gin.Context) {
	var req dto.CreateBigFishRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid request body: " + err.Error(),
			Code:  string(domainerror.ErrCodeMissingWalletFields),
		})
		return
	}

	output, err := c.createUseCase.Execute(ctx.Request.Context(), bigfish.CreateBigFishInput{
		LeadID:         req.LeadID,
		Name:           req.Name,
		Company:        req.Company,
		Email:          req.Email,
		Phone:          req.Phone,
		Notes:          req.Notes,
		TargetSales:    req.TargetSales,
		InitialDeposit: req.InitialDeposit,
		Currency:       req.Currency,
	})
	if err != nil {
		handleWalletError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.ToBigFishResponse(output.Wallet))
}

// Update handles PATCH /big-fish/:id requests.
func (c *BigFishController) Update(ctx *gin.Context) {
	var req dto.UpdateBigFishRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid request body: " + err.Error(),
			Code:  string(domainerror.ErrCodeMissingWalletFields),
		})
		return
	}

	input := bigfish.UpdateBigFishInput{
		BigFishID:   ctx.Param("id"),
		Name:        req.Name,
		Company:     req.Company,
		Email:       req.Email,
		Phone:       req.Phone,
		Notes:       req.Notes,
		TargetSales: req.TargetSales,
	}
	if req.Status != nil {
		status := entity.BigFishStatus(*req.Status)
		input.Status = &status
	}

	output, err := c.updateUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		handleWalletError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToBigFishResponse(output.Wallet))
}

// ToggleStatus handles POST /big-fish/:id/toggle-status requests.
func (c *BigFishController) ToggleStatus(ctx *gin.Context) {
	output, err := c.toggleStatusUseCase.Execute(ctx.Request.Context(), bigfish.ToggleStatusInput{
		BigFishID: ctx.Param("id"),
	})
	if err != nil {
		handleWalletError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToBigFishResponse(output.Wallet))
}

// UpdatePortalConfig handles PATCH /big-fish/:id/portal-config requests.
func (c *BigFishController) UpdatePortalConfig(ctx *gin.Context) {
	var req dto.UpdatePortalConfigRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid request body: " + err.Error(),
			Code:  string(domainerror.ErrCodeMissingWalletFields),
		})
		return
	}

	output, err := c.portalConfigUseCase.Execute(ctx.Request.Context(), bigfish.UpdatePortalConfigInput{
		BigFishID:   ctx.Param("id"),
		ShowBalance: req.ShowBalance,
		ShowHistory: req.ShowHistory,
		IsSuspended: req.IsSuspended,
	})
	if err != nil {
		handleWalletError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToBigFishResponse(output.Wallet))
}

// GenerateReport handles POST /big-fish/:id/reports requests.
func (c *BigFishController) GenerateReport(ctx *gin.Context) {
	var req dto.GenerateReportRequest
	// An empty body reports over the whole history
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error: "Invalid request body: " + err.Error(),
				Code:  string(domainerror.ErrCodeMissingWalletFields),
			})
			return
		}
	}

	input := bigfish.GenerateReportInput{
		BigFishID: ctx.Param("id"),
		Title:     req.Title,
	}

	var err error
	if req.PeriodStart != "" {
		if input.PeriodStart, err = parseDate(req.PeriodStart); err != nil {
			invalidDate(ctx)
			return
		}
	}
	if req.PeriodEnd != "" {
		if input.PeriodEnd, err = parseDate(req.PeriodEnd); err != nil {
			invalidDate(ctx)
			return
		}
	}

	output, err := c.reportUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		handleWalletError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.GenerateReportResponse{
		BigFish: dto.ToBigFishResponse(output.Wallet),
		Report:  dto.ToCampaignReportResponse(output.Report),
	})
}

// parseDate accepts a calendar date or an RFC 3339 timestamp.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func invalidDate(ctx *gin.Context) {
	ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error: "Invalid date format. Use YYYY-MM-DD or RFC 3339",
		Code:  string(domainerror.ErrCodeInvalidTransactionDate),
	})
}

// handleWalletError maps wallet errors to HTTP responses.
func handleWalletError(ctx *gin.Context, err error) {
	var walletErr *domainerror.WalletError
	if errors.As(err, &walletErr) {
		ctx.JSON(getStatusCodeForWalletError(walletErr.Code), dto.ErrorResponse{
			Error: walletErr.Message,
			Code:  string(walletErr.Code),
		})
		return
	}

	slog.Error("Unhandled wallet error", "path", ctx.FullPath(), "error", err)

	// Generic server error
	ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
		Error: "An internal error occurred",
	})
}

// getStatusCodeForWalletError maps wallet error codes to HTTP status codes.
func getStatusCodeForWalletError(code domainerror.WalletErrorCode) int {
	switch code {
	case domainerror.ErrCodeInvalidAmount,
		domainerror.ErrCodeInvalidTransactionType,
		domainerror.ErrCodeInvalidTransactionDate,
		domainerror.ErrCodeDescriptionTooLong,
		domainerror.ErrCodeMissingWalletFields,
		domainerror.ErrCodeUnsupportedCurrency,
		domainerror.ErrCodeInvalidStatus,
		domainerror.ErrCodeInvalidMetadata:
		return http.StatusBadRequest
	case domainerror.ErrCodeWalletNotFound,
		domainerror.ErrCodeTransactionNotFound,
		domainerror.ErrCodeGrowthTaskNotFound:
		return http.StatusNotFound
	case domainerror.ErrCodeDuplicateTransaction:
		return http.StatusConflict
	case domainerror.ErrCodePortalSuspended:
		return http.StatusForbidden
	case domainerror.ErrCodeReportGenerationFailed:
		return http.StatusBadGateway
	case domainerror.ErrCodeWalletStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
