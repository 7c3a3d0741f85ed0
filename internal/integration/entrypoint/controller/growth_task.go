package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agency-crm/backend/internal/application/usecase/bigfish"
	domainerror "github.com/agency-crm/backend/internal/domain/error"
	"github.com/agency-crm/backend/internal/integration/entrypoint/dto"
)

// GrowthTaskController handles growth task endpoints.
type GrowthTaskController struct {
	addUseCase    *bigfish.AddGrowthTaskUseCase
	toggleUseCase *bigfish.ToggleGrowthTaskUseCase
	deleteUseCase *bigfish.DeleteGrowthTaskUseCase
}

// NewGrowthTaskController creates a new growth task controller instance.
func NewGrowthTaskController(
	addUseCase *bigfish.AddGrowthTaskUseCase,
	toggleUseCase *bigfish.ToggleGrowthTaskUseCase,
	deleteUseCase *bigfish.DeleteGrowthTaskUseCase,
) *GrowthTaskController {
	return &GrowthTaskController{
		addUseCase:    addUseCase,
		toggleUseCase: toggleUseCase,
		deleteUseCase: deleteUseCase,
	}
}

// Add handles POST /big-fish/:id/growth-tasks requests.
func (c *GrowthTaskController) Add(ctx *gin.Context) {
	var req dto.AddGrowthTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid request body: " + err.Error(),
			Code:  string(domainerror.ErrCodeMissingWalletFields),
		})
		return
	}

	due, err := dueDate(req.DueDate)
	if err != nil {
		invalidDate(ctx)
		return
	}

	output, err := c.addUseCase.Execute(ctx.Request.Context(), bigfish.AddGrowthTaskInput{
		BigFishID: ctx.Param("id"),
		Title:     req.Title,
		DueDate:   due,
	})
	if err != nil {
		handleWalletError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.ToGrowthTaskResponse(output.Task))
}

// Toggle handles POST /big-fish/:id/growth-tasks/:taskId/toggle requests.
func (c *GrowthTaskController) Toggle(ctx *gin.Context) {
	output, err := c.toggleUseCase.Execute(ctx.Request.Context(), bigfish.ToggleGrowthTaskInput{
		BigFishID: ctx.Param("id"),
		TaskID:    ctx.Param("taskId"),
	})
	if err != nil {
		handleWalletError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToGrowthTaskResponse(output.Task))
}

// Delete handles DELETE /big-fish/:id/growth-tasks/:taskId requests.
func (c *GrowthTaskController) Delete(ctx *gin.Context) {
	_, err := c.deleteUseCase.Execute(ctx.Request.Context(), bigfish.DeleteGrowthTaskInput{
		BigFishID: ctx.Param("id"),
		TaskID:    ctx.Param("taskId"),
	})
	if err != nil {
		handleWalletError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// dueDate parses an optional growth task due date.
func dueDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := parseDate(*value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
