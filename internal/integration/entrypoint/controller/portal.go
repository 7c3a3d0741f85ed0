package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agency-crm/backend/internal/application/usecase/bigfish"
	"github.com/agency-crm/backend/internal/integration/entrypoint/dto"
)

// PortalController serves the public client portal.
type PortalController struct {
	viewUseCase *bigfish.GetPortalViewUseCase
}

// NewPortalController creates a new portal controller instance.
func NewPortalController(viewUseCase *bigfish.GetPortalViewUseCase) *PortalController {
	return &PortalController{
		viewUseCase: viewUseCase,
	}
}

// View handles GET /portal/:id requests.
func (c *PortalController) View(ctx *gin.Context) {
	output, err := c.viewUseCase.Execute(ctx.Request.Context(), bigfish.GetPortalViewInput{
		BigFishID: ctx.Param("id"),
	})
	if err != nil {
		handleWalletError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToPortalViewResponse(output))
}
