// Package router sets up the HTTP routing for the application.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/agency-crm/backend/internal/integration/entrypoint/controller"
	"github.com/agency-crm/backend/internal/integration/entrypoint/middleware"
)

// Router holds the Gin engine and controller dependencies.
type Router struct {
	engine                      *gin.Engine
	healthController            *controller.HealthController
	authController              *controller.AuthController
	bigFishController           *controller.BigFishController
	walletTransactionController *controller.WalletTransactionController
	growthTaskController        *controller.GrowthTaskController
	portalController            *controller.PortalController
	loginRateLimiter            *middleware.RateLimiter
	portalRateLimiter           *middleware.RateLimiter
	authMiddleware              *middleware.AuthMiddleware
}

// NewRouter creates a new router instance with all dependencies.
func NewRouter(
	healthController *controller.HealthController,
	authController *controller.AuthController,
	bigFishController *controller.BigFishController,
	walletTransactionController *controller.WalletTransactionController,
	growthTaskController *controller.GrowthTaskController,
	portalController *controller.PortalController,
	loginRateLimiter *middleware.RateLimiter,
	portalRateLimiter *middleware.RateLimiter,
	authMiddleware *middleware.AuthMiddleware,
) *Router {
	return &Router{
		healthController:            healthController,
		authController:              authController,
		bigFishController:           bigFishController,
		walletTransactionController: walletTransactionController,
		growthTaskController:        growthTaskController,
		portalController:            portalController,
		loginRateLimiter:            loginRateLimiter,
		portalRateLimiter:           portalRateLimiter,
		authMiddleware:              authMiddleware,
	}
}

// Setup configures and returns the Gin engine with all routes.
func (r *Router) Setup(environment string) *gin.Engine {
	// Set Gin mode based on environment
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else if environment == "test" {
		gin.SetMode(gin.TestMode)
	}

	// Create router with default middleware (logger and recovery)
	r.engine = gin.Default()

	// Setup routes
	r.setupHealthRoutes()
	r.setupAPIRoutes()

	return r.engine
}

// setupHealthRoutes configures health check endpoints.
func (r *Router) setupHealthRoutes() {
	r.engine.GET("/health", r.healthController.Check)
}

// setupAPIRoutes configures the main API routes.
func (r *Router) setupAPIRoutes() {
	// API v1 group
	v1 := r.engine.Group("/api/v1")
	{
		// Auth routes (only setup if auth controller is available)
		if r.authController != nil && r.loginRateLimiter != nil {
			auth := v1.Group("/auth")
			{
				auth.POST("/login", r.loginRateLimiter.Middleware(), r.authController.Login)
			}
		}

		// Wallet routes (require authentication)
		if r.bigFishController != nil && r.authMiddleware != nil {
			wallets := v1.Group("/big-fish")
			wallets.Use(r.authMiddleware.Authenticate())
			{
				wallets.GET("", r.bigFishController.List)
				wallets.POST("", r.bigFishController.Create)
				wallets.GET("/:id", r.bigFishController.Get)
				wallets.PATCH("/:id", r.bigFishController.Update)
				wallets.POST("/:id/toggle-status", r.bigFishController.ToggleStatus)
				wallets.PATCH("/:id/portal-config", r.bigFishController.UpdatePortalConfig)
				wallets.POST("/:id/reports", r.bigFishController.GenerateReport)

				if r.walletTransactionController != nil {
					wallets.POST("/:id/transactions", r.walletTransactionController.Add)
					wallets.PATCH("/:id/transactions/:transactionId", r.walletTransactionController.Update)
					wallets.DELETE("/:id/transactions/:transactionId", r.walletTransactionController.Delete)
				}

				if r.growthTaskController != nil {
					wallets.POST("/:id/growth-tasks", r.growthTaskController.Add)
					wallets.POST("/:id/growth-tasks/:taskId/toggle", r.growthTaskController.Toggle)
					wallets.DELETE("/:id/growth-tasks/:taskId", r.growthTaskController.Delete)
				}
			}
		}

		// Client portal (public, rate limited)
		if r.portalController != nil {
			portal := v1.Group("/portal")
			if r.portalRateLimiter != nil {
				portal.Use(r.portalRateLimiter.Middleware())
			}
			{
				portal.GET("/:id", r.portalController.View)
			}
		}
	}
}
