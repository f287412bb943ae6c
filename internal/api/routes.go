package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"entitlement-backend-go/internal/config"
	"entitlement-backend-go/internal/core"
	"entitlement-backend-go/internal/middleware"
)

// SetupRoutes wires all handlers. Global middleware (logging, recovery,
// CORS) is applied to the router before this is called, in main.
func SetupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	logger *zap.Logger,
	entitlementService core.EntitlementService,
	webhookService core.WebhookService,
) {
	entitlementHandler := NewEntitlementHandler(entitlementService, logger)
	webhookHandler := NewWebhookHandler(webhookService, logger)
	adminHandler := NewAdminHandler(entitlementService, logger)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/subscriptions/validate", entitlementHandler.ValidateSubscription)
		apiV1.GET("/entitlements/:email", entitlementHandler.GetEntitlement)

		// Public endpoint: the provider authenticates deliveries via
		// signature, verified inside the webhook service.
		apiV1.POST("/webhooks/paypal", webhookHandler.HandlePayPalWebhook)

		adminGroup := apiV1.Group("/admin", middleware.RequireAdminSecret(cfg.AdminAPISecret, logger))
		{
			adminGroup.POST("/activate", adminHandler.ActivateManual)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})
}
