package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"entitlement-backend-go/internal/core"
)

// EntitlementHandler serves the validation and status-query endpoints.
type EntitlementHandler struct {
	service core.EntitlementService
	log     *zap.Logger
}

// NewEntitlementHandler creates an EntitlementHandler.
func NewEntitlementHandler(service core.EntitlementService, logger *zap.Logger) *EntitlementHandler {
	return &EntitlementHandler{service: service, log: logger}
}

// mapServiceError translates core sentinel errors to HTTP statuses.
func mapServiceError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidArgument), errors.Is(err, core.ErrInvalidPlan):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request", Details: err.Error()})
	case errors.Is(err, core.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
	case errors.Is(err, core.ErrSignatureInvalid):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Webhook signature verification failed"})
	case errors.Is(err, core.ErrProviderUnavailable):
		logger.Warn("billing provider unavailable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Billing provider unavailable"})
	case errors.Is(err, core.ErrProviderRejected), errors.Is(err, core.ErrAuthFailure):
		logger.Warn("billing provider error", zap.Error(err))
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Billing provider error", Details: err.Error()})
	case errors.Is(err, core.ErrConfigMissing):
		logger.Error("operation requires missing configuration", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Service not configured for this operation"})
	default:
		logger.Error("internal error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "An unexpected internal server error occurred"})
	}
}

// ValidateSubscription handles POST /subscriptions/validate.
func (h *EntitlementHandler) ValidateSubscription(c *gin.Context) {
	var req ValidateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	result, err := h.service.ValidateSubscription(c.Request.Context(), req.SubscriptionID, req.Email)
	if err != nil {
		mapServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetEntitlement handles GET /entitlements/:email. Unknown emails answer
// the deterministic inactive shape rather than 404.
func (h *EntitlementHandler) GetEntitlement(c *gin.Context) {
	ent, err := h.service.GetEntitlement(c.Request.Context(), c.Param("email"))
	if err != nil {
		mapServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, ent)
}
