package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"entitlement-backend-go/internal/core"
)

// WebhookHandler serves the provider's webhook deliveries. The endpoint is
// public; authenticity comes from signature verification, not from any
// session credential.
type WebhookHandler struct {
	service core.WebhookService
	log     *zap.Logger
}

// NewWebhookHandler creates a WebhookHandler.
func NewWebhookHandler(service core.WebhookService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{service: service, log: logger}
}

// HandlePayPalWebhook handles POST /webhooks/paypal. The handler always
// answers: a success acknowledgement stops provider redelivery, an error
// status invites it. Internal retries are never attempted.
func (h *WebhookHandler) HandlePayPalWebhook(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.log.Warn("failed to read webhook body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to read webhook payload"})
		return
	}

	if err := h.service.HandleEvent(c.Request.Context(), c.Request.Header, rawBody); err != nil {
		mapServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Webhook processed"})
}
