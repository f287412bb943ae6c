package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"entitlement-backend-go/internal/core"
)

// AdminHandler serves the manual-override endpoints. Routes using it are
// gated by the admin-secret middleware.
type AdminHandler struct {
	service core.EntitlementService
	log     *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(service core.EntitlementService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{service: service, log: logger}
}

// ActivateManual handles POST /admin/activate: an out-of-band grant that
// bypasses the billing provider (cash / QR-code sales).
func (h *AdminHandler) ActivateManual(c *gin.Context) {
	var req ActivateManualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	activation, err := h.service.ActivateManual(c.Request.Context(), req.Email, req.Plan)
	if err != nil {
		mapServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, activation)
}
