package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminSecretHeader carries the shared secret for admin endpoints.
const AdminSecretHeader = "X-Admin-Secret"

// RequireAdminSecret returns middleware gating admin endpoints on a static
// shared secret. The comparison is constant-time. When no secret is
// configured every request is refused: an unset credential must never mean
// an open endpoint.
func RequireAdminSecret(secret string, logger *zap.Logger) gin.HandlerFunc {
	if secret == "" {
		logger.Warn("admin secret not configured, admin endpoints will refuse all requests")
	}
	return func(c *gin.Context) {
		supplied := c.GetHeader(AdminSecretHeader)
		if secret == "" || supplied == "" ||
			subtle.ConstantTimeCompare([]byte(supplied), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
