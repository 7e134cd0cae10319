package tenant

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/orders/internal/errors"
	"github.com/allisson/orders/internal/httputil"
)

// Header carries the tenant identifier on every request.
const Header = "X-Tenant-Id"

// errMissingTenant is returned when the tenant header is absent or blank.
var errMissingTenant = apperrors.NewDomainError(
	"TENANT_REQUIRED", "missing X-Tenant-Id header", apperrors.ErrInvalidInput)

// Middleware requires the X-Tenant-Id header and stores its value in the
// request context for downstream handlers.
//
// Error handling:
//   - Missing or blank header → 400 with code TENANT_REQUIRED
//
// Usage:
//
//	router.Use(tenant.Middleware(logger))
//	router.GET("/v1/orders", func(c *gin.Context) {
//	    tenantID, _ := tenant.FromContext(c.Request.Context())
//	    ...
//	})
func Middleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := strings.TrimSpace(c.GetHeader(Header))
		if tenantID == "" {
			if logger != nil {
				logger.Debug("tenant extraction failed: missing header",
					slog.String("path", c.Request.URL.Path))
			}
			httputil.HandleErrorGin(c, errMissingTenant, logger)
			c.Abort()
			return
		}

		ctx := WithTenant(c.Request.Context(), tenantID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
