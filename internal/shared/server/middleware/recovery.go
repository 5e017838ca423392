package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"biomarket-backend/internal/shared/metrics"
	"biomarket-backend/internal/shared/server/respond"
	"biomarket-backend/internal/shared/telemetry"
)

// Recovery turns a panic in a handler into a 500 with the standard error body.
// A panic during report production counts as a failed report.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		telemetry.Error("http.panic", map[string]any{
			"request_id": RequestIDFromContext(c),
			"route":      c.FullPath(),
			"method":     c.Request.Method,
			"error":      rec,
			"stack":      string(debug.Stack()),
		})
		if c.FullPath() == "/api/v1/analyze" {
			metrics.IncReportFailed()
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Unexpected server error", nil)
		c.Abort()
	})
}
