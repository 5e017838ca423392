package server

import (
	"github.com/gin-gonic/gin"

	"biomarket-backend/internal/reports"
	"biomarket-backend/internal/services/health"
	"biomarket-backend/internal/shared/config"
	"biomarket-backend/internal/shared/metrics"
	"biomarket-backend/internal/shared/server/middleware"
)

// RouterDeps are the handlers mounted under /api/v1.
type RouterDeps struct {
	Config        config.Config
	ReportHandler *reports.Handler
	Health        *health.Service
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	if deps.Health != nil {
		deps.Health.RegisterRoutes(api)
	}
	if deps.ReportHandler != nil {
		limiter := middleware.NewRateLimiter(deps.Config.AnalyzeRate, deps.Config.AnalyzeBurst, nil)
		deps.ReportHandler.RegisterRoutes(api.Group("", middleware.RateLimit(limiter)))
	}
	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
