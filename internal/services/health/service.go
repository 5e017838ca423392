// Package health reports service readiness, including the completion backend.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"biomarket-backend/internal/llm"
	"biomarket-backend/internal/shared/server/respond"
)

const pingTimeout = 3 * time.Second

type Status struct {
	Status string   `json:"status"`
	LLM    string   `json:"llm"`
	Model  string   `json:"model"`
	Models []string `json:"models,omitempty"`
}

// Service encapsulates health-related checks.
type Service struct {
	pinger  llm.Pinger
	catalog llm.ModelCatalog
	timeout time.Duration
}

// NewService constructs a health service. A nil pinger reports the backend as
// disconnected.
func NewService(pinger llm.Pinger, catalog llm.ModelCatalog) *Service {
	return &Service{pinger: pinger, catalog: catalog, timeout: pingTimeout}
}

// Status is "ok" when the backend answers and "warning" otherwise; reports
// still succeed through the fallback in the latter case.
func (s *Service) Status(ctx context.Context) Status {
	st := Status{Status: "ok", LLM: "connected", Model: s.catalog.Default(), Models: s.catalog.Models()}
	if s.pinger == nil {
		st.Status, st.LLM = "warning", "disconnected"
		return st
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.pinger.Ping(ctx); err != nil {
		st.Status, st.LLM = "warning", "disconnected"
	}
	return st
}

// RegisterRoutes attaches GET /health.
func (s *Service) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, s.Status(c.Request.Context()))
	})
}
