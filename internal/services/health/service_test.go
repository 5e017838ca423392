package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"biomarket-backend/internal/llm"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestStatus(t *testing.T) {
	catalog := llm.NewModelCatalog("llama3", []string{"mistral"})
	tests := []struct {
		name   string
		pinger llm.Pinger
		status string
		llm    string
	}{
		{name: "connected", pinger: stubPinger{}, status: "ok", llm: "connected"},
		{name: "unreachable", pinger: stubPinger{err: errors.New("dial tcp: refused")}, status: "warning", llm: "disconnected"},
		{name: "disabled", pinger: llm.Disabled{}, status: "warning", llm: "disconnected"},
		{name: "none", pinger: nil, status: "warning", llm: "disconnected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewService(tt.pinger, catalog).Status(context.Background())
			if got.Status != tt.status || got.LLM != tt.llm {
				t.Fatalf("Status() = %+v", got)
			}
			if got.Model != "llama3" {
				t.Fatalf("model = %q", got.Model)
			}
		})
	}
}

func TestHealthRouteAlwaysOK(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewService(stubPinger{err: errors.New("down")}, llm.NewModelCatalog("gpt-4o-mini", nil)).RegisterRoutes(r.Group("/api/v1"))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body Status
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "warning" || body.LLM != "disconnected" || body.Model != "gpt-4o-mini" {
		t.Fatalf("body = %+v", body)
	}
}
