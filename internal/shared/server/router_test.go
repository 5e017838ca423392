package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"biomarket-backend/internal/llm"
	"biomarket-backend/internal/reports"
	"biomarket-backend/internal/services/health"
	"biomarket-backend/internal/shared/config"
)

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRouterMountsRoutes(t *testing.T) {
	cfg := config.Defaults()
	r := NewRouter(RouterDeps{
		Config:        cfg,
		Health:        health.NewService(llm.Disabled{}, llm.NewModelCatalog("llama3", nil)),
		ReportHandler: reports.NewHandler(reports.NewService(nil, nil, nil)),
	})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("health status = %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "report_started_total") {
		t.Fatalf("metrics status = %d body = %s", resp.Code, resp.Body.String())
	}

	// validation fails before any collaborator is touched
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(`{"segment":"vin"}`))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("analyze status = %d", resp.Code)
	}
}
