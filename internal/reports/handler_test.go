package reports

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"biomarket-backend/internal/geo"
	"biomarket-backend/internal/llm"
	"biomarket-backend/internal/shared/server/middleware"
	"biomarket-backend/internal/synthesis"
)

type stubProducer struct {
	err error
	got Request
}

func (s *stubProducer) Produce(ctx context.Context, req Request) (Result, error) {
	s.got = req
	if s.err != nil {
		return Result{}, s.err
	}
	rep := synthesis.Report{Summary: "ok", Metadata: synthesis.Metadata{RequestID: req.RequestID}}
	return Result{Report: rep, Metadata: rep.Metadata}, nil
}

func newTestRouter(p Producer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	NewHandler(p).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func post(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestAnalyzeStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
		code string
	}{
		{name: "ok", want: http.StatusOK},
		{name: "missing field", err: &Error{Kind: KindMissingField, Fields: []string{"place"}, Err: ErrMissingField}, want: http.StatusBadRequest, code: KindMissingField},
		{name: "no match", err: &Error{Kind: KindGeoLookupFailed, Err: &geo.LookupError{Place: "x", Err: geo.ErrNoMatch}}, want: http.StatusNotFound, code: KindGeoLookupFailed},
		{name: "geo down", err: &Error{Kind: KindGeoLookupFailed, Err: errors.New("dial tcp: timeout")}, want: http.StatusBadGateway, code: KindGeoLookupFailed},
		{name: "unexpected", err: errors.New("boom"), want: http.StatusInternalServerError, code: "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(newTestRouter(&stubProducer{err: tt.err}), `{"segment":"vin","place":"Gap"}`)
			if resp.Code != tt.want {
				t.Fatalf("status = %d, want %d", resp.Code, tt.want)
			}
			if tt.code == "" {
				return
			}
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Code != tt.code {
				t.Fatalf("code = %q, want %q", body.Error.Code, tt.code)
			}
		})
	}
}

func TestAnalyzeAcceptsFrenchFieldNames(t *testing.T) {
	stub := &stubProducer{}
	resp := post(newTestRouter(stub), `{"secteur":"cosmétique","region":"Nantes","objectif":"implantation"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	if stub.got.Segment != "cosmétique" || stub.got.Place != "Nantes" || stub.got.Objective != "implantation" {
		t.Fatalf("request = %+v", stub.got)
	}
	if stub.got.RequestID == "" || stub.got.RequestID != resp.Header().Get("X-Request-Id") {
		t.Fatalf("request id not propagated: %q", stub.got.RequestID)
	}
}

func TestAnalyzeRejectsInvalidJSON(t *testing.T) {
	resp := post(newTestRouter(&stubProducer{}), `{"segment":`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.Code)
	}
}

type slowCompleter struct{}

func (slowCompleter) Complete(ctx context.Context, model, prompt string) (string, error) {
	select {
	case <-time.After(2 * time.Second):
		return "{}", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestAnalyzeReturnsFallbackWhenModelTimesOut(t *testing.T) {
	col := &fakeCollector{unit: geo.AdministrativeUnit{Name: "Lyon", Code: "69123", DepartmentCode: "69"}}
	engine := synthesis.NewEngine(slowCompleter{}, llm.NewModelCatalog("llama3", nil), 30*time.Millisecond)
	svc := NewService(col, engine, nil)

	resp := post(newTestRouter(svc), `{"segment":"épicerie","place":"Lyon","objective":"ouvrir une boutique"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.Code, resp.Body.String())
	}
	var body map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range append(synthesis.RequiredKeys, "context", "metadata") {
		if _, ok := body[key]; !ok {
			t.Fatalf("response missing %q", key)
		}
	}
	var meta synthesis.Metadata
	if err := json.Unmarshal(body["metadata"], &meta); err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta.Source != synthesis.SourceFallback || meta.AIModel != "fallback" || meta.FallbackReason != "timeout" {
		t.Fatalf("metadata = %+v", meta)
	}
}

type fixedProducer struct{ source string }

func (p fixedProducer) Produce(ctx context.Context, req Request) (Result, error) {
	rep := synthesis.Report{Metadata: synthesis.Metadata{Source: p.source}}
	return Result{Report: rep, Metadata: rep.Metadata}, nil
}

func TestAnalyzeTagsReportSourceForLogging(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{synthesis.SourceModel, "model"},
		{synthesis.SourceFallback, "fallback"},
	}
	for _, tt := range tests {
		gin.SetMode(gin.TestMode)
		var seen string
		r := gin.New()
		r.Use(func(c *gin.Context) {
			c.Next()
			seen = c.GetString(middleware.ReportSourceKey)
		})
		NewHandler(fixedProducer{source: tt.source}).RegisterRoutes(r.Group("/api/v1"))

		resp := post(r, `{"segment":"vin","place":"Beaune"}`)
		if resp.Code != http.StatusOK {
			t.Fatalf("status = %d", resp.Code)
		}
		if seen != tt.want {
			t.Fatalf("report source = %q, want %q", seen, tt.want)
		}
	}
}
