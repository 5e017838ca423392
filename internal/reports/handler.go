package reports

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"biomarket-backend/internal/collect"
	"biomarket-backend/internal/geo"
	"biomarket-backend/internal/shared/server/middleware"
	"biomarket-backend/internal/shared/server/respond"
	"biomarket-backend/internal/synthesis"
)

// Producer is the part of Service the handler needs.
type Producer interface {
	Produce(ctx context.Context, req Request) (Result, error)
}

// Handler wires HTTP handlers to the report service.
type Handler struct {
	Svc Producer
}

func NewHandler(svc Producer) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches report routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyze", h.analyze)
}

// analyzeRequest accepts both the English and the French field names.
type analyzeRequest struct {
	Segment   string `json:"segment"`
	Secteur   string `json:"secteur"`
	Place     string `json:"place"`
	Region    string `json:"region"`
	Objective string `json:"objective"`
	Objectif  string `json:"objectif"`
	Model     string `json:"model"`
}

func (r analyzeRequest) toRequest(requestID string) Request {
	return Request{
		Segment:   pick(r.Segment, r.Secteur),
		Place:     pick(r.Place, r.Region),
		Objective: pick(r.Objective, r.Objectif),
		Model:     r.Model,
		RequestID: requestID,
	}
}

type analyzeResponse struct {
	synthesis.Report
	Context collect.Context `json:"context"`
}

func (h *Handler) analyze(c *gin.Context) {
	var body analyzeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, KindMissingField, "invalid JSON body", nil)
		return
	}

	res, err := h.Svc.Produce(c.Request.Context(), body.toRequest(middleware.RequestIDFromContext(c)))
	if err != nil {
		var rerr *Error
		if !errors.As(err, &rerr) {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to produce report", nil)
			return
		}
		switch rerr.Kind {
		case KindMissingField:
			details := make([]map[string]string, 0, len(rerr.Fields))
			for _, f := range rerr.Fields {
				details = append(details, map[string]string{"field": f, "issue": "required"})
			}
			respond.Error(c, http.StatusBadRequest, KindMissingField, "segment and place are required", details)
		case KindGeoLookupFailed:
			if errors.Is(err, geo.ErrNoMatch) {
				respond.Error(c, http.StatusNotFound, KindGeoLookupFailed, "place not found", nil)
				return
			}
			respond.Error(c, http.StatusBadGateway, KindGeoLookupFailed, "geocoding service unavailable", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to produce report", nil)
		}
		return
	}

	source := synthesis.SourceModel
	if res.Report.IsFallback() {
		source = synthesis.SourceFallback
	}
	c.Set(middleware.ReportSourceKey, source)
	respond.OK(c, analyzeResponse{Report: res.Report, Context: res.Context})
}

func pick(primary, alias string) string {
	if primary != "" {
		return primary
	}
	return alias
}
