// Package reports produces market reports: it validates the request, collects
// the context, synthesizes the report and persists both documents.
package reports

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"biomarket-backend/internal/artifacts"
	"biomarket-backend/internal/collect"
	"biomarket-backend/internal/facts"
	"biomarket-backend/internal/operators"
	"biomarket-backend/internal/shared/metrics"
	"biomarket-backend/internal/shared/telemetry"
	"biomarket-backend/internal/synthesis"
)

const defaultObjective = "Analyse générale"

type Collector interface {
	Collect(ctx context.Context, req collect.Request) (collect.Context, []operators.Record, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, in synthesis.Input) synthesis.Report
}

// Request is one report order. Model is optional.
type Request struct {
	Segment   string `json:"segment"`
	Place     string `json:"place"`
	Objective string `json:"objective,omitempty"`
	Model     string `json:"model,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type Result struct {
	Report   synthesis.Report   `json:"report"`
	Context  collect.Context    `json:"context"`
	Metadata synthesis.Metadata `json:"metadata"`
}

type Service struct {
	Collector Collector
	Synth     Synthesizer
	Artifacts *artifacts.Writer
	now       func() time.Time
}

func NewService(c Collector, s Synthesizer, w *artifacts.Writer) *Service {
	return &Service{Collector: c, Synth: s, Artifacts: w, now: time.Now}
}

// Produce returns a *Error for a missing field or a failed geocoding; every
// other failure degrades into the report itself.
func (s *Service) Produce(ctx context.Context, req Request) (Result, error) {
	req = normalize(req)
	if missing := missingFields(req); len(missing) > 0 {
		return Result{}, &Error{Kind: KindMissingField, Fields: missing, Err: ErrMissingField}
	}

	start := s.now()
	metrics.IncReportStarted()
	s.Artifacts.Persist(ctx, artifacts.KindRequest, req.RequestID, req)

	rc, ops, err := s.Collector.Collect(ctx, collect.Request{
		Place:     req.Place,
		Segment:   req.Segment,
		Objective: req.Objective,
		RequestID: req.RequestID,
	})
	if err != nil {
		metrics.IncReportFailed()
		telemetry.Warn("report.geo_failed", map[string]any{
			"request_id": req.RequestID,
			"place":      req.Place,
			"error":      err,
		})
		return Result{}, &Error{Kind: KindGeoLookupFailed, Err: err}
	}

	rep := s.Synth.Synthesize(ctx, synthesis.Input{
		Facts:     facts.Compact(rc, ops),
		Model:     req.Model,
		RequestID: req.RequestID,
	})
	res := Result{Report: rep, Context: rc, Metadata: rep.Metadata}
	s.Artifacts.Persist(ctx, artifacts.KindReport, req.RequestID, res)

	elapsed := s.now().Sub(start)
	metrics.IncReportCompleted()
	metrics.ObserveReportDurationMs(float64(elapsed.Milliseconds()))
	telemetry.Info("report.completed", map[string]any{
		"request_id":  req.RequestID,
		"segment":     req.Segment,
		"place":       req.Place,
		"source":      rep.Metadata.Source,
		"degraded":    len(rc.Degraded),
		"duration_ms": elapsed.Milliseconds(),
	})
	return res, nil
}

func normalize(req Request) Request {
	req.Segment = strings.TrimSpace(req.Segment)
	req.Place = strings.TrimSpace(req.Place)
	req.Objective = strings.TrimSpace(req.Objective)
	req.Model = strings.TrimSpace(req.Model)
	req.RequestID = strings.TrimSpace(req.RequestID)
	if req.Objective == "" {
		req.Objective = defaultObjective
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	return req
}

func missingFields(req Request) []string {
	var missing []string
	if req.Segment == "" {
		missing = append(missing, "segment")
	}
	if req.Place == "" {
		missing = append(missing, "place")
	}
	return missing
}
