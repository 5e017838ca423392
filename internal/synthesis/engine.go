package synthesis

import (
	"context"
	"errors"
	"time"

	"biomarket-backend/internal/facts"
	"biomarket-backend/internal/llm"
	"biomarket-backend/internal/shared/metrics"
	"biomarket-backend/internal/shared/telemetry"
	"biomarket-backend/internal/shared/util"
)

// DefaultTimeout bounds one model call, retries included.
const DefaultTimeout = 90 * time.Second

// Engine produces a Report for Facts. It always returns a usable Report.
type Engine struct {
	llm     llm.Completer
	catalog llm.ModelCatalog
	timeout time.Duration
	now     func() time.Time
}

func NewEngine(completer llm.Completer, catalog llm.ModelCatalog, timeout time.Duration) *Engine {
	if completer == nil {
		completer = llm.Disabled{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Engine{llm: completer, catalog: catalog, timeout: timeout, now: time.Now}
}

type Input struct {
	Facts     facts.Facts
	Model     string
	RequestID string
}

// Synthesize asks the model first and falls back to rule-based output when
// the call fails, times out, or returns an answer missing a required key.
func (e *Engine) Synthesize(ctx context.Context, in Input) Report {
	model := e.catalog.Resolve(in.Model)

	rep, err := e.fromModel(ctx, model, in.Facts)
	if err == nil {
		rep.Metadata = e.metadata(in, model, SourceModel, "")
		return rep
	}

	reason := fallbackReason(err)
	telemetry.Warn("synthesis.fallback", map[string]any{
		"request_id": in.RequestID,
		"model":      model,
		"reason":     reason,
		"error":      err,
	})
	metrics.IncReportFallback()

	rep = buildFallback(in.Facts)
	rep.Metadata = e.metadata(in, fallbackModel, SourceFallback, reason)
	return rep
}

func (e *Engine) fromModel(ctx context.Context, model string, f facts.Facts) (Report, error) {
	if model == "" {
		return Report{}, llm.ErrDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := e.now()
	prompt := BuildPrompt(f)
	raw, err := e.llm.Complete(ctx, model, prompt)
	if err != nil {
		return Report{}, err
	}
	rep, err := parseModelReport(raw)
	if err != nil {
		return Report{}, err
	}
	telemetry.Info("synthesis.model_ok", map[string]any{
		"model":       model,
		"prompt_sha":  util.ShortDigest(prompt),
		"duration_ms": e.now().Sub(start).Milliseconds(),
	})
	return rep, nil
}

func (e *Engine) metadata(in Input, model, source, reason string) Metadata {
	return Metadata{
		Place:          in.Facts.General.Place,
		Segment:        in.Facts.General.Segment,
		Objective:      in.Facts.General.Objective,
		RequestID:      in.RequestID,
		GeneratedAt:    e.now().UTC(),
		AIModel:        model,
		Source:         source,
		Version:        reportVersion,
		FallbackReason: reason,
	}
}

func fallbackReason(err error) string {
	var schemaErr *SchemaError
	switch {
	case errors.Is(err, llm.ErrDisabled):
		return "disabled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &schemaErr):
		return "invalid_output"
	default:
		return "model_error"
	}
}
