package reports

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"biomarket-backend/internal/artifacts"
	"biomarket-backend/internal/collect"
	"biomarket-backend/internal/geo"
	"biomarket-backend/internal/operators"
	"biomarket-backend/internal/synthesis"
)

type fakeCollector struct {
	err  error
	got  collect.Request
	ops  []operators.Record
	unit geo.AdministrativeUnit
}

func (f *fakeCollector) Collect(ctx context.Context, req collect.Request) (collect.Context, []operators.Record, error) {
	f.got = req
	if f.err != nil {
		return collect.Context{}, nil, f.err
	}
	return collect.Context{
		Meta: collect.Meta{Place: req.Place, Segment: req.Segment, Objective: req.Objective, RequestID: req.RequestID},
		Geo:  f.unit,
	}, f.ops, nil
}

type fakeSynth struct {
	in synthesis.Input
}

func (f *fakeSynth) Synthesize(ctx context.Context, in synthesis.Input) synthesis.Report {
	f.in = in
	return synthesis.Report{
		Summary:  "ok",
		Metadata: synthesis.Metadata{RequestID: in.RequestID, Source: synthesis.SourceFallback, AIModel: "fallback"},
	}
}

func TestProduceValidatesRequiredFields(t *testing.T) {
	svc := NewService(&fakeCollector{}, &fakeSynth{}, nil)
	_, err := svc.Produce(context.Background(), Request{Segment: "  ", Objective: "ouvrir"})

	var rerr *Error
	if !errors.As(err, &rerr) || rerr.Kind != KindMissingField {
		t.Fatalf("expected missing_field error, got %v", err)
	}
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField in chain")
	}
	if want := []string{"segment", "place"}; !reflect.DeepEqual(rerr.Fields, want) {
		t.Fatalf("fields = %v, want %v", rerr.Fields, want)
	}
}

func TestProduceSurfacesGeoFailure(t *testing.T) {
	lookup := &geo.LookupError{Place: "Atlantis", Err: geo.ErrNoMatch}
	svc := NewService(&fakeCollector{err: lookup}, &fakeSynth{}, nil)

	_, err := svc.Produce(context.Background(), Request{Segment: "vin", Place: "Atlantis"})
	var rerr *Error
	if !errors.As(err, &rerr) || rerr.Kind != KindGeoLookupFailed {
		t.Fatalf("expected geo_lookup_failed, got %v", err)
	}
	if !errors.Is(err, geo.ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch in chain")
	}
}

func TestProducePersistsRequestAndReport(t *testing.T) {
	mem := artifacts.NewMemorySink()
	w := artifacts.NewWriter(mem, time.Second)
	col := &fakeCollector{
		unit: geo.AdministrativeUnit{Name: "Lyon", Code: "69123", DepartmentCode: "69"},
		ops:  []operators.Record{{ID: "1", Name: "Bio Lyon", Activity: "Distribution"}},
	}
	synth := &fakeSynth{}
	svc := NewService(col, synth, w)

	res, err := svc.Produce(context.Background(), Request{Segment: " épicerie ", Place: "Lyon", Model: "mistral", RequestID: "req-9"})
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	w.Wait()

	if col.got.Segment != "épicerie" || col.got.Objective != defaultObjective {
		t.Fatalf("collector request = %+v", col.got)
	}
	if synth.in.Model != "mistral" || synth.in.Facts.Competition.TotalOperators != 1 {
		t.Fatalf("synthesis input = %+v", synth.in)
	}
	if res.Metadata.RequestID != "req-9" || res.Context.Geo.Code != "69123" {
		t.Fatalf("result = %+v", res)
	}

	items := mem.Items()
	if len(items) != 2 {
		t.Fatalf("artifacts = %d, want 2", len(items))
	}
	kinds := map[artifacts.Kind]bool{}
	for _, a := range items {
		kinds[a.Kind] = true
		if a.RequestID != "req-9" {
			t.Fatalf("artifact request id = %q", a.RequestID)
		}
	}
	if !kinds[artifacts.KindRequest] || !kinds[artifacts.KindReport] {
		t.Fatalf("kinds = %v", kinds)
	}
}

func TestProduceGeneratesRequestID(t *testing.T) {
	col := &fakeCollector{}
	svc := NewService(col, &fakeSynth{}, nil)
	if _, err := svc.Produce(context.Background(), Request{Segment: "vin", Place: "Gap"}); err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if col.got.RequestID == "" {
		t.Fatalf("request id should be generated")
	}
}
