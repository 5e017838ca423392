package macro

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"biomarket-backend/internal/shared/httpx"
)

const populationPayload = `[
  {"page": 1, "pages": 1, "per_page": 8, "total": 8},
  [
    {"date": "2023", "value": null},
    {"date": "2022", "value": 68000000},
    {"date": "2021", "value": 67800000},
    {"date": "2020", "value": 67600000},
    {"date": "2019", "value": 67300000},
    {"date": "2018", "value": 67100000},
    {"date": "2017", "value": 66900000},
    {"date": "2016", "value": 66700000}
  ]
]`

func TestFetchNormalizesAndDegrades(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/country/FRA/indicator/SP.POP.TOTL"):
			gotQuery = r.URL.RawQuery
			_, _ = w.Write([]byte(populationPayload))
		case strings.HasSuffix(r.URL.Path, "/indicator/NY.GDP.MKTP.KD.ZG"):
			_, _ = w.Write([]byte(`[{"message": [{"key": "Invalid value"}]}]`))
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	client := NewClient(httpx.New(time.Second), srv.URL+"/", time.Second)
	trends := client.Fetch(context.Background())

	for _, k := range []string{Population, GDPGrowth, AgriLandPct} {
		if _, ok := trends[k]; !ok {
			t.Fatalf("expected key %s to be present", k)
		}
	}
	pop := trends[Population]
	if len(pop) != 6 {
		t.Fatalf("expected 6 points, got %d", len(pop))
	}
	if pop[0].Year != 2017 || pop[5].Year != 2022 {
		t.Fatalf("expected 2017..2022 ascending, got %+v", pop)
	}
	if !strings.Contains(gotQuery, "per_page=8") || !strings.Contains(gotQuery, "format=json") {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if len(trends[GDPGrowth]) != 0 || len(trends[AgriLandPct]) != 0 {
		t.Fatalf("expected failed indicators to be empty, got %+v", trends)
	}
}

func TestFetchTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client := NewClient(httpx.New(5*time.Second), srv.URL, 50*time.Millisecond)
	start := time.Now()
	trends := client.Fetch(context.Background())
	if time.Since(start) > time.Second {
		t.Fatalf("expected per-call timeout to bound Fetch")
	}
	if len(trends) != 3 || len(trends[Population]) != 0 {
		t.Fatalf("expected empty trends, got %+v", trends)
	}
}
