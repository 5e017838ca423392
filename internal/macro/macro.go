// Package macro fetches national indicators from the World Bank API.
package macro

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"biomarket-backend/internal/shared/httpx"
	"biomarket-backend/internal/shared/metrics"
	"biomarket-backend/internal/shared/settle"
	"biomarket-backend/internal/shared/telemetry"
)

const (
	country   = "FRA"
	perPage   = "8"
	maxPoints = 6
)

// Indicator keys exposed in Trends.
const (
	Population  = "population"
	GDPGrowth   = "gdp_growth"
	AgriLandPct = "agri_land_pct"
)

// Indicators maps each key to its World Bank indicator code.
var Indicators = map[string]string{
	Population:  "SP.POP.TOTL",
	GDPGrowth:   "NY.GDP.MKTP.KD.ZG",
	AgriLandPct: "AG.LND.AGRI.ZS",
}

var keys = []string{Population, GDPGrowth, AgriLandPct}

// Point is one yearly value.
type Point struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// Trends holds up to six ascending points per indicator. Every key is
// present, empty when its fetch failed.
type Trends map[string][]Point

// EmptyTrends has every key with no points.
func EmptyTrends() Trends {
	t := make(Trends, len(keys))
	for _, k := range keys {
		t[k] = []Point{}
	}
	return t
}

// Client fetches the France indicators.
type Client struct {
	http    *httpx.Client
	baseURL string
	timeout time.Duration
}

func NewClient(hc *httpx.Client, baseURL string, timeout time.Duration) *Client {
	return &Client{http: hc, baseURL: strings.TrimRight(baseURL, "/"), timeout: timeout}
}

// Fetch queries every indicator concurrently. It never fails; an indicator
// that cannot be fetched is left empty.
func (c *Client) Fetch(ctx context.Context) Trends {
	outcomes := settle.Map(ctx, keys, c.timeout, func(ctx context.Context, key string) ([]Point, error) {
		return c.series(ctx, Indicators[key])
	})
	trends := EmptyTrends()
	for _, k := range keys {
		out := outcomes[k]
		if out.Err != nil {
			telemetry.Warn("macro.indicator_failed", map[string]any{
				"indicator": k,
				"error":     out.Err,
				"timeout":   httpx.IsTimeout(out.Err),
			})
			metrics.IncSourceFailure("macro." + k)
			continue
		}
		trends[k] = out.Value
	}
	return trends
}

type observation struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

func (c *Client) series(ctx context.Context, code string) ([]Point, error) {
	// The API answers [pageInfo, observations]; errors come back as a
	// single-element array carrying a message.
	var envelope []json.RawMessage
	target := fmt.Sprintf("%s/country/%s/indicator/%s", c.baseURL, country, code)
	q := url.Values{"format": {"json"}, "per_page": {perPage}}
	if err := c.http.GetJSON(ctx, target, q, &envelope); err != nil {
		return nil, err
	}
	if len(envelope) < 2 {
		return nil, fmt.Errorf("indicator %s: unexpected payload", code)
	}
	var obs []observation
	if err := json.Unmarshal(envelope[1], &obs); err != nil {
		return nil, fmt.Errorf("indicator %s: decode observations: %w", code, err)
	}
	return latestPoints(obs, maxPoints), nil
}

// latestPoints drops null values, keeps the n most recent years and returns
// them ascending.
func latestPoints(obs []observation, n int) []Point {
	points := make([]Point, 0, len(obs))
	for _, o := range obs {
		if o.Value == nil {
			continue
		}
		year, err := strconv.Atoi(strings.TrimSpace(o.Date))
		if err != nil {
			continue
		}
		points = append(points, Point{Year: year, Value: *o.Value})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Year > points[j].Year })
	if len(points) > n {
		points = points[:n]
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Year < points[j].Year })
	return points
}
