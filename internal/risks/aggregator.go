package risks

import (
	"context"
	"net/url"
	"strings"
	"time"

	"biomarket-backend/internal/geo"
	"biomarket-backend/internal/reference"
	"biomarket-backend/internal/shared/httpx"
	"biomarket-backend/internal/shared/metrics"
	"biomarket-backend/internal/shared/settle"
	"biomarket-backend/internal/shared/telemetry"
)

var endpoints = map[Category]string{
	Pollution: "/ssp/instructions",
	Flood:     "/gaspar/azi",
	Disasters: "/gaspar/catnat",
}

// DepartmentSource is the offline fallback consulted for empty categories.
type DepartmentSource interface {
	Department(code string) (reference.Department, bool)
}

// Aggregator queries the Géorisques registries for one commune.
type Aggregator struct {
	http    *httpx.Client
	baseURL string
	timeout time.Duration
	offline DepartmentSource
}

// NewAggregator builds an Aggregator. offline may be nil.
func NewAggregator(hc *httpx.Client, baseURL string, timeout time.Duration, offline DepartmentSource) *Aggregator {
	return &Aggregator{
		http:    hc,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		offline: offline,
	}
}

// Aggregate fetches every category concurrently and never fails: a category
// whose call errors is reported with a zero total and the reason.
func (a *Aggregator) Aggregate(ctx context.Context, unit geo.AdministrativeUnit) Report {
	outcomes := settle.Map(ctx, Categories, a.timeout, func(ctx context.Context, c Category) (Record, error) {
		return a.fetch(ctx, c, unit.Code)
	})

	report := Report{CommuneCode: unit.Code, Records: make(map[Category]Record, len(Categories))}
	for _, c := range Categories {
		out := outcomes[c]
		if out.Err != nil {
			telemetry.Warn("risks.category_failed", map[string]any{
				"category":     string(c),
				"commune_code": unit.Code,
				"error":        out.Err,
				"timeout":      httpx.IsTimeout(out.Err),
			})
			metrics.IncSourceFailure("risks." + string(c))
			report.Records[c] = emptyRecord(c, out.Err.Error())
			continue
		}
		report.Records[c] = out.Value
	}

	a.overlayOffline(&report, unit.DepartmentCode)
	return report
}

func (a *Aggregator) fetch(ctx context.Context, c Category, code string) (Record, error) {
	q := url.Values{"code_insee": {code}}
	target := a.baseURL + endpoints[c]
	switch c {
	case Pollution:
		return fetchCategory(ctx, a.http, target, q, c, sspSite.item)
	case Flood:
		return fetchCategory(ctx, a.http, target, q, c, floodZone.item)
	default:
		return fetchCategory(ctx, a.http, target, q, c, disasterDecree.item)
	}
}

func fetchCategory[T any](ctx context.Context, hc *httpx.Client, target string, q url.Values, c Category, adapt func(T) Item) (Record, error) {
	var p page[T]
	if err := hc.GetJSON(ctx, target, q, &p); err != nil {
		return Record{}, err
	}
	items := make([]Item, 0, len(p.Items))
	for _, raw := range p.Items {
		items = append(items, adapt(raw))
	}
	total := p.count()
	rec := Record{
		Category: c,
		Total:    total,
		Items:    items,
		Label:    levelFor(c, total),
		Source:   SourceLive,
	}
	if c == Disasters {
		rec.Summary = summarizeByKind(items)
	}
	return rec, nil
}

// overlayOffline fills zero-total categories from the department snapshot.
// A non-zero live total is never replaced.
func (a *Aggregator) overlayOffline(report *Report, departmentCode string) {
	if a.offline == nil || strings.TrimSpace(departmentCode) == "" {
		return
	}
	dep, ok := a.offline.Department(departmentCode)
	if !ok {
		return
	}
	for _, c := range Categories {
		live := report.Records[c]
		if live.Total > 0 {
			continue
		}
		if rec, ok := offlineRecord(c, dep); ok {
			rec.Error = live.Error
			report.Records[c] = rec
		}
	}
}

func offlineRecord(c Category, dep reference.Department) (Record, bool) {
	rec := Record{Category: c, Items: []Item{}, Source: SourceOffline}
	switch c {
	case Pollution:
		if dep.PollutionLevel == "" && dep.PollutedSites == 0 {
			return Record{}, false
		}
		rec.Total = dep.PollutedSites
		rec.Label = dep.PollutionLevel
	case Flood:
		if dep.FloodLevel == "" && dep.FloodZones == 0 {
			return Record{}, false
		}
		rec.Total = dep.FloodZones
		rec.Label = dep.FloodLevel
	case Disasters:
		rec.Total = dep.DroughtEvents + dep.FloodEvents
		rec.Summary = map[string]int{"Sécheresse": dep.DroughtEvents, "Inondations": dep.FloodEvents}
		rec.Label = levelFor(c, rec.Total)
	}
	return rec, true
}
