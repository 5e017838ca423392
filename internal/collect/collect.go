// Package collect assembles the market Context for one place and segment.
package collect

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"biomarket-backend/internal/geo"
	"biomarket-backend/internal/macro"
	"biomarket-backend/internal/operators"
	"biomarket-backend/internal/reference"
	"biomarket-backend/internal/risks"
	"biomarket-backend/internal/shared/metrics"
	"biomarket-backend/internal/shared/settle"
	"biomarket-backend/internal/shared/storage/db"
	"biomarket-backend/internal/shared/telemetry"
	"biomarket-backend/internal/stats"
)

// Request identifies what to collect.
type Request struct {
	Place     string
	Segment   string
	Objective string
	RequestID string
}

// Meta echoes the request.
type Meta struct {
	Place       string    `json:"place"`
	Segment     string    `json:"segment"`
	Objective   string    `json:"objective,omitempty"`
	RequestID   string    `json:"requestId"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Context is everything known about the request, built once.
type Context struct {
	Meta               Meta                    `json:"meta"`
	Geo                geo.AdministrativeUnit  `json:"geo"`
	Department         *reference.Department   `json:"department,omitempty"`
	Sector             *reference.Sector       `json:"sector,omitempty"`
	NationalActors     []reference.Actor       `json:"nationalActors"`
	MarketTrends       []string                `json:"marketTrends"`
	Competition        operators.Competition   `json:"competition"`
	Risks              risks.Report            `json:"risks"`
	RegionalProduction []stats.ProductionPoint `json:"regionalProduction"`
	NationalProduction []stats.ProductionPoint `json:"nationalProduction"`
	SalesTrend         stats.SalesTrend        `json:"salesTrend"`
	TradeTrend         stats.TradeTrend        `json:"tradeTrend"`
	Macro              macro.Trends            `json:"macro"`
	Degraded           []string                `json:"degraded,omitempty"`
}

type RiskSource interface {
	Aggregate(ctx context.Context, unit geo.AdministrativeUnit) risks.Report
}

type StatsSource interface {
	Collect(ctx context.Context, regionName string) (stats.Snapshot, error)
}

type MacroSource interface {
	Fetch(ctx context.Context) macro.Trends
}

type OperatorSource interface {
	FindByCity(city string) []operators.Record
}

// ReferenceSource is the offline market reference.
type ReferenceSource interface {
	Department(code string) (reference.Department, bool)
	Sector(name string) (reference.Sector, bool)
	NationalActors(n int) []reference.Actor
	MarketTrends(n int) []string
}

const (
	maxNationalActors = 6
	maxMarketTrends   = 6
)

// Collector wires the sources. Geo is required; any other nil source is
// treated as returning no data.
type Collector struct {
	Geo       geo.Resolver
	Risks     RiskSource
	Stats     StatsSource
	Macro     MacroSource
	Operators OperatorSource
	Reference ReferenceSource
	Now       func() time.Time
}

// Collect resolves the place first, then fans out to every other source and
// waits for all of them. Only a geocoding failure is returned as an error;
// the returned operators are the segment-filtered local operators.
func (c *Collector) Collect(ctx context.Context, req Request) (Context, []operators.Record, error) {
	start := time.Now()
	unit, err := c.Geo.Resolve(ctx, req.Place)
	if err != nil {
		metrics.IncSourceFailure("geo")
		telemetry.Warn("collect.geo_failed", map[string]any{
			"request_id": req.RequestID,
			"place":      req.Place,
			"error":      err,
		})
		return Context{}, nil, err
	}

	var (
		riskReport risks.Report
		snapshot   = stats.EmptySnapshot()
		statsErr   error
		trends     = macro.EmptyTrends()
		local      []operators.Record
	)

	var g settle.Group
	g.Go("risks", func() error {
		riskReport = c.aggregateRisks(ctx, unit)
		return nil
	})
	g.Go("stats", func() error {
		if c.Stats == nil {
			return nil
		}
		snap, err := c.Stats.Collect(ctx, unit.RegionName)
		snapshot = snap
		statsErr = err
		return err
	})
	g.Go("macro", func() error {
		if c.Macro != nil {
			trends = c.Macro.Fetch(ctx)
		}
		return nil
	})
	g.Go("operators", func() error {
		local = c.localOperators(unit, req)
		return nil
	})

	var degraded []string
	for name, err := range settle.Failed(g.Wait()) {
		var panicErr *settle.PanicError
		if name != "stats" || errors.As(err, &panicErr) {
			telemetry.Error("collect.source_panicked", map[string]any{"request_id": req.RequestID, "source": name, "error": err})
			metrics.IncSourceFailure(name)
			degraded = append(degraded, name)
		}
	}
	if statsErr != nil {
		degraded = append(degraded, "stats")
		if !errors.Is(statsErr, db.ErrNoDatabase) {
			metrics.IncSourceFailure("stats")
		}
		telemetry.Warn("collect.stats_degraded", map[string]any{"request_id": req.RequestID, "region": unit.RegionName, "error": statsErr})
	}
	if riskReport.Records == nil {
		riskReport = risks.EmptyReport(unit.Code, "unavailable")
	}
	for _, cat := range risks.Categories {
		if riskReport.Get(cat).Error != "" {
			degraded = append(degraded, "risks."+string(cat))
		}
	}

	sort.Strings(degraded)

	filtered := operators.FilterBySegment(local, req.Segment)
	out := Context{
		Meta:               c.meta(req),
		Geo:                unit,
		Department:         c.department(unit.DepartmentCode),
		Sector:             c.sector(req.Segment),
		NationalActors:     c.nationalActors(),
		MarketTrends:       c.marketTrends(),
		Competition:        operators.BuildCompetition(filtered, req.Segment),
		Risks:              riskReport,
		RegionalProduction: snapshot.RegionalProduction,
		NationalProduction: snapshot.NationalProduction,
		SalesTrend:         snapshot.Sales,
		TradeTrend:         snapshot.Trade,
		Macro:              trends,
		Degraded:           degraded,
	}
	telemetry.Info("collect.completed", map[string]any{
		"request_id":   out.Meta.RequestID,
		"commune_code": unit.Code,
		"operators":    len(filtered),
		"degraded":     degraded,
		"duration_ms":  time.Since(start).Milliseconds(),
	})
	return out, nonNil(filtered), nil
}

func (c *Collector) aggregateRisks(ctx context.Context, unit geo.AdministrativeUnit) risks.Report {
	if c.Risks == nil {
		return risks.EmptyReport(unit.Code, "")
	}
	return c.Risks.Aggregate(ctx, unit)
}

// localOperators looks the commune up by its registry name, then by the
// place as typed.
func (c *Collector) localOperators(unit geo.AdministrativeUnit, req Request) []operators.Record {
	if c.Operators == nil {
		return nil
	}
	if recs := c.Operators.FindByCity(unit.Name); len(recs) > 0 {
		return recs
	}
	return c.Operators.FindByCity(req.Place)
}

func (c *Collector) department(code string) *reference.Department {
	if c.Reference == nil || strings.TrimSpace(code) == "" {
		return nil
	}
	dep, ok := c.Reference.Department(code)
	if !ok {
		return nil
	}
	return &dep
}

func (c *Collector) sector(segment string) *reference.Sector {
	if c.Reference == nil || strings.TrimSpace(segment) == "" {
		return nil
	}
	s, ok := c.Reference.Sector(segment)
	if !ok {
		return nil
	}
	return &s
}

func (c *Collector) nationalActors() []reference.Actor {
	if c.Reference == nil {
		return []reference.Actor{}
	}
	if actors := c.Reference.NationalActors(maxNationalActors); actors != nil {
		return actors
	}
	return []reference.Actor{}
}

func (c *Collector) marketTrends() []string {
	if c.Reference == nil {
		return []string{}
	}
	if trends := c.Reference.MarketTrends(maxMarketTrends); trends != nil {
		return trends
	}
	return []string{}
}

func (c *Collector) meta(req Request) Meta {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	id := strings.TrimSpace(req.RequestID)
	if id == "" {
		id = uuid.NewString()
	}
	return Meta{
		Place:       strings.TrimSpace(req.Place),
		Segment:     strings.TrimSpace(req.Segment),
		Objective:   strings.TrimSpace(req.Objective),
		RequestID:   id,
		GeneratedAt: now().UTC(),
	}
}

func nonNil(recs []operators.Record) []operators.Record {
	if recs == nil {
		return []operators.Record{}
	}
	return recs
}
