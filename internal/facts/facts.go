// Package facts derives the bounded summary handed to report synthesis.
package facts

import (
	"sort"
	"strings"
	"time"

	"biomarket-backend/internal/collect"
	"biomarket-backend/internal/macro"
	"biomarket-backend/internal/operators"
	"biomarket-backend/internal/reference"
	"biomarket-backend/internal/risks"
	"biomarket-backend/internal/stats"
)

const (
	maxRanked       = 8
	maxSamples      = 5
	maxRecentEvents = 3
	maxProduction   = 5
	maxMacroPoints  = 6
	maxActors       = 6
	maxTrends       = 6
	unknownLabel    = "Non renseigné"
)

// General identifies the request and the resolved commune.
type General struct {
	Place          string `json:"place"`
	Segment        string `json:"segment"`
	Objective      string `json:"objective,omitempty"`
	Commune        string `json:"commune"`
	CommuneCode    string `json:"communeCode"`
	DepartmentCode string `json:"departmentCode"`
	Region         string `json:"region"`
	Population     int    `json:"population"`
}

// Count is a ranked label.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type SampleOperator struct {
	Name     string   `json:"name"`
	Activity string   `json:"activity"`
	Category string   `json:"category"`
	City     string   `json:"city,omitempty"`
	Labels   []string `json:"labels,omitempty"`
}

type Competition struct {
	TotalOperators    int              `json:"totalOperators"`
	DirectCompetitors int              `json:"directCompetitors"`
	TopActivities     []Count          `json:"topActivities"`
	TopCategories     []Count          `json:"topCategories"`
	Samples           []SampleOperator `json:"samples"`
}

type RiskFact struct {
	Total  int    `json:"total"`
	Label  string `json:"label,omitempty"`
	Source string `json:"source"`
}

type Event struct {
	Label     string `json:"label"`
	StartDate string `json:"startDate,omitempty"`
}

type Risks struct {
	Pollution    RiskFact       `json:"pollution"`
	Flood        RiskFact       `json:"flood"`
	Disasters    RiskFact       `json:"disasters"`
	ByKind       map[string]int `json:"byKind,omitempty"`
	RecentEvents []Event        `json:"recentEvents"`
}

// Facts is bounded regardless of how large the Context is.
type Facts struct {
	General            General                  `json:"general"`
	Department         *reference.Department    `json:"department,omitempty"`
	Sector             *reference.Sector        `json:"sector,omitempty"`
	Competition        Competition              `json:"competition"`
	Risks              Risks                    `json:"risks"`
	RegionalProduction []stats.ProductionPoint  `json:"regionalProduction"`
	NationalProduction []stats.ProductionPoint  `json:"nationalProduction"`
	Sales              stats.SalesTrend         `json:"sales"`
	Trade              stats.TradeTrend         `json:"trade"`
	Macro              map[string][]macro.Point `json:"macro"`
	NationalActors     []reference.Actor        `json:"nationalActors"`
	MarketTrends       []string                 `json:"marketTrends"`
}

// Compact reduces c and its operators to Facts. It has no side effects and
// always returns the same Facts for the same input.
func Compact(c collect.Context, ops []operators.Record) Facts {
	return Facts{
		General: General{
			Place:          c.Meta.Place,
			Segment:        c.Meta.Segment,
			Objective:      c.Meta.Objective,
			Commune:        c.Geo.Name,
			CommuneCode:    c.Geo.Code,
			DepartmentCode: c.Geo.DepartmentCode,
			Region:         c.Geo.RegionName,
			Population:     c.Geo.Population,
		},
		Department:         copyDepartment(c.Department),
		Sector:             copySector(c.Sector),
		Competition:        compactCompetition(c.Competition, ops),
		Risks:              compactRisks(c.Risks),
		RegionalProduction: lastN(c.RegionalProduction, maxProduction),
		NationalProduction: lastN(c.NationalProduction, maxProduction),
		Sales:              copySales(c.SalesTrend),
		Trade:              copyTrade(c.TradeTrend),
		Macro:              compactMacro(c.Macro),
		NationalActors:     firstN(c.NationalActors, maxActors),
		MarketTrends:       firstN(c.MarketTrends, maxTrends),
	}
}

func compactCompetition(comp operators.Competition, ops []operators.Record) Competition {
	activities := make(map[string]int)
	categories := make(map[string]int)
	for _, op := range ops {
		activities[labelOr(op.Activity)]++
		categories[labelOr(op.Category)]++
	}
	samples := make([]SampleOperator, 0, maxSamples)
	for _, op := range ops {
		if len(samples) == maxSamples {
			break
		}
		samples = append(samples, SampleOperator{
			Name:     op.Name,
			Activity: op.Activity,
			Category: op.Category,
			City:     op.City,
			Labels:   firstN(op.Labels, 3),
		})
	}
	total := comp.TotalOperators
	if total == 0 {
		total = len(ops)
	}
	return Competition{
		TotalOperators:    total,
		DirectCompetitors: comp.DirectCompetitors,
		TopActivities:     rank(activities, maxRanked),
		TopCategories:     rank(categories, maxRanked),
		Samples:           samples,
	}
}

// rank orders counts descending, ties by label ascending.
func rank(counts map[string]int, n int) []Count {
	out := make([]Count, 0, len(counts))
	for label, count := range counts {
		out = append(out, Count{Label: label, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func compactRisks(r risks.Report) Risks {
	disasters := r.Get(risks.Disasters)
	var byKind map[string]int
	if len(disasters.Summary) > 0 {
		byKind = make(map[string]int, len(disasters.Summary))
		for k, v := range disasters.Summary {
			byKind[k] = v
		}
	}
	return Risks{
		Pollution:    riskFact(r.Get(risks.Pollution)),
		Flood:        riskFact(r.Get(risks.Flood)),
		Disasters:    riskFact(disasters),
		ByKind:       byKind,
		RecentEvents: recentEvents(disasters.Items, maxRecentEvents),
	}
}

func riskFact(rec risks.Record) RiskFact {
	total := rec.Total
	if total < 0 {
		total = 0
	}
	return RiskFact{Total: total, Label: rec.Label, Source: string(rec.Source)}
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", time.RFC3339, "2006-01-02T15:04:05"}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if len(s) >= 10 {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// recentEvents keeps the n latest items by start date. Undated items come last.
func recentEvents(items []risks.Item, n int) []Event {
	type dated struct {
		item risks.Item
		at   time.Time
		ok   bool
	}
	list := make([]dated, 0, len(items))
	for _, it := range items {
		at, ok := parseDate(it.StartDate)
		list = append(list, dated{item: it, at: at, ok: ok})
	}
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.ok != b.ok {
			return a.ok
		}
		if !a.at.Equal(b.at) {
			return a.at.After(b.at)
		}
		return a.item.Label < b.item.Label
	})
	out := make([]Event, 0, n)
	for _, d := range list {
		if len(out) == n {
			break
		}
		out = append(out, Event{Label: d.item.Label, StartDate: d.item.StartDate})
	}
	return out
}

func compactMacro(t macro.Trends) map[string][]macro.Point {
	out := make(map[string][]macro.Point, len(t))
	for k, pts := range t {
		out[k] = lastN(pts, maxMacroPoints)
	}
	return out
}

func copySales(s stats.SalesTrend) stats.SalesTrend {
	out := s
	if s.Period != nil {
		p := *s.Period
		out.Period = &p
	}
	if s.AverageGrowthPct != nil {
		v := *s.AverageGrowthPct
		out.AverageGrowthPct = &v
	}
	out.Details = lastN(s.Details, maxProduction)
	return out
}

func copyTrade(t stats.TradeTrend) stats.TradeTrend {
	out := t
	if t.Period != nil {
		p := *t.Period
		out.Period = &p
	}
	out.Details = lastN(t.Details, maxProduction)
	return out
}

func copyDepartment(d *reference.Department) *reference.Department {
	if d == nil {
		return nil
	}
	out := *d
	out.Specialties = append([]string(nil), d.Specialties...)
	return &out
}

func copySector(s *reference.Sector) *reference.Sector {
	if s == nil {
		return nil
	}
	out := *s
	return &out
}

// lastN copies the last n elements (series are ascending, so the most recent).
func lastN[T any](in []T, n int) []T {
	if len(in) > n {
		in = in[len(in)-n:]
	}
	return append(make([]T, 0, len(in)), in...)
}

func firstN[T any](in []T, n int) []T {
	if len(in) > n {
		in = in[:n]
	}
	return append(make([]T, 0, len(in)), in...)
}

func labelOr(s string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return unknownLabel
}
