// Package stats reads the imported production, sales and trade statistics.
package stats

// ProductionPoint is one year of organic production for a territory.
type ProductionPoint struct {
	Year      int     `json:"year"`
	SurfaceHa float64 `json:"surfaceHa"`
	Farms     int     `json:"farms"`
}

// Period bounds a yearly series.
type Period struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type SalesPoint struct {
	Year             int     `json:"year"`
	AverageGrowthPct float64 `json:"averageGrowthPct"`
}

// SalesTrend averages sales growth per year, as a percentage.
type SalesTrend struct {
	Period           *Period      `json:"period"`
	AverageGrowthPct *float64     `json:"averageGrowthPct,omitempty"`
	Details          []SalesPoint `json:"details"`
	Summary          string       `json:"summary,omitempty"`
}

type TradePoint struct {
	Year      int     `json:"year"`
	TotalMEur float64 `json:"totalMEur"`
}

// TradeTrend sums trade flows per year, in millions of euros.
type TradeTrend struct {
	Period  *Period      `json:"period"`
	Details []TradePoint `json:"details"`
	Summary string       `json:"summary,omitempty"`
}

// Snapshot is every series for one region.
type Snapshot struct {
	RegionalProduction []ProductionPoint `json:"regionalProduction"`
	NationalProduction []ProductionPoint `json:"nationalProduction"`
	Sales              SalesTrend        `json:"salesTrend"`
	Trade              TradeTrend        `json:"tradeTrend"`
}

const (
	maxYears = 5

	nationalTerritory = "National"

	noSalesSummary = "Pas de donnees ventes"
	noTradeSummary = "Donnees commerce indisponibles pour les 5 dernieres annees"
)

// EmptySnapshot is the snapshot used when no statistics are reachable.
func EmptySnapshot() Snapshot {
	return Snapshot{
		RegionalProduction: []ProductionPoint{},
		NationalProduction: []ProductionPoint{},
		Sales:              SalesTrend{Details: []SalesPoint{}, Summary: noSalesSummary},
		Trade:              TradeTrend{Details: []TradePoint{}, Summary: noTradeSummary},
	}
}

// LatestTrade returns the most recent trade total, if any.
func (t TradeTrend) LatestTrade() (TradePoint, bool) {
	if len(t.Details) == 0 {
		return TradePoint{}, false
	}
	return t.Details[len(t.Details)-1], true
}
