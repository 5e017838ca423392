package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"biomarket-backend/internal/shared/storage/db"
)

const (
	productionQuery = `
SELECT period, surface_ha, farm_count
FROM production_records
WHERE territory ILIKE $1`
	salesQuery = `
SELECT channel, period, growth_rate
FROM sales_records`
	tradeQuery = `
SELECT product_family, flow_type, partner, period, value_meur
FROM trade_records`
)

// Aggregator reads the statistics tables. Each series runs in its own
// read-only transaction: a failed statement aborts a Postgres transaction,
// and one broken series must not take the others down.
type Aggregator struct {
	db      *sql.DB
	timeout time.Duration
}

// NewAggregator builds an Aggregator over the shared pool. A nil database
// yields empty series and db.ErrNoDatabase from Collect.
func NewAggregator(database *sql.DB, timeout time.Duration) *Aggregator {
	return &Aggregator{db: database, timeout: timeout}
}

// Collect returns every series for regionName. A failing series is left empty
// and its error joined into the returned error; the snapshot is always usable.
func (a *Aggregator) Collect(ctx context.Context, regionName string) (Snapshot, error) {
	snap := EmptySnapshot()
	if a == nil || a.db == nil {
		return snap, db.ErrNoDatabase
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	region := strings.TrimSpace(regionName)
	if region == "" {
		region = "%"
	}

	var errs []error
	if pts, err := a.production(ctx, region); err != nil {
		errs = append(errs, fmt.Errorf("regional production: %w", err))
	} else {
		snap.RegionalProduction = pts
	}
	if pts, err := a.production(ctx, nationalTerritory); err != nil {
		errs = append(errs, fmt.Errorf("national production: %w", err))
	} else {
		snap.NationalProduction = pts
	}
	if trend, err := a.sales(ctx); err != nil {
		errs = append(errs, fmt.Errorf("sales trend: %w", err))
	} else {
		snap.Sales = trend
	}
	if trend, err := a.trade(ctx); err != nil {
		errs = append(errs, fmt.Errorf("trade trend: %w", err))
	} else {
		snap.Trade = trend
	}
	return snap, errors.Join(errs...)
}

type productionTotal struct {
	surface float64
	farms   int
}

func (a *Aggregator) production(ctx context.Context, territory string) ([]ProductionPoint, error) {
	byYear := make(map[int]productionTotal)
	err := db.ReadOnly(ctx, a.db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, productionQuery, territory)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var period, surface, farms sql.NullString
			if err := rows.Scan(&period, &surface, &farms); err != nil {
				return err
			}
			year, ok := parseYear(period)
			if !ok {
				continue
			}
			ha, okHa := optionalNumber(surface)
			n, okN := optionalNumber(farms)
			if !okHa || !okN {
				continue
			}
			t := byYear[year]
			t.surface += ha
			t.farms += int(n)
			byYear[year] = t
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	out := make([]ProductionPoint, 0, maxYears)
	for _, y := range recentYears(byYear, maxYears) {
		t := byYear[y]
		out = append(out, ProductionPoint{Year: y, SurfaceHa: round2(t.surface), Farms: t.farms})
	}
	return out, nil
}

func (a *Aggregator) sales(ctx context.Context) (SalesTrend, error) {
	byYear := make(map[int][]float64)
	err := db.ReadOnly(ctx, a.db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, salesQuery)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var channel, period, rate sql.NullString
			if err := rows.Scan(&channel, &period, &rate); err != nil {
				return err
			}
			year, ok := parseYear(period)
			if !ok {
				continue
			}
			v, ok := parseNumber(rate)
			if !ok {
				continue
			}
			byYear[year] = append(byYear[year], v)
		}
		return rows.Err()
	})
	if err != nil {
		return SalesTrend{}, err
	}
	return summarizeSales(byYear), nil
}

func summarizeSales(byYear map[int][]float64) SalesTrend {
	if len(byYear) == 0 {
		return SalesTrend{Details: []SalesPoint{}, Summary: noSalesSummary}
	}
	years := recentYears(byYear, maxYears)
	details := make([]SalesPoint, 0, len(years))
	pcts := make([]float64, 0, len(years))
	for _, y := range years {
		pct := round2(mean(byYear[y]) * 100)
		details = append(details, SalesPoint{Year: y, AverageGrowthPct: pct})
		pcts = append(pcts, pct)
	}
	avg := round2(mean(pcts))
	return SalesTrend{
		Period:           &Period{Start: years[0], End: years[len(years)-1]},
		AverageGrowthPct: &avg,
		Details:          details,
	}
}

func (a *Aggregator) trade(ctx context.Context) (TradeTrend, error) {
	byYear := make(map[int]float64)
	err := db.ReadOnly(ctx, a.db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, tradeQuery)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var family, flow, partner, period, value sql.NullString
			if err := rows.Scan(&family, &flow, &partner, &period, &value); err != nil {
				return err
			}
			year, ok := parseYear(period)
			if !ok {
				continue
			}
			v, ok := parseNumber(value)
			if !ok {
				continue
			}
			byYear[year] += v
		}
		return rows.Err()
	})
	if err != nil {
		return TradeTrend{}, err
	}
	return summarizeTrade(byYear), nil
}

func summarizeTrade(byYear map[int]float64) TradeTrend {
	if len(byYear) == 0 {
		return TradeTrend{Details: []TradePoint{}, Summary: noTradeSummary}
	}
	years := recentYears(byYear, maxYears)
	details := make([]TradePoint, 0, len(years))
	for _, y := range years {
		details = append(details, TradePoint{Year: y, TotalMEur: round2(byYear[y])})
	}
	return TradeTrend{
		Period:  &Period{Start: years[0], End: years[len(years)-1]},
		Details: details,
	}
}
