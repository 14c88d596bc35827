package aggregator

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	a "github.com/johnryanerminio/thrive-analytics/aggregator/aggfunctions"
	"github.com/johnryanerminio/thrive-analytics/ledger"
)

// Stores returns the unique store names, sorted.
func (e *Engine) Stores() []string {
	return e.distinctDim(DimStore)
}

// Categories returns the unique canonical categories, sorted.
func (e *Engine) Categories() []string {
	return e.distinctDim(DimCategory)
}

func (e *Engine) distinctDim(dim string) []string {
	rows := e.Snapshot().Rows()
	set := make(map[string]struct{})
	for i := range rows {
		value, _ := dimensionValue(&rows[i], dim)
		if value != "" {
			set[value] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for value := range set {
		out = append(out, value)
	}
	sort.Strings(out)
	return out
}

// Brands returns brand names ordered by regular-sale revenue descending,
// the order brand reports are presented in.
func (e *Engine) Brands() []string {
	results, err := e.Run(Query{
		Classes:      []ledger.TxnClass{ledger.ClassRegular},
		GroupBy:      []string{DimBrand},
		Aggregations: []a.AggConfig{{Col: ColActualRevenue, Func: "sum"}},
	})
	if err != nil {
		return nil
	}
	sort.SliceStable(results, func(i, j int) bool {
		ri := results[i].Values[0].(decimal.Decimal)
		rj := results[j].Values[0].(decimal.Decimal)
		return ri.GreaterThan(rj)
	})
	brands := make([]string, 0, len(results))
	for _, r := range results {
		if r.Key[0] != "" {
			brands = append(brands, r.Key[0])
		}
	}
	return brands
}

// Period is one month with data.
type Period struct {
	Year  int
	Month time.Month
	Label string
}

// PeriodsAvailable lists the months present in the ledger, ascending.
func (e *Engine) PeriodsAvailable() []Period {
	rows := e.Snapshot().Rows()
	seen := make(map[string]Period)
	for i := range rows {
		key := rows[i].YearMonth()
		if _, ok := seen[key]; !ok {
			seen[key] = Period{
				Year:  rows[i].Year,
				Month: time.Month(rows[i].Month),
				Label: time.Date(rows[i].Year, time.Month(rows[i].Month), 1, 0, 0, 0, 0, time.UTC).Format("January 2006"),
			}
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	periods := make([]Period, 0, len(keys))
	for _, key := range keys {
		periods = append(periods, seen[key])
	}
	return periods
}

// DateRange reports the span of sale dates in the period as
// "YYYY-MM-DD to YYYY-MM-DD", or "N/A" when the period holds no rows.
func (e *Engine) DateRange(period *ledger.PeriodFilter) string {
	rows := e.Snapshot().Rows()
	var min, max time.Time
	for i := range rows {
		if period != nil && !period.Contains(rows[i].SaleDate) {
			continue
		}
		day := rows[i].SaleDate
		if min.IsZero() || day.Before(min) {
			min = day
		}
		if max.IsZero() || day.After(max) {
			max = day
		}
	}
	if min.IsZero() {
		return "N/A"
	}
	return min.Format("2006-01-02") + " to " + max.Format("2006-01-02")
}

// SampleDays counts the calendar days spanned by the period's data,
// used to scale observed costs into projections.
func (e *Engine) SampleDays(period *ledger.PeriodFilter) int {
	rows := e.Snapshot().Rows()
	var min, max time.Time
	for i := range rows {
		if period != nil && !period.Contains(rows[i].SaleDate) {
			continue
		}
		day := rows[i].SaleDate
		if min.IsZero() || day.Before(min) {
			min = day
		}
		if max.IsZero() || day.After(max) {
			max = day
		}
	}
	if min.IsZero() {
		return 0
	}
	return int(max.Sub(min).Hours()/24) + 1
}
