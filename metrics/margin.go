// Package metrics implements the composite, report-facing calculators on
// top of the aggregation engine's primitives. Calculators never mutate the
// snapshot and report defined N/A values instead of dividing by zero.
package metrics

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/johnryanerminio/thrive-analytics/aggregator"
	a "github.com/johnryanerminio/thrive-analytics/aggregator/aggfunctions"
	"github.com/johnryanerminio/thrive-analytics/ledger"
)

var hundred = decimal.NewFromInt(100)

// safeRatio returns num/den as a percentage, invalid when den is zero.
func safeRatio(num, den decimal.Decimal) decimal.NullDecimal {
	if den.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: num.Div(den).Mul(hundred), Valid: true}
}

// MarginTotals is the full-price vs discounted margin breakdown for one
// slice of regular sales. Margins are ratio-of-sums percentages.
type MarginTotals struct {
	TotalUnits   int64
	TotalRevenue decimal.Decimal
	TotalCost    decimal.Decimal
	NetProfit    decimal.Decimal

	FullPriceUnits int64
	FullPriceSales decimal.Decimal
	FullPriceCost  decimal.Decimal

	DiscountedUnits int64
	DiscountedSales decimal.Decimal
	DiscountedCost  decimal.Decimal

	PctFullPrice  decimal.NullDecimal
	PctDiscounted decimal.NullDecimal

	FullPriceMargin  decimal.NullDecimal
	DiscountedMargin decimal.NullDecimal
	BlendedMargin    decimal.NullDecimal
}

// MarginGap is the spread between full-price and discounted blended margin,
// in margin points. Invalid when either side has no revenue.
func (t MarginTotals) MarginGap() decimal.NullDecimal {
	if !t.FullPriceMargin.Valid || !t.DiscountedMargin.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{
		Decimal: t.FullPriceMargin.Decimal.Sub(t.DiscountedMargin.Decimal),
		Valid:   true,
	}
}

func marginAggs() []a.AggConfig {
	return []a.AggConfig{
		{Col: aggregator.ColQuantity, Func: "sum"},
		{Col: aggregator.ColActualRevenue, Func: "sum"},
		{Col: aggregator.ColCost, Func: "sum"},
		{Col: aggregator.ColNetProfit, Func: "sum"},
	}
}

func (t *MarginTotals) addSide(discounted bool, values []interface{}) {
	units := values[0].(decimal.Decimal).IntPart()
	revenue := values[1].(decimal.Decimal)
	cost := values[2].(decimal.Decimal)
	profit := values[3].(decimal.Decimal)

	if discounted {
		t.DiscountedUnits = units
		t.DiscountedSales = revenue
		t.DiscountedCost = cost
	} else {
		t.FullPriceUnits = units
		t.FullPriceSales = revenue
		t.FullPriceCost = cost
	}
	t.TotalUnits += units
	t.TotalRevenue = t.TotalRevenue.Add(revenue)
	t.TotalCost = t.TotalCost.Add(cost)
	t.NetProfit = t.NetProfit.Add(profit)
}

func (t *MarginTotals) finish() {
	t.PctFullPrice = safeRatio(t.FullPriceSales, t.TotalRevenue)
	t.PctDiscounted = safeRatio(t.DiscountedSales, t.TotalRevenue)
	t.FullPriceMargin = safeRatio(t.FullPriceSales.Sub(t.FullPriceCost), t.FullPriceSales)
	t.DiscountedMargin = safeRatio(t.DiscountedSales.Sub(t.DiscountedCost), t.DiscountedSales)
	t.BlendedMargin = safeRatio(t.TotalRevenue.Sub(t.TotalCost), t.TotalRevenue)
}

// CompanyMarginTotals computes the margin breakdown over regular sales for
// a period, split by the classifier's discount flag before reducing.
func CompanyMarginTotals(engine *aggregator.Engine, period *ledger.PeriodFilter) (MarginTotals, error) {
	results, err := engine.Run(aggregator.Query{
		Period:       period,
		Classes:      []ledger.TxnClass{ledger.ClassRegular},
		GroupBy:      []string{aggregator.DimDiscounted},
		Aggregations: marginAggs(),
	})
	if err != nil {
		return MarginTotals{}, err
	}

	var totals MarginTotals
	for _, r := range results {
		totals.addSide(r.Key[0] == "DISCOUNTED", r.Values)
	}
	totals.finish()
	return totals, nil
}

// GroupMargin is one group's margin breakdown.
type GroupMargin struct {
	Name string
	MarginTotals
}

// MarginByGroup computes the full-price vs discounted breakdown per value
// of one dimension (store, brand, category). Output is ordered by total
// revenue descending, ties by name.
func MarginByGroup(engine *aggregator.Engine, period *ledger.PeriodFilter, dimension string) ([]GroupMargin, error) {
	results, err := engine.Run(aggregator.Query{
		Period:       period,
		Classes:      []ledger.TxnClass{ledger.ClassRegular},
		GroupBy:      []string{dimension, aggregator.DimDiscounted},
		Aggregations: marginAggs(),
	})
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*MarginTotals)
	var order []string
	for _, r := range results {
		name := r.Key[0]
		totals, ok := byName[name]
		if !ok {
			totals = &MarginTotals{}
			byName[name] = totals
			order = append(order, name)
		}
		totals.addSide(r.Key[1] == "DISCOUNTED", r.Values)
	}

	groups := make([]GroupMargin, 0, len(order))
	for _, name := range order {
		byName[name].finish()
		groups = append(groups, GroupMargin{Name: name, MarginTotals: *byName[name]})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if !groups[i].TotalRevenue.Equal(groups[j].TotalRevenue) {
			return groups[i].TotalRevenue.GreaterThan(groups[j].TotalRevenue)
		}
		return groups[i].Name < groups[j].Name
	})
	return groups, nil
}
