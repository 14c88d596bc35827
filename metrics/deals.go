package metrics

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/johnryanerminio/thrive-analytics/aggregator"
	a "github.com/johnryanerminio/thrive-analytics/aggregator/aggfunctions"
	"github.com/johnryanerminio/thrive-analytics/aggregator/dataretainer"
	"github.com/johnryanerminio/thrive-analytics/ledger"
)

// DealTypeStats is one deal type's roll-up over regular sales.
type DealTypeStats struct {
	DealType     ledger.DealType
	Transactions int64
	LineItems    int64
	Units        int64
	Revenue      decimal.Decimal
	Discounts    decimal.Decimal
	Cost         decimal.Decimal
	DiscountRate decimal.NullDecimal
	Margin       decimal.NullDecimal
	PctOfRevenue decimal.NullDecimal
}

// DealTypeSummary breaks regular sales down by classified deal type,
// ordered by revenue descending.
func DealTypeSummary(engine *aggregator.Engine, period *ledger.PeriodFilter) ([]DealTypeStats, error) {
	results, err := engine.Run(aggregator.Query{
		Period:  period,
		Classes: []ledger.TxnClass{ledger.ClassRegular},
		GroupBy: []string{aggregator.DimDealType},
		Aggregations: []a.AggConfig{
			{Col: "receipt_id", Func: "count-distinct"},
			{Func: "count"},
			{Col: aggregator.ColQuantity, Func: "sum"},
			{Col: aggregator.ColActualRevenue, Func: "sum"},
			{Col: aggregator.ColDiscounts, Func: "sum"},
			{Col: aggregator.ColCost, Func: "sum"},
		},
	})
	if err != nil {
		return nil, err
	}

	var totalRevenue decimal.Decimal
	for _, r := range results {
		totalRevenue = totalRevenue.Add(r.Values[3].(decimal.Decimal))
	}

	out := make([]DealTypeStats, 0, len(results))
	for _, r := range results {
		s := DealTypeStats{
			DealType:     ledger.DealType(r.Key[0]),
			Transactions: r.Values[0].(int64),
			LineItems:    r.Values[1].(int64),
			Units:        r.Values[2].(decimal.Decimal).IntPart(),
			Revenue:      r.Values[3].(decimal.Decimal),
			Discounts:    r.Values[4].(decimal.Decimal),
			Cost:         r.Values[5].(decimal.Decimal),
		}
		s.DiscountRate = safeRatio(s.Discounts, s.Revenue.Add(s.Discounts))
		s.Margin = safeRatio(s.Revenue.Sub(s.Cost), s.Revenue)
		s.PctOfRevenue = safeRatio(s.Revenue, totalRevenue)
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Revenue.Equal(out[j].Revenue) {
			return out[i].Revenue.GreaterThan(out[j].Revenue)
		}
		return out[i].DealType < out[j].DealType
	})
	return out, nil
}

// DealUsage is one named deal's accumulated usage. Names come from the
// free-text deals field, split on commas; a line carrying several deals
// splits its discount evenly between them.
type DealUsage struct {
	Name      string
	Uses      int64
	Units     int64
	Discounts decimal.Decimal
	Revenue   decimal.Decimal
}

// ExpandDeals splits a row's comma-separated deals field into per-deal
// shares. Rows with no recorded deal expand to nothing.
func ExpandDeals(row *ledger.Row) []DealUsage {
	raw := strings.TrimSpace(row.DealsUsed)
	if raw == "" {
		raw = strings.TrimSpace(row.InlineDiscounts)
	}
	if raw == "" {
		return nil
	}

	var names []string
	for _, part := range strings.Split(raw, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}

	n := decimal.NewFromInt(int64(len(names)))
	discountShare := row.Discounts.Div(n)
	revenueShare := row.ActualRevenue.Div(n)
	out := make([]DealUsage, 0, len(names))
	for _, name := range names {
		out = append(out, DealUsage{
			Name:      name,
			Uses:      1,
			Units:     row.Quantity,
			Discounts: discountShare,
			Revenue:   revenueShare,
		})
	}
	return out
}

// DealSummary accumulates per-deal usage across discounted regular sales,
// ordered by discount dollars descending.
func DealSummary(engine *aggregator.Engine, period *ledger.PeriodFilter) []DealUsage {
	return dealSummary(engine, period, "")
}

// DealSummaryByStore is DealSummary restricted to one store, trimmed to the
// top n deals by discount dollars.
func DealSummaryByStore(engine *aggregator.Engine, period *ledger.PeriodFilter, store string, n int) []DealUsage {
	deals := dealSummary(engine, period, store)
	if n <= 0 || len(deals) == 0 {
		return deals
	}
	top := dataretainer.NewTopN[float64](n, true)
	for i := range deals {
		top.Insert(dataretainer.Entry[float64]{
			Key:     deals[i].Name,
			Value:   deals[i].Discounts.InexactFloat64(),
			Payload: i,
		})
	}
	out := make([]DealUsage, 0, n)
	for _, entry := range top.Values() {
		out = append(out, deals[entry.Payload.(int)])
	}
	return out
}

func dealSummary(engine *aggregator.Engine, period *ledger.PeriodFilter, store string) []DealUsage {
	rows := engine.Snapshot().Rows()
	byName := make(map[string]*DealUsage)
	for i := range rows {
		row := &rows[i]
		if row.Class != ledger.ClassRegular || !row.HasDiscount() {
			continue
		}
		if store != "" && !strings.EqualFold(row.Store, store) {
			continue
		}
		if period != nil && !period.Contains(row.SaleDate) {
			continue
		}
		for _, share := range ExpandDeals(row) {
			usage, ok := byName[share.Name]
			if !ok {
				usage = &DealUsage{Name: share.Name}
				byName[share.Name] = usage
			}
			usage.Uses += share.Uses
			usage.Units += share.Units
			usage.Discounts = usage.Discounts.Add(share.Discounts)
			usage.Revenue = usage.Revenue.Add(share.Revenue)
		}
	}

	out := make([]DealUsage, 0, len(byName))
	for _, usage := range byName {
		out = append(out, *usage)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Discounts.Equal(out[j].Discounts) {
			return out[i].Discounts.GreaterThan(out[j].Discounts)
		}
		return out[i].Name < out[j].Name
	})
	return out
}
