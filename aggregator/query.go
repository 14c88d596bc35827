package aggregator

import (
	"fmt"
	"strings"

	a "github.com/johnryanerminio/thrive-analytics/aggregator/aggfunctions"
	"github.com/johnryanerminio/thrive-analytics/ledger"
)

const KeyPartsSeparator = "|"

// Query describes one filter/group/reduce pass over the snapshot. All
// filter fields are optional; empty slices mean "no filter on that
// dimension".
type Query struct {
	Period     *ledger.PeriodFilter
	Stores     []string
	Brands     []string
	Categories []string
	Classes    []ledger.TxnClass
	DealTypes  []ledger.DealType
	// Discounted restricts to discounted (true) or full-price (false) rows.
	Discounted *bool

	GroupBy      []string
	Aggregations []a.AggConfig
}

// GroupResult is one output record: the group's dimension values (in
// GroupBy order) and one reduced value per aggregation. A nil value means
// the reduction was not applicable for the group.
type GroupResult struct {
	Key    []string
	Values []interface{}
}

func (q *Query) validate() error {
	for _, dim := range q.GroupBy {
		if _, err := dimensionValue(&ledger.Row{}, dim); err != nil {
			return err
		}
	}
	if len(q.Aggregations) == 0 {
		return fmt.Errorf("query has no aggregations")
	}
	for _, cfg := range q.Aggregations {
		probe := a.NewAggregation(cfg.Func)
		if probe == nil {
			return fmt.Errorf("unknown aggregation func %q", cfg.Func)
		}
		row := &ledger.Row{}
		switch cfg.Func {
		case "count":
			// any column, including none
		case "count-distinct":
			if _, ok := stringValue(row, cfg.Col); !ok {
				return fmt.Errorf("count-distinct needs an identifier column, got %q", cfg.Col)
			}
		case "ratio":
			if _, ok := numericValue(row, cfg.Col); !ok {
				return fmt.Errorf("ratio numerator %q is not a numeric column", cfg.Col)
			}
			if _, ok := numericValue(row, cfg.Denom); !ok {
				return fmt.Errorf("ratio denominator %q is not a numeric column", cfg.Denom)
			}
		default:
			if _, ok := numericValue(row, cfg.Col); !ok {
				return fmt.Errorf("%s needs a numeric column, got %q", cfg.Func, cfg.Col)
			}
		}
	}
	return nil
}

func (q *Query) matches(row *ledger.Row) bool {
	if q.Period != nil && !q.Period.Contains(row.SaleDate) {
		return false
	}
	if len(q.Stores) > 0 && !containsFold(q.Stores, row.Store) {
		return false
	}
	if len(q.Brands) > 0 && !containsFold(q.Brands, row.Brand) {
		return false
	}
	if len(q.Categories) > 0 && !containsFold(q.Categories, row.Category) {
		return false
	}
	if len(q.Classes) > 0 && !containsClass(q.Classes, row.Class) {
		return false
	}
	if len(q.DealTypes) > 0 && !containsDeal(q.DealTypes, row.DealType) {
		return false
	}
	if q.Discounted != nil && row.HasDiscount() != *q.Discounted {
		return false
	}
	return true
}

func (q *Query) groupKey(row *ledger.Row) string {
	if len(q.GroupBy) == 0 {
		return ""
	}
	parts := make([]string, len(q.GroupBy))
	for i, dim := range q.GroupBy {
		parts[i], _ = dimensionValue(row, dim)
	}
	return strings.Join(parts, KeyPartsSeparator)
}

// aggInput extracts the value fed into one aggregation for a row.
func aggInput(row *ledger.Row, cfg a.AggConfig) interface{} {
	switch cfg.Func {
	case "count":
		return struct{}{}
	case "count-distinct":
		v, _ := stringValue(row, cfg.Col)
		return v
	case "ratio":
		num, _ := numericValue(row, cfg.Col)
		den, _ := numericValue(row, cfg.Denom)
		return a.Pair{Num: num, Den: den}
	default:
		v, _ := numericValue(row, cfg.Col)
		return v
	}
}

func containsFold(set []string, value string) bool {
	for _, s := range set {
		if strings.EqualFold(s, value) {
			return true
		}
	}
	return false
}

func containsClass(set []ledger.TxnClass, value ledger.TxnClass) bool {
	for _, s := range set {
		if s == value {
			return true
		}
	}
	return false
}

func containsDeal(set []ledger.DealType, value ledger.DealType) bool {
	for _, s := range set {
		if s == value {
			return true
		}
	}
	return false
}
