package aggfunctions

import "github.com/shopspring/decimal"

func NewAvgAggregation() *AvgAggregation {
	return &AvgAggregation{sum: decimal.Zero}
}

// AvgAggregation is a running decimal mean. An empty group has no mean and
// reports nil.
type AvgAggregation struct {
	sum   decimal.Decimal
	count int64
}

func (a *AvgAggregation) Add(value interface{}) Aggregation {
	switch v := value.(type) {
	case decimal.Decimal:
		a.sum = a.sum.Add(v)
		a.count++
	case int64:
		a.sum = a.sum.Add(decimal.NewFromInt(v))
		a.count++
	case float64:
		a.sum = a.sum.Add(decimal.NewFromFloat(v))
		a.count++
	}
	return a
}

func (a *AvgAggregation) Merge(other Aggregation) {
	if o, ok := other.(*AvgAggregation); ok {
		a.sum = a.sum.Add(o.sum)
		a.count += o.count
	}
}

func (a *AvgAggregation) Result() interface{} {
	if a.count == 0 {
		return nil
	}
	return a.sum.Div(decimal.NewFromInt(a.count))
}
