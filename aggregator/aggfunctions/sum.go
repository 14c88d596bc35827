package aggfunctions

import "github.com/shopspring/decimal"

func NewSumAggregation() *SumAggregation {
	return &SumAggregation{sum: decimal.Zero}
}

// SumAggregation sums in fixed-precision decimal so currency totals do not
// drift the way float sums do.
type SumAggregation struct {
	sum decimal.Decimal
}

func (s *SumAggregation) Add(value interface{}) Aggregation {
	switch v := value.(type) {
	case decimal.Decimal:
		s.sum = s.sum.Add(v)
	case int64:
		s.sum = s.sum.Add(decimal.NewFromInt(v))
	case int:
		s.sum = s.sum.Add(decimal.NewFromInt(int64(v)))
	case float64:
		s.sum = s.sum.Add(decimal.NewFromFloat(v))
	}
	return s
}

func (s *SumAggregation) Merge(other Aggregation) {
	if o, ok := other.(*SumAggregation); ok {
		s.sum = s.sum.Add(o.sum)
	}
}

func (s *SumAggregation) Result() interface{} {
	return s.sum
}
