package aggfunctions

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

func NewRatioAggregation() *RatioAggregation {
	return &RatioAggregation{num: decimal.Zero, den: decimal.Zero}
}

// RatioAggregation sums numerator and denominator separately and divides
// once at the end, reported as a percentage. Summing first avoids the
// Simpson's-paradox distortion of averaging per-row percentages across
// uneven groups. A zero denominator reports nil.
type RatioAggregation struct {
	num decimal.Decimal
	den decimal.Decimal
}

func (r *RatioAggregation) Add(value interface{}) Aggregation {
	if p, ok := value.(Pair); ok {
		r.num = r.num.Add(p.Num)
		r.den = r.den.Add(p.Den)
	}
	return r
}

func (r *RatioAggregation) Merge(other Aggregation) {
	if o, ok := other.(*RatioAggregation); ok {
		r.num = r.num.Add(o.num)
		r.den = r.den.Add(o.den)
	}
}

func (r *RatioAggregation) Result() interface{} {
	if r.den.IsZero() {
		return nil
	}
	return r.num.Div(r.den).Mul(hundred)
}
