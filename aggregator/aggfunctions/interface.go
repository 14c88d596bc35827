package aggfunctions

import "github.com/shopspring/decimal"

// AggConfig names one reduction over a ledger column. Denom is only used by
// the ratio function, which reduces Col and Denom as sums and divides once
// at the end (ratio-of-sums, never average-of-ratios).
type AggConfig struct {
	Col   string `json:"col" mapstructure:"col"`
	Func  string `json:"func" mapstructure:"func"`
	Denom string `json:"denom" mapstructure:"denom"`
}

// Pair carries the numerator and denominator values for one row of a ratio
// reduction.
type Pair struct {
	Num decimal.Decimal
	Den decimal.Decimal
}

// Aggregation accumulates one reduction. Result returns nil when the
// reduction is not applicable (empty group, zero denominator) so callers
// get a defined "N/A" instead of a crash.
type Aggregation interface {
	Add(value interface{}) Aggregation
	Merge(other Aggregation)
	Result() interface{}
}
