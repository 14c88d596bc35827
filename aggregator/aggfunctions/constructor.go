package aggfunctions

// NewAggregation builds the accumulator for a function name. Unknown names
// return nil; the engine rejects them before any row is scanned.
func NewAggregation(funcName string) Aggregation {
	switch funcName {
	case "sum":
		return NewSumAggregation()
	case "count":
		return NewCountAggregation()
	case "count-distinct":
		return NewDistinctCountAggregation()
	case "avg":
		return NewAvgAggregation()
	case "ratio":
		return NewRatioAggregation()
	}
	return nil
}
