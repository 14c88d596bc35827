package aggfunctions

func NewCountAggregation() *CountAggregation {
	return &CountAggregation{}
}

// CountAggregation counts rows regardless of the column value.
type CountAggregation struct {
	count int64
}

func (c *CountAggregation) Add(value interface{}) Aggregation {
	c.count++
	return c
}

func (c *CountAggregation) Merge(other Aggregation) {
	if o, ok := other.(*CountAggregation); ok {
		c.count += o.count
	}
}

func (c *CountAggregation) Result() interface{} {
	return c.count
}

func NewDistinctCountAggregation() *DistinctCountAggregation {
	return &DistinctCountAggregation{seen: make(map[string]struct{})}
}

// DistinctCountAggregation counts distinct string values, skipping blanks.
type DistinctCountAggregation struct {
	seen map[string]struct{}
}

func (d *DistinctCountAggregation) Add(value interface{}) Aggregation {
	if s, ok := value.(string); ok && s != "" {
		d.seen[s] = struct{}{}
	}
	return d
}

func (d *DistinctCountAggregation) Merge(other Aggregation) {
	if o, ok := other.(*DistinctCountAggregation); ok {
		for s := range o.seen {
			d.seen[s] = struct{}{}
		}
	}
}

func (d *DistinctCountAggregation) Result() interface{} {
	return int64(len(d.seen))
}
