package aggregator

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	roaring "github.com/RoaringBitmap/roaring/roaring64"
	"github.com/op/go-logging"

	a "github.com/johnryanerminio/thrive-analytics/aggregator/aggfunctions"
)

var log = logging.MustGetLogger("log")

// Engine serves read-only queries over the current snapshot. A new
// ingestion run publishes a fresh snapshot that atomically replaces the old
// one; in-flight queries keep reading the snapshot they started with.
type Engine struct {
	snap    atomic.Pointer[Snapshot]
	workers int
}

func NewEngine(snap *Snapshot, workers int) *Engine {
	if workers < 1 {
		workers = 1
	}
	e := &Engine{workers: workers}
	e.snap.Store(snap)
	return e
}

// Publish atomically replaces the served snapshot.
func (e *Engine) Publish(snap *Snapshot) {
	e.snap.Store(snap)
	log.Infof("Published snapshot with %d rows", snap.Len())
}

func (e *Engine) Snapshot() *Snapshot {
	return e.snap.Load()
}

// Run executes one filter/group/reduce query. Results are ordered by the
// group key's natural sort, not insertion order, so report output is stable
// across runs.
func (e *Engine) Run(q Query) ([]GroupResult, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	snap := e.Snapshot()
	rows := snap.Rows()

	// One filtering pass builds the row-selection mask.
	mask := roaring.New()
	for i := range rows {
		if q.matches(&rows[i]) {
			mask.Add(uint64(i))
		}
	}

	selected := mask.ToArray()
	shards := e.shard(selected)

	// Each shard reduces independently into its own group map; partials are
	// merged in shard order so the result does not depend on scheduling.
	partials := make([]map[string][]a.Aggregation, len(shards))
	var wg sync.WaitGroup
	for s, shard := range shards {
		wg.Add(1)
		go func(s int, shard []uint64) {
			defer wg.Done()
			groups := make(map[string][]a.Aggregation)
			for _, idx := range shard {
				row := &rows[idx]
				key := q.groupKey(row)
				aggs, ok := groups[key]
				if !ok {
					aggs = make([]a.Aggregation, len(q.Aggregations))
					for i, cfg := range q.Aggregations {
						aggs[i] = a.NewAggregation(cfg.Func)
					}
					groups[key] = aggs
				}
				for i, cfg := range q.Aggregations {
					aggs[i].Add(aggInput(row, cfg))
				}
			}
			partials[s] = groups
		}(s, shard)
	}
	wg.Wait()

	merged := make(map[string][]a.Aggregation)
	for _, partial := range partials {
		for key, aggs := range partial {
			if existing, ok := merged[key]; ok {
				for i := range existing {
					existing[i].Merge(aggs[i])
				}
			} else {
				merged[key] = aggs
			}
		}
	}

	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	results := make([]GroupResult, 0, len(keys))
	for _, key := range keys {
		aggs := merged[key]
		values := make([]interface{}, len(aggs))
		for i, agg := range aggs {
			values[i] = agg.Result()
		}
		var parts []string
		if len(q.GroupBy) > 0 {
			parts = strings.Split(key, KeyPartsSeparator)
		}
		results = append(results, GroupResult{Key: parts, Values: values})
	}
	return results, nil
}

// RunWithComparison runs the query for its period and for the immediately
// preceding period of the same shape (month-over-month, YoY).
func (e *Engine) RunWithComparison(q Query) (current, previous []GroupResult, err error) {
	current, err = e.Run(q)
	if err != nil {
		return nil, nil, err
	}
	if q.Period == nil {
		return current, nil, nil
	}
	prevPeriod := q.Period.Previous()
	prevQuery := q
	prevQuery.Period = &prevPeriod
	previous, err = e.Run(prevQuery)
	if err != nil {
		return nil, nil, err
	}
	return current, previous, nil
}

func (e *Engine) shard(selected []uint64) [][]uint64 {
	workers := e.workers
	if workers > len(selected) {
		workers = len(selected)
	}
	if workers <= 1 {
		if len(selected) == 0 {
			return nil
		}
		return [][]uint64{selected}
	}
	shards := make([][]uint64, 0, workers)
	chunk := (len(selected) + workers - 1) / workers
	for start := 0; start < len(selected); start += chunk {
		end := start + chunk
		if end > len(selected) {
			end = len(selected)
		}
		shards = append(shards, selected[start:end])
	}
	return shards
}
