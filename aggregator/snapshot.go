// Package aggregator holds the canonical ledger in memory and answers
// filter/group/reduce queries over it. It is a batch analytical store: every
// reduction scans the immutable snapshot directly, so there are no cached
// partial sums that could drift out of agreement between reports.
package aggregator

import (
	"github.com/johnryanerminio/thrive-analytics/ledger"
)

// Snapshot is the canonical ledger produced by one ingestion run. It is
// never mutated after construction and may be shared across concurrent
// readers without locking.
type Snapshot struct {
	rows    []ledger.Row
	summary *ledger.RunSummary
}

// NewSnapshot takes ownership of rows; callers must not modify the slice
// afterwards.
func NewSnapshot(rows []ledger.Row, summary *ledger.RunSummary) *Snapshot {
	if summary == nil {
		summary = ledger.NewRunSummary("")
	}
	return &Snapshot{rows: rows, summary: summary}
}

func (s *Snapshot) Len() int { return len(s.rows) }

// Rows exposes the ledger for read-only iteration.
func (s *Snapshot) Rows() []ledger.Row { return s.rows }

func (s *Snapshot) Summary() *ledger.RunSummary { return s.summary }
