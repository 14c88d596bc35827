package ledger

import "fmt"

// FileError records a file that could not be ingested. The run keeps going;
// the error is reported in the run summary instead.
type FileError struct {
	Path string
	Err  string
}

// RunSummary is the structured account of an ingestion run: what was
// loaded, what was skipped and what was flagged. A run never silently
// produces a partial ledger without reporting the gaps here.
type RunSummary struct {
	RunID string

	FilesFound   int
	FilesLoaded  int
	FilesSkipped []FileError

	RawRows           int
	RowsSkipped       int
	DuplicatesRemoved int
	LedgerRows        int

	UnmappedColumns    map[string]int
	UnmappedCategories map[string]int
	UnmappedBrands     map[string]int

	CostCorrected   int
	NegativeNetRows int

	ClassCounts map[TxnClass]int
}

func NewRunSummary(runID string) *RunSummary {
	return &RunSummary{
		RunID:              runID,
		UnmappedColumns:    make(map[string]int),
		UnmappedCategories: make(map[string]int),
		UnmappedBrands:     make(map[string]int),
		ClassCounts:        make(map[TxnClass]int),
	}
}

// FlagUnmappedCategory counts a category label that passed through the
// normalizer without an alias match.
func (s *RunSummary) FlagUnmappedCategory(label string) {
	s.UnmappedCategories[label]++
}

func (s *RunSummary) FlagUnmappedBrand(label string) {
	s.UnmappedBrands[label]++
}

func (s *RunSummary) String() string {
	return fmt.Sprintf(
		"run %s: %d/%d files loaded (%d skipped), %d raw rows, %d row parse errors, %d duplicates removed, %d ledger rows, %d cost-corrected, %d negative-net warnings, %d unmapped categories, %d unmapped brands",
		s.RunID, s.FilesLoaded, s.FilesFound, len(s.FilesSkipped),
		s.RawRows, s.RowsSkipped, s.DuplicatesRemoved, s.LedgerRows,
		s.CostCorrected, s.NegativeNetRows,
		len(s.UnmappedCategories), len(s.UnmappedBrands),
	)
}
