// Package loader discovers sales export files, parses them concurrently and
// merges overlapping exports into one deduplicated ledger.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/op/go-logging"

	"github.com/johnryanerminio/thrive-analytics/ledger"
	"github.com/johnryanerminio/thrive-analytics/normalizer"
)

var log = logging.MustGetLogger("log")

type Loader struct {
	norm    *normalizer.Normalizer
	workers int
}

func New(norm *normalizer.Normalizer, workers int) *Loader {
	if workers < 1 {
		workers = 1
	}
	return &Loader{norm: norm, workers: workers}
}

type fileResult struct {
	path         string
	rows         []ledger.Row
	rowsSkipped  int
	unmappedCols []string
	err          error
}

// Load parses every file on a bounded worker pool and merges the results in
// file order with first-seen-wins deduplication. A file that fails to parse
// is recorded in the summary and skipped; the run continues with the rest.
// An empty file set yields an empty ledger.
func (l *Loader) Load(paths []string, summary *ledger.RunSummary) []ledger.Row {
	summary.FilesFound = len(paths)
	if len(paths) == 0 {
		return nil
	}

	// Results are indexed by discovery position: workers may finish in any
	// order but the merge below is deterministic.
	results := make([]fileResult, len(paths))
	sem := make(chan struct{}, l.workers)
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = l.parseFile(path)
		}(i, path)
	}
	wg.Wait()

	seen := make(map[string]struct{})
	lineSeq := make(map[string]int)
	var rows []ledger.Row
	for _, res := range results {
		if res.err != nil {
			log.Warningf("Skipping %s: %v", res.path, res.err)
			summary.FilesSkipped = append(summary.FilesSkipped, ledger.FileError{Path: res.path, Err: res.err.Error()})
			continue
		}
		summary.FilesLoaded++
		summary.RawRows += len(res.rows)
		summary.RowsSkipped += res.rowsSkipped
		for _, col := range res.unmappedCols {
			summary.UnmappedColumns[col]++
		}

		kept := 0
		for _, row := range res.rows {
			key := row.IdentityKey()
			if _, dup := seen[key]; dup {
				summary.DuplicatesRemoved++
				continue
			}
			seen[key] = struct{}{}
			row.LineSeq = lineSeq[row.ReceiptID]
			lineSeq[row.ReceiptID]++
			if row.UnmappedCategory {
				summary.FlagUnmappedCategory(row.Category)
			}
			if row.UnmappedBrand {
				summary.FlagUnmappedBrand(row.Brand)
			}
			rows = append(rows, row)
			kept++
		}
		log.Infof("[%d/%d] %s: %d rows, %d kept", summary.FilesLoaded, len(paths), res.path, len(res.rows), kept)
	}

	summary.LedgerRows = len(rows)
	return rows
}

func (l *Loader) parseFile(path string) fileResult {
	result := fileResult{path: path}

	file, err := os.Open(path)
	if err != nil {
		result.err = err
		return result
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	rawHeader, err := reader.Read()
	if err != nil {
		result.err = fmt.Errorf("reading header: %w", err)
		return result
	}
	header, unmapped := l.norm.MapHeader(rawHeader)
	result.unmappedCols = unmapped

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed line: skip the row, keep the file.
			result.rowsSkipped++
			continue
		}
		row, err := l.norm.Row(header, record)
		if err != nil {
			result.rowsSkipped++
			continue
		}
		result.rows = append(result.rows, row)
	}
	return result
}
