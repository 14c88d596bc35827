// Package pipeline wires the ingestion stages into one run: discover files,
// load and deduplicate, correct costs, verify integrity, classify, then
// publish an immutable snapshot for the aggregation engine.
package pipeline

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/op/go-logging"

	"github.com/johnryanerminio/thrive-analytics/aggregator"
	"github.com/johnryanerminio/thrive-analytics/classifier"
	"github.com/johnryanerminio/thrive-analytics/corrector"
	"github.com/johnryanerminio/thrive-analytics/ledger"
	"github.com/johnryanerminio/thrive-analytics/loader"
	"github.com/johnryanerminio/thrive-analytics/normalizer"
)

var log = logging.MustGetLogger("log")

// Result is everything one ingestion run produces: the published snapshot,
// the run summary and the side exports used by the staff and customer
// calculators.
type Result struct {
	Snapshot       *aggregator.Snapshot
	Summary        *ledger.RunSummary
	BudtenderStats []loader.BudtenderStat
	CustomerAttrs  []loader.CustomerAttr
}

// Run executes the full ingestion pipeline for one data root. Stage order is
// fixed: dedup before correction so each unique row is corrected once, and
// correction before classification so zero-cash checks see final numbers.
func Run(cfg *Config) (*Result, error) {
	runID := uuid.New().String()
	summary := ledger.NewRunSummary(runID)
	log.Infof("Starting run %s over %s", runID, cfg.DataRoot)

	norm, err := normalizer.New(cfg.Normalizer)
	if err != nil {
		return nil, fmt.Errorf("building normalizer: %w", err)
	}

	// Zero discovered exports is a valid run: the ledger is empty and the
	// summary says so.
	salesFiles := loader.Discover(cfg.DataRoot, cfg.SalesKeywords, cfg.ExcludeKeywords)
	if len(salesFiles) == 0 {
		log.Warningf("No sales exports found under %s", cfg.DataRoot)
	}

	rows := loader.New(norm, cfg.Workers).Load(salesFiles, summary)
	corrector.New(cfg.CostRules).Apply(rows, summary)
	classifier.New(cfg.TxnRules, cfg.DealRules, cfg.DealBands).Apply(rows, summary)
	flagNegativeNet(rows, summary)

	result := &Result{
		Snapshot: aggregator.NewSnapshot(rows, summary),
		Summary:  summary,
	}
	result.BudtenderStats = loadNewestSideFile(cfg.DataRoot, cfg.BudtenderKeywords, loader.LoadBudtenderStats)
	result.CustomerAttrs = loadNewestSideFile(cfg.DataRoot, cfg.CustomerKeywords, loader.LoadCustomerAttributes)

	log.Infof("%s", summary)
	return result, nil
}

// flagNegativeNet marks rows collecting negative revenue outside the classes
// where giveaways make that expected. The rows stay in the ledger; the flag
// feeds the audit trail.
func flagNegativeNet(rows []ledger.Row, summary *ledger.RunSummary) {
	for i := range rows {
		if rows[i].Class == ledger.ClassMarkout || rows[i].Class == ledger.ClassComp {
			continue
		}
		if rows[i].ActualRevenue.IsNegative() {
			rows[i].NegativeNet = true
			summary.NegativeNetRows++
		}
	}
}

// loadNewestSideFile loads the most recent export matching the keywords.
// Older overlapping exports repeat the same people, so only one file is
// read; earlier files are fallbacks when the newest fails to parse.
func loadNewestSideFile[T any](root string, keywords []string, load func(string) ([]T, error)) []T {
	for _, path := range loader.Discover(root, keywords, nil) {
		records, err := load(path)
		if err != nil {
			log.Warningf("Skipping %s: %v", path, err)
			continue
		}
		log.Infof("Loaded %d records from %s", len(records), path)
		return records
	}
	return nil
}
