package main

import (
	"os"

	"github.com/op/go-logging"
	"github.com/shopspring/decimal"

	"github.com/johnryanerminio/thrive-analytics/aggregator"
	"github.com/johnryanerminio/thrive-analytics/ledger"
	"github.com/johnryanerminio/thrive-analytics/metrics"
	"github.com/johnryanerminio/thrive-analytics/pipeline"
)

var log = logging.MustGetLogger("log")

// InitLogger Receives the log level to be set in go-logging as a string. This method
// parses the string and set the level to the logger. If the level string is not
// valid an error is returned
func InitLogger(logLevel string) error {
	baseBackend := logging.NewLogBackend(os.Stdout, "", 0)
	format := logging.MustStringFormatter(
		`%{time:2006-01-02 15:04:05} %{level:.5s}     %{message}`,
	)
	backendFormatter := logging.NewBackendFormatter(baseBackend, format)

	backendLeveled := logging.AddModuleLevel(backendFormatter)
	logLevelCode, err := logging.LogLevel(logLevel)
	if err != nil {
		return err
	}
	backendLeveled.SetLevel(logLevelCode, "")

	// Set the backends to be used.
	logging.SetBackend(backendLeveled)
	return nil
}

func main() {
	config, err := pipeline.InitConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %s", err)
	}

	if err := InitLogger(config.LogLevel); err != nil {
		log.Fatalf("%s", err)
	}

	log.Debugf("Config: %+v", config)

	result, err := pipeline.Run(config)
	if err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}

	engine := aggregator.NewEngine(result.Snapshot, config.Workers)

	reportHeadlines(engine, config, result)
}

// reportHeadlines logs the company-level numbers every run is expected to
// produce. Deeper breakdowns are served through the engine's query API.
func reportHeadlines(engine *aggregator.Engine, config *pipeline.Config, result *pipeline.Result) {
	var period *ledger.PeriodFilter

	totals, err := metrics.CompanyMarginTotals(engine, period)
	if err != nil {
		log.Errorf("Margin totals failed: %v", err)
	} else {
		log.Infof("Revenue %s | blended margin %s%% | margin gap %s pts",
			totals.TotalRevenue.StringFixed(2),
			nullString(totals.BlendedMargin),
			nullString(totals.MarginGap()))
	}

	rewards := metrics.ComputeRewardsReport(engine, period)
	log.Infof("Loyalty net cost %s (%s) projecting %s/month",
		rewards.TotalNetCost.StringFixed(2), rewards.DateRange,
		rewards.MonthlyProjection.StringFixed(2))

	if len(result.BudtenderStats) > 0 {
		f2f := metrics.FaceToFacePct(engine, period)
		scores := metrics.SalesScores(result.BudtenderStats, f2f, config.MinTransactions)
		summary := metrics.SummarizeScores(scores)
		log.Infof("Budtenders scored: %d (avg %.1f, %d top performers, %d need coaching)",
			summary.TotalBudtenders, summary.AvgSalesScore,
			summary.TopPerformers, summary.NeedsCoaching)
	}

	customers, err := metrics.ComputeCustomerMetrics(engine, result.CustomerAttrs, config.SegmentKeywords, period)
	if err != nil {
		log.Errorf("Customer metrics failed: %v", err)
		return
	}
	for _, seg := range metrics.SegmentSummary(customers, totals.TotalRevenue) {
		log.Infof("Segment %-10s %5d customers, revenue %s",
			seg.Segment, seg.Customers, seg.TotalRevenue.StringFixed(2))
	}
}

func nullString(v decimal.NullDecimal) string {
	if !v.Valid {
		return "N/A"
	}
	return v.Decimal.StringFixed(1)
}
