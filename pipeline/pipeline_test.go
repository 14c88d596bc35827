package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnryanerminio/thrive-analytics/classifier"
	"github.com/johnryanerminio/thrive-analytics/corrector"
	"github.com/johnryanerminio/thrive-analytics/ledger"
	"github.com/johnryanerminio/thrive-analytics/metrics"
	"github.com/johnryanerminio/thrive-analytics/normalizer"
)

const salesHeader = `Receipt ID,Completed At,Store,Product,Variant Type,Brand,Quantity Sold,` +
	`"Pre-Discount, Pre-Tax Total",Discounts,"Post-Discount, Pre-Tax Total",Cost,Cost Per Item,Deals Used` + "\n"

func testConfig(root string) *Config {
	return &Config{
		DataRoot:        root,
		LogLevel:        "INFO",
		Workers:         2,
		SalesKeywords:   []string{"margin"},
		ExcludeKeywords: []string{"bt sales", "customer"},
		Normalizer: normalizer.Config{
			ColumnAliases:   normalizer.DefaultColumnAliases(),
			CategoryAliases: normalizer.DefaultCategoryAliases(),
		},
		CostRules:       corrector.DefaultRules(),
		TxnRules:        classifier.DefaultTxnRules(),
		DealRules:       classifier.DefaultDealRules(),
		DealBands:       classifier.DefaultDealBands(),
		SegmentKeywords: metrics.DefaultSegmentKeywords(),
		MinTransactions: 20,
		TopN:            10,
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Margin Report 2025-01-01 2025-01-31.csv", salesHeader+
		`R-1,1/10/2025 10:00:00 AM,Cactus - RD2,HAUS FLOWER 3.5G,Flower,HAUS,1,$25.00,$0.00,$25.00,$10.00,$10.00,`+"\n"+
		`R-2,1/12/2025 11:00:00 AM,Cactus - RD2,LIGHTER,Accessory,,1,$5.00,$5.00,$0.00,$1.00,$1.00,REWARD - 100 Points - Lighter`+"\n")
	writeFile(t, dir, "Margin Report 2025-01-15 2025-02-15.csv", salesHeader+
		// Duplicate of R-1 from the overlapping export.
		`R-1,1/10/2025 10:00:00 AM,Cactus - RD2,HAUS FLOWER 3.5G,Flower,HAUS,1,$25.00,$0.00,$25.00,$10.00,$10.00,`+"\n"+
		`R-3,2/01/2025 12:00:00 PM,Durango,PISTOLA PRE ROLL,Pre-Roll,PISTOLA,2,$16.00,$0.00,$16.00,$6.00,$3.00,`+"\n")

	result, err := Run(testConfig(dir))
	require.NoError(t, err)

	summary := result.Summary
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 2, summary.FilesFound)
	assert.Equal(t, 2, summary.FilesLoaded)
	assert.Equal(t, 1, summary.DuplicatesRemoved)
	assert.Equal(t, 3, summary.LedgerRows)
	assert.Equal(t, 1, summary.ClassCounts[ledger.ClassReward])
	assert.Equal(t, 2, summary.ClassCounts[ledger.ClassRegular])

	rows := result.Snapshot.Rows()
	require.Len(t, rows, 3)

	byReceipt := make(map[string]ledger.Row)
	for _, row := range rows {
		byReceipt[row.ReceiptID] = row
	}

	// Register suffix stripped, category canonicalized.
	assert.Equal(t, "Cactus", byReceipt["R-1"].Store)
	assert.Equal(t, "PRE ROLL", byReceipt["R-3"].Category)

	// The in-house pre-roll cost was rewritten: 2 units at 4.00.
	assert.Equal(t, 2, summary.CostCorrected) // R-1 (HAUS default) and R-3 (PISTOLA pre-roll)
	assert.True(t, byReceipt["R-3"].CostPerItem.Equal(decimal.RequireFromString("4.00")))
	assert.True(t, byReceipt["R-3"].Cost.Equal(decimal.RequireFromString("8.00")))
	assert.True(t, byReceipt["R-1"].CostPerItem.Equal(decimal.RequireFromString("6.62")))

	assert.Equal(t, ledger.ClassReward, byReceipt["R-2"].Class)
}

func TestRunWithNoSalesExportsYieldsEmptyLedger(t *testing.T) {
	result, err := Run(testConfig(t.TempDir()))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Snapshot.Len())
	assert.Equal(t, 0, result.Summary.FilesFound)
	assert.Equal(t, 0, result.Summary.LedgerRows)
}

func TestRunLoadsSideExports(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Margin Report 2025-01-01 2025-01-31.csv", salesHeader+
		`R-1,1/10/2025 10:00:00 AM,Cactus,HAUS FLOWER 3.5G,Flower,HAUS,1,$25.00,$0.00,$25.00,$10.00,$10.00,`+"\n")
	writeFile(t, dir, "BT Sales 2025-01-01 2025-01-31.csv",
		"Name,Store,Average Cart Value (pre-tax),Number of Carts\nAlice,Cactus,$55.00,120\n")
	writeFile(t, dir, "Customer List 2025-01-31.csv",
		"ID,Name,Groups,Loyal\nC-1,Pat,Veteran,yes\n")

	cfg := testConfig(dir)
	cfg.BudtenderKeywords = []string{"bt sales"}
	cfg.CustomerKeywords = []string{"customer"}

	result, err := Run(cfg)
	require.NoError(t, err)
	require.Len(t, result.BudtenderStats, 1)
	assert.Equal(t, "Alice", result.BudtenderStats[0].Name)
	assert.Equal(t, int64(120), result.BudtenderStats[0].NumTransactions)
	require.Len(t, result.CustomerAttrs, 1)
	assert.True(t, result.CustomerAttrs[0].IsLoyal)
}

func TestOverlappingSideExportsLoadNewestOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Margin Report 2025-02-01 2025-02-28.csv", salesHeader+
		`R-1,2/10/2025 10:00:00 AM,Cactus,HAUS FLOWER 3.5G,Flower,HAUS,1,$25.00,$0.00,$25.00,$10.00,$10.00,`+"\n")
	// Both exports cover Alice; only the newest counts, or her stats would
	// double in the scoring population.
	writeFile(t, dir, "BT Sales 2025-01-01 2025-01-31.csv",
		"Name,Store,Number of Carts\nAlice,Cactus,120\n")
	writeFile(t, dir, "BT Sales 2025-01-15 2025-02-15.csv",
		"Name,Store,Number of Carts\nAlice,Cactus,150\n")

	cfg := testConfig(dir)
	cfg.BudtenderKeywords = []string{"bt sales"}

	result, err := Run(cfg)
	require.NoError(t, err)
	require.Len(t, result.BudtenderStats, 1)
	assert.Equal(t, "Alice", result.BudtenderStats[0].Name)
	assert.Equal(t, int64(150), result.BudtenderStats[0].NumTransactions)
}

func TestSideExportFallsBackWhenNewestUnreadable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Margin Report 2025-02-01 2025-02-28.csv", salesHeader+
		`R-1,2/10/2025 10:00:00 AM,Cactus,HAUS FLOWER 3.5G,Flower,HAUS,1,$25.00,$0.00,$25.00,$10.00,$10.00,`+"\n")
	writeFile(t, dir, "BT Sales 2025-01-01 2025-01-31.csv",
		"Name,Store,Number of Carts\nAlice,Cactus,120\n")
	// Newest export is empty and fails on its missing header.
	writeFile(t, dir, "BT Sales 2025-02-01 2025-02-28.csv", "")

	cfg := testConfig(dir)
	cfg.BudtenderKeywords = []string{"bt sales"}

	result, err := Run(cfg)
	require.NoError(t, err)
	require.Len(t, result.BudtenderStats, 1)
	assert.Equal(t, int64(120), result.BudtenderStats[0].NumTransactions)
}
