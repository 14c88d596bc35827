package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnryanerminio/thrive-analytics/ledger"
	"github.com/johnryanerminio/thrive-analytics/normalizer"
)

func testNormalizer(t *testing.T) *normalizer.Normalizer {
	t.Helper()
	n, err := normalizer.New(normalizer.Config{
		ColumnAliases:   normalizer.DefaultColumnAliases(),
		CategoryAliases: normalizer.DefaultCategoryAliases(),
	})
	require.NoError(t, err)
	return n
}

func writeExport(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const salesHeader = `Receipt ID,Completed At,Store,Product,Quantity Sold,"Post-Discount, Pre-Tax Total"` + "\n"

func TestLoadMergesOverlappingExportsOnce(t *testing.T) {
	dir := t.TempDir()
	january := writeExport(t, dir, "Margin Report 2025-01-01 2025-01-31.csv", salesHeader+
		"R-1,1/10/2025 10:00:00 AM,Cactus,FLOWER A,1,$10.00\n"+
		"R-2,1/20/2025 11:00:00 AM,Cactus,FLOWER B,1,$20.00\n")
	overlap := writeExport(t, dir, "Margin Report 2025-01-15 2025-02-15.csv", salesHeader+
		"R-2,1/20/2025 11:00:00 AM,Cactus,FLOWER B,1,$20.00\n"+
		"R-3,2/01/2025 12:00:00 PM,Cactus,FLOWER C,1,$30.00\n")

	summary := ledger.NewRunSummary("test")
	rows := New(testNormalizer(t), 2).Load([]string{overlap, january}, summary)

	assert.Len(t, rows, 3)
	assert.Equal(t, 1, summary.DuplicatesRemoved)
	assert.Equal(t, 4, summary.RawRows)
	assert.Equal(t, 3, summary.LedgerRows)
}

func TestLoadIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeExport(t, dir, "Margin Report 2025-01-01 2025-01-31.csv", salesHeader+
		"R-1,1/10/2025 10:00:00 AM,Cactus,FLOWER A,1,$10.00\n"+
		"R-2,1/20/2025 11:00:00 AM,Cactus,FLOWER B,1,$20.00\n")

	l := New(testNormalizer(t), 1)

	once := ledger.NewRunSummary("once")
	first := l.Load([]string{path}, once)

	twice := ledger.NewRunSummary("twice")
	second := l.Load([]string{path, path}, twice)

	assert.Equal(t, len(first), len(second))
	assert.Equal(t, 2, twice.DuplicatesRemoved)
	for i := range first {
		assert.Equal(t, first[i].IdentityKey(), second[i].IdentityKey())
	}
}

func TestLoadSkipsMalformedRowsAndMissingFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeExport(t, dir, "Margin Report 2025-01-01 2025-01-31.csv", salesHeader+
		"R-1,not a timestamp,Cactus,FLOWER A,1,$10.00\n"+
		"R-2,1/20/2025 11:00:00 AM,Cactus,FLOWER B,1,$20.00\n")

	summary := ledger.NewRunSummary("test")
	rows := New(testNormalizer(t), 1).Load([]string{path, filepath.Join(dir, "missing.csv")}, summary)

	assert.Len(t, rows, 1)
	assert.Equal(t, 1, summary.RowsSkipped)
	require.Len(t, summary.FilesSkipped, 1)
	assert.Contains(t, summary.FilesSkipped[0].Path, "missing.csv")
}

func TestLineSeqIsPerReceipt(t *testing.T) {
	dir := t.TempDir()
	path := writeExport(t, dir, "Margin Report 2025-01-01 2025-01-31.csv", salesHeader+
		"R-1,1/10/2025 10:00:00 AM,Cactus,FLOWER A,1,$10.00\n"+
		"R-1,1/10/2025 10:00:00 AM,Cactus,FLOWER B,1,$12.00\n"+
		"R-2,1/20/2025 11:00:00 AM,Cactus,FLOWER C,1,$20.00\n")

	summary := ledger.NewRunSummary("test")
	rows := New(testNormalizer(t), 1).Load([]string{path}, summary)

	require.Len(t, rows, 3)
	assert.Equal(t, 0, rows[0].LineSeq)
	assert.Equal(t, 1, rows[1].LineSeq)
	assert.Equal(t, 0, rows[2].LineSeq)
}

func TestDiscoverFiltersAndOrders(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "Margin Report 2025-01-01 2025-01-31.csv", salesHeader)
	writeExport(t, dir, "Margin Report 2025-02-01 2025-02-28.csv", salesHeader)
	writeExport(t, dir, "BT Sales 2025-02-01 2025-02-28.csv", "Name\n")
	writeExport(t, dir, "notes.txt", "not a csv")

	found := Discover(dir, []string{"margin"}, []string{"bt sales"})
	require.Len(t, found, 2)
	// Most recent end date first.
	assert.Contains(t, found[0], "2025-02-28")
	assert.Contains(t, found[1], "2025-01-31")

	assert.Empty(t, Discover(filepath.Join(dir, "nope"), []string{"margin"}, nil))
}
