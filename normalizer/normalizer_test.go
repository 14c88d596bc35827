package normalizer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	n, err := New(Config{
		ColumnAliases:   DefaultColumnAliases(),
		CategoryAliases: DefaultCategoryAliases(),
	})
	require.NoError(t, err)
	return n
}

func TestMapHeaderFlagsUnknownColumns(t *testing.T) {
	n := defaultNormalizer(t)
	header, unmapped := n.MapHeader([]string{"Receipt ID", "Mystery Column", " Store "})
	assert.Equal(t, []string{ColReceiptID, "Mystery Column", ColStore}, header)
	assert.Equal(t, []string{"Mystery Column"}, unmapped)
}

func TestRowParsesCurrencyAndTimestamp(t *testing.T) {
	n := defaultNormalizer(t)
	header := []string{
		ColReceiptID, ColCompletedAt, ColStore, ColProduct, ColCategory,
		ColBrand, ColQuantity, ColPreDiscountRevenue, ColDiscounts,
		ColActualRevenue, ColCost,
	}
	record := []string{
		"R-1", "3/14/2025 2:07:45 PM", "Cactus - RD12", "haus flower 3.5g",
		"Pre-Roll", "HAUS", "2", "$1,234.50", "($10.00)", "$1,224.50", "$400.00",
	}
	row, err := n.Row(header, record)
	require.NoError(t, err)

	assert.Equal(t, "R-1", row.ReceiptID)
	assert.Equal(t, time.Date(2025, time.March, 14, 14, 7, 45, 0, time.UTC), row.CompletedAt)
	assert.Equal(t, 2025, row.Year)
	assert.Equal(t, 3, row.Month)
	assert.Equal(t, "Cactus", row.Store)
	assert.Equal(t, "HAUS FLOWER 3.5G", row.Product)
	assert.Equal(t, "PRE ROLL", row.Category)
	assert.Equal(t, int64(2), row.Quantity)
	assert.True(t, row.PreDiscountRevenue.Equal(decimal.RequireFromString("1234.50")))
	assert.True(t, row.Discounts.Equal(decimal.RequireFromString("-10.00")))
}

func TestRowIsPure(t *testing.T) {
	n := defaultNormalizer(t)
	header := []string{ColReceiptID, ColCompletedAt, ColProduct}
	record := []string{"R-2", "1/5/2024 9:00:00 AM", "Gummy Pack"}

	first, err := n.Row(header, record)
	require.NoError(t, err)
	second, err := n.Row(header, record)
	require.NoError(t, err)
	assert.Equal(t, first.IdentityKey(), second.IdentityKey())
	assert.Equal(t, first, second)
}

func TestRowRejectsBadTimestamp(t *testing.T) {
	n := defaultNormalizer(t)
	_, err := n.Row([]string{ColCompletedAt}, []string{"not a date"})
	assert.Error(t, err)
}

func TestCategoryNormalization(t *testing.T) {
	n := defaultNormalizer(t)
	cases := []struct {
		raw      string
		want     string
		unmapped bool
	}{
		{"Pre-Roll", "PRE ROLL", false},
		{"VAPE", "CARTRIDGE", false},
		{"gummies", "EDIBLE", false},
		{"PRE ROLL", "PRE ROLL", false}, // already canonical
		{"", "UNKNOWN", false},
		{"MYSTERY SKU", "MYSTERY SKU", true},
	}
	for _, c := range cases {
		got, unmapped := n.normalizeCategory(c.raw)
		assert.Equal(t, c.want, got, "raw=%q", c.raw)
		assert.Equal(t, c.unmapped, unmapped, "raw=%q", c.raw)
	}
}

func TestBrandAliasAndAuditFlag(t *testing.T) {
	n, err := New(Config{
		BrandAliases: map[string]string{"H & G": "H&G"},
	})
	require.NoError(t, err)

	// Alias lookup is case-insensitive.
	brand, unmapped := n.normalizeBrand("h & g")
	assert.Equal(t, "H&G", brand)
	assert.False(t, unmapped)

	// With an alias table present, unknown brands are flagged.
	brand, unmapped = n.normalizeBrand("MYSTERY FARMS")
	assert.Equal(t, "MYSTERY FARMS", brand)
	assert.True(t, unmapped)

	// Without a table, nothing is flagged.
	bare, err := New(Config{})
	require.NoError(t, err)
	_, unmapped = bare.normalizeBrand("MYSTERY FARMS")
	assert.False(t, unmapped)
}

func TestParseCurrencyEdgeCases(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"$1,234.50", "1234.50"},
		{"(5.25)", "-5.25"},
		{"", "0"},
		{"garbage", "0"},
		{"12%", "12"},
	}
	for _, c := range cases {
		assert.True(t, parseCurrency(c.raw).Equal(decimal.RequireFromString(c.want)), "raw=%q", c.raw)
	}
}

func TestStoreSuffixStripping(t *testing.T) {
	n := defaultNormalizer(t)
	assert.Equal(t, "Cactus", n.cleanStore("Cactus - RD3"))
	assert.Equal(t, "Cactus Road", n.cleanStore("Cactus Road"))
}
