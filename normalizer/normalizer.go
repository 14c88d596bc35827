// Package normalizer maps raw point-of-sale export rows onto the canonical
// ledger schema. Mapping is table-driven: adding a new export format means
// adding alias rows to the configuration, not code paths.
package normalizer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/johnryanerminio/thrive-analytics/ledger"
)

// Canonical column names produced by header mapping.
const (
	ColReceiptID          = "receipt_id"
	ColOrderType          = "order_type"
	ColSoldBy             = "sold_by"
	ColCompletedAt        = "completed_at"
	ColCustomerID         = "customer_id"
	ColCustomerName       = "customer_name"
	ColStore              = "store"
	ColProduct            = "product"
	ColCategory           = "category"
	ColBrand              = "brand"
	ColQuantity           = "quantity"
	ColPreDiscountRevenue = "pre_discount_revenue"
	ColDiscounts          = "discounts"
	ColTaxes              = "taxes"
	ColActualRevenue      = "actual_revenue"
	ColNetProfit          = "net_profit"
	ColCost               = "cost"
	ColCostPerItem        = "cost_per_item"
	ColDealsUsed          = "deals_used"
	ColInlineDiscounts    = "inline_discounts"
)

// Config is the declarative mapping table for one raw export schema.
type Config struct {
	// ColumnAliases maps raw header names to canonical column names.
	ColumnAliases map[string]string `json:"column-aliases" mapstructure:"column-aliases"`
	// CategoryAliases maps variant category labels to canonical ones.
	CategoryAliases map[string]string `json:"category-aliases" mapstructure:"category-aliases"`
	// BrandAliases maps variant brand spellings to canonical ones.
	BrandAliases map[string]string `json:"brand-aliases" mapstructure:"brand-aliases"`
	// TimestampLayout parses the completed-at column.
	TimestampLayout string `json:"timestamp-layout" mapstructure:"timestamp-layout"`
	// StoreSuffixPattern is stripped from store names (register suffixes).
	StoreSuffixPattern string `json:"store-suffix-pattern" mapstructure:"store-suffix-pattern"`
}

// DefaultTimestampLayout matches the POS export format "3/14/2025 2:07:45 PM".
const DefaultTimestampLayout = "1/2/2006 3:04:05 PM"

type Normalizer struct {
	cfg          Config
	storeSuffix  *regexp.Regexp
	canonicalCat map[string]struct{}
}

func New(cfg Config) (*Normalizer, error) {
	if cfg.TimestampLayout == "" {
		cfg.TimestampLayout = DefaultTimestampLayout
	}
	pattern := cfg.StoreSuffixPattern
	if pattern == "" {
		pattern = ` - RD\d+`
	}
	storeSuffix, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid store-suffix-pattern: %w", err)
	}

	canonicalCat := make(map[string]struct{})
	for _, canonical := range cfg.CategoryAliases {
		canonicalCat[canonical] = struct{}{}
	}

	return &Normalizer{
		cfg:          cfg,
		storeSuffix:  storeSuffix,
		canonicalCat: canonicalCat,
	}, nil
}

// MapHeader translates a raw header into canonical column names. Columns
// without an alias pass through unchanged; they are returned separately so
// the caller can flag them for audit.
func (n *Normalizer) MapHeader(raw []string) (header []string, unmapped []string) {
	header = make([]string, len(raw))
	for i, name := range raw {
		trimmed := strings.TrimSpace(name)
		if canonical, ok := n.cfg.ColumnAliases[trimmed]; ok {
			header[i] = canonical
			continue
		}
		header[i] = trimmed
		unmapped = append(unmapped, trimmed)
	}
	return header, unmapped
}

// Row converts one raw record into a canonical ledger row. It is pure: the
// same header and record always produce the same row, which keeps
// deduplication deterministic. Audit conditions are flagged on the row, not
// reported as errors.
func (n *Normalizer) Row(header []string, record []string) (ledger.Row, error) {
	if len(record) > len(header) {
		return ledger.Row{}, fmt.Errorf("record has %d fields, header has %d", len(record), len(header))
	}

	fields := make(map[string]string, len(header))
	for i, value := range record {
		fields[header[i]] = value
	}

	completedAt, err := time.Parse(n.cfg.TimestampLayout, strings.TrimSpace(fields[ColCompletedAt]))
	if err != nil {
		return ledger.Row{}, fmt.Errorf("bad completed-at %q: %w", fields[ColCompletedAt], err)
	}
	saleDate := completedAt.Truncate(24 * time.Hour)

	row := ledger.Row{
		ReceiptID:    strings.TrimSpace(fields[ColReceiptID]),
		OrderType:    strings.TrimSpace(fields[ColOrderType]),
		SoldBy:       strings.TrimSpace(fields[ColSoldBy]),
		CompletedAt:  completedAt,
		SaleDate:     saleDate,
		Year:         completedAt.Year(),
		Month:        int(completedAt.Month()),
		CustomerID:   strings.TrimSpace(fields[ColCustomerID]),
		CustomerName: strings.TrimSpace(fields[ColCustomerName]),
		Store:        n.cleanStore(fields[ColStore]),
		Product:      strings.ToUpper(strings.TrimSpace(fields[ColProduct])),
		DealsUsed:    strings.TrimSpace(fields[ColDealsUsed]),

		InlineDiscounts: strings.TrimSpace(fields[ColInlineDiscounts]),
	}
	row.DealsUpper = strings.ToUpper(row.DealsUsed)

	row.Brand, row.UnmappedBrand = n.normalizeBrand(fields[ColBrand])
	row.Category, row.UnmappedCategory = n.normalizeCategory(fields[ColCategory])

	row.Quantity = parseQuantity(fields[ColQuantity])
	row.PreDiscountRevenue = parseCurrency(fields[ColPreDiscountRevenue])
	row.Discounts = parseCurrency(fields[ColDiscounts])
	row.ActualRevenue = parseCurrency(fields[ColActualRevenue])
	row.Cost = parseCurrency(fields[ColCost])
	row.CostPerItem = parseCurrency(fields[ColCostPerItem])
	row.NetProfit = parseCurrency(fields[ColNetProfit])
	row.Taxes = parseCurrency(fields[ColTaxes])

	return row, nil
}

func (n *Normalizer) cleanStore(raw string) string {
	return strings.TrimSpace(n.storeSuffix.ReplaceAllString(raw, ""))
}

func (n *Normalizer) normalizeBrand(raw string) (string, bool) {
	brand := strings.TrimSpace(raw)
	if canonical, ok := n.cfg.BrandAliases[strings.ToUpper(brand)]; ok {
		return canonical, false
	}
	// No alias table entry: pass through unchanged, flag only when an alias
	// table exists at all so sparse configs don't flood the audit counters.
	return brand, len(n.cfg.BrandAliases) > 0 && brand != ""
}

func (n *Normalizer) normalizeCategory(raw string) (string, bool) {
	category := strings.ToUpper(strings.TrimSpace(raw))
	if category == "" {
		return "UNKNOWN", false
	}
	if canonical, ok := n.cfg.CategoryAliases[category]; ok {
		return canonical, false
	}
	if _, ok := n.canonicalCat[category]; ok {
		return category, false
	}
	return category, true
}

var currencyCleaner = strings.NewReplacer("$", "", ",", "", "%", "")

// parseCurrency parses a currency string like "$1,234.50" into a decimal.
// Blank or malformed values become zero; row-level numeric noise is not a
// parse failure in the source exports.
func parseCurrency(raw string) decimal.Decimal {
	cleaned := strings.TrimSpace(currencyCleaner.Replace(raw))
	if cleaned == "" {
		return decimal.Zero
	}
	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}
	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	if negative {
		return value.Neg()
	}
	return value
}

func parseQuantity(raw string) int64 {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return 0
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return int64(value)
}

// DefaultColumnAliases is the shipped mapping for the POS margin export.
func DefaultColumnAliases() map[string]string {
	return map[string]string{
		"Receipt ID":                        ColReceiptID,
		"Order Type":                        ColOrderType,
		"Sold By":                           ColSoldBy,
		"Completed At":                      ColCompletedAt,
		"Customer ID":                       ColCustomerID,
		"Customer Name":                     ColCustomerName,
		"Store":                             ColStore,
		"Product":                           ColProduct,
		"Variant Type":                      ColCategory,
		"Brand":                             ColBrand,
		"Quantity Sold":                     ColQuantity,
		"Pre-Discount, Pre-Tax Total":       ColPreDiscountRevenue,
		"Discounts":                         ColDiscounts,
		"Taxes":                             ColTaxes,
		"Post-Discount, Pre-Tax Total":      ColActualRevenue,
		"Net Profit":                        ColNetProfit,
		"Cost":                              ColCost,
		"Cost Per Item":                     ColCostPerItem,
		"Deals Used":                        ColDealsUsed,
		"Inline/Cart Discounts Used":        ColInlineDiscounts,
	}
}

// DefaultCategoryAliases is the shipped variant-label table.
func DefaultCategoryAliases() map[string]string {
	return map[string]string{
		"ACCESSORY":     "ACCESSORY",
		"PRE-ROLL":      "PRE ROLL",
		"PREROLL":       "PRE ROLL",
		"PRE-ROLLS":     "PRE ROLL",
		"PRE ROLLS":     "PRE ROLL",
		"PRE-ROLL PACK": "PRE ROLL PACK",
		"PREROLL PACK":  "PRE ROLL PACK",
		"VAPE":          "CARTRIDGE",
		"CART":          "CARTRIDGE",
		"CARTS":         "CARTRIDGE",
		"DISPOSABLE":    "DISPOSABLE VAPE",
		"DISPO":         "DISPOSABLE VAPE",
		"GUMMY":         "EDIBLE",
		"GUMMIES":       "EDIBLE",
		"EDIBLES":       "EDIBLE",
	}
}
