// Package classifier assigns every ledger row exactly one transaction class
// and, for discounted rows, a deal type. Both run as small interpreters over
// ordered rule tables: POS discount codes are inconsistent free text, so a
// pure lookup is insufficient and rules fall through to graduated defaults.
package classifier

import (
	"strings"

	"github.com/johnryanerminio/thrive-analytics/ledger"
)

// TxnRule is one ordered (predicate, class) rule. The first matching rule
// wins. Exactly one predicate mechanism is used per rule:
//   - Contains: the chosen field contains any of the markers;
//   - ZeroCash: the discount covers the full pre-discount price and no cash
//     was collected;
//   - MaxRevenue (with empty Contains): actual revenue is at or below the
//     threshold, unless the product matches ExcludeProduct.
type TxnRule struct {
	Class          string   `json:"class" mapstructure:"class"`
	Field          string   `json:"field" mapstructure:"field"` // deals | product | any
	Contains       []string `json:"contains" mapstructure:"contains"`
	ZeroCash       bool     `json:"zero-cash" mapstructure:"zero-cash"`
	MaxRevenue     float64  `json:"max-revenue" mapstructure:"max-revenue"`
	ExcludeProduct []string `json:"exclude-product" mapstructure:"exclude-product"`
}

// DealRule maps discount-code markers to a deal type, most specific first.
type DealRule struct {
	Type     string   `json:"type" mapstructure:"type"`
	Contains []string `json:"contains" mapstructure:"contains"`
}

// DealBand is the percentage fallback for discounted rows no code rule
// matched: discount percentage at or above MinPct maps to Type.
type DealBand struct {
	MinPct float64 `json:"min-pct" mapstructure:"min-pct"`
	Type   string  `json:"type" mapstructure:"type"`
}

type Classifier struct {
	txnRules  []TxnRule
	dealRules []DealRule
	dealBands []DealBand
}

func New(txnRules []TxnRule, dealRules []DealRule, dealBands []DealBand) *Classifier {
	return &Classifier{txnRules: txnRules, dealRules: dealRules, dealBands: dealBands}
}

func (c *Classifier) matches(rule *TxnRule, row *ledger.Row) bool {
	if rule.ZeroCash {
		return row.PreDiscountRevenue.IsPositive() &&
			!row.Discounts.LessThan(row.PreDiscountRevenue) &&
			row.ActualRevenue.IsZero()
	}
	if len(rule.Contains) > 0 {
		var haystack string
		switch rule.Field {
		case "product":
			haystack = row.Product
		case "any":
			haystack = row.DealsUpper + " " + row.Product
		default:
			haystack = row.DealsUpper
		}
		return containsAny(haystack, rule.Contains)
	}
	if rule.MaxRevenue > 0 {
		if containsAny(row.Product, rule.ExcludeProduct) {
			return false
		}
		return row.ActualRevenue.InexactFloat64() <= rule.MaxRevenue
	}
	return false
}

// Classify resolves the transaction class for one row.
func (c *Classifier) Classify(row *ledger.Row) ledger.TxnClass {
	for i := range c.txnRules {
		if c.matches(&c.txnRules[i], row) {
			return ledger.TxnClass(c.txnRules[i].Class)
		}
	}
	return ledger.ClassRegular
}

// ClassifyDeal resolves the deal type for one row. Rows without a discount
// are NO DEAL; discounted rows try the code rules in order, then the
// percentage bands, then OTHER.
func (c *Classifier) ClassifyDeal(row *ledger.Row) ledger.DealType {
	if !row.HasDiscount() {
		return ledger.DealNone
	}
	combined := row.DealsUpper + " " + strings.ToUpper(row.InlineDiscounts)
	for i := range c.dealRules {
		if containsAny(combined, c.dealRules[i].Contains) {
			return ledger.DealType(c.dealRules[i].Type)
		}
	}
	pct := row.DiscountPct().InexactFloat64()
	for i := range c.dealBands {
		if pct >= c.dealBands[i].MinPct {
			return ledger.DealType(c.dealBands[i].Type)
		}
	}
	return ledger.DealOther
}

// Apply classifies every row in place. Classifications are assigned once;
// rows are immutable afterwards.
func (c *Classifier) Apply(rows []ledger.Row, summary *ledger.RunSummary) {
	for i := range rows {
		rows[i].Class = c.Classify(&rows[i])
		rows[i].DealType = c.ClassifyDeal(&rows[i])
		summary.ClassCounts[rows[i].Class]++
	}
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if needle != "" && strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

// DefaultTxnRules encodes the precedence MARKOUT > REWARD > TESTER > COMP,
// falling through to REGULAR.
func DefaultTxnRules() []TxnRule {
	return []TxnRule{
		{Class: string(ledger.ClassMarkout), Field: "deals", Contains: []string{"MARKOUT", "MARK OUT", "MARK-OUT"}},
		{Class: string(ledger.ClassReward), Field: "deals", Contains: []string{"REWARD", "POINT", "REDEMPTION"}},
		{Class: string(ledger.ClassReward), ZeroCash: true},
		{Class: string(ledger.ClassTester), Field: "any", Contains: []string{"TESTER"}},
		{Class: string(ledger.ClassComp), MaxRevenue: 1.00, ExcludeProduct: []string{"EXIT BAG"}},
	}
}

// DefaultDealRules orders code matches most specific first.
func DefaultDealRules() []DealRule {
	return []DealRule{
		{Type: string(ledger.DealBOGO), Contains: []string{"B1G", "B2G", "BOGO"}},
		{Type: string(ledger.DealBundle), Contains: []string{"2 FOR", "3 FOR", "4 FOR", "5 FOR", "2/$", "3/$", "4/$", "5/$"}},
		{Type: string(ledger.DealLoyaltyRedeem), Contains: []string{"REWARD", "POINT", "REDEMPTION"}},
		{Type: string(ledger.DealEmployee), Contains: []string{"EMPLOYEE", "STAFF"}},
		{Type: string(ledger.DealCustomerDiscount), Contains: []string{"SENIOR", "VETERAN", "MILITARY", "MEDICAL", "INDUSTRY", "VIP"}},
		{Type: string(ledger.DealPercentOff), Contains: []string{"%", "PERCENT"}},
		{Type: string(ledger.DealPriceDeal), Contains: []string{"FOR $", "FOR$"}},
	}
}

// DefaultDealBands treats an effectively-full discount with no recognizable
// code as a loyalty redemption, and any other meaningful discount as a plain
// percent-off. Sub-1% rounding noise falls through to OTHER.
func DefaultDealBands() []DealBand {
	return []DealBand{
		{MinPct: 99, Type: string(ledger.DealLoyaltyRedeem)},
		{MinPct: 1, Type: string(ledger.DealPercentOff)},
	}
}
