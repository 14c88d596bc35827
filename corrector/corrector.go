// Package corrector rewrites unreliable unit costs for an allow-listed set
// of in-house brands. The override is deliberately unconditional: the source
// system's cost field is known bad for these (brand, year) combinations, so
// whatever value is present gets replaced.
package corrector

import (
	"fmt"
	"strings"

	"github.com/op/go-logging"
	"github.com/shopspring/decimal"

	"github.com/johnryanerminio/thrive-analytics/ledger"
)

var log = logging.MustGetLogger("log")

// Rule replaces the unit cost for rows matching (brand, subtype, year).
// An empty subtype is the brand default; a subtype-specific rule takes
// precedence over it. Rules are time-boxed by year: a year with no rules
// gets no correction.
type Rule struct {
	Brand    string  `json:"brand" mapstructure:"brand"`
	Subtype  string  `json:"subtype" mapstructure:"subtype"`
	Year     int     `json:"year" mapstructure:"year"`
	UnitCost float64 `json:"unit-cost" mapstructure:"unit-cost"`
}

type Corrector struct {
	byKey map[string]decimal.Decimal
}

func ruleKey(brand, subtype string, year int) string {
	return fmt.Sprintf("%s|%s|%d", strings.ToUpper(brand), strings.ToUpper(subtype), year)
}

func New(rules []Rule) *Corrector {
	byKey := make(map[string]decimal.Decimal, len(rules))
	for _, rule := range rules {
		byKey[ruleKey(rule.Brand, rule.Subtype, rule.Year)] = decimal.NewFromFloat(rule.UnitCost)
	}
	return &Corrector{byKey: byKey}
}

// lookup resolves the replacement unit cost for a row, subtype rule first.
func (c *Corrector) lookup(row *ledger.Row) (decimal.Decimal, bool) {
	if cost, ok := c.byKey[ruleKey(row.Brand, row.Category, row.Year)]; ok {
		return cost, true
	}
	cost, ok := c.byKey[ruleKey(row.Brand, "", row.Year)]
	return cost, ok
}

// Apply overwrites unit costs in place and recomputes the derived cost and
// profit fields. Must run after deduplication (one correction per unique
// row) and before any margin computation. Returns the corrected row count.
func (c *Corrector) Apply(rows []ledger.Row, summary *ledger.RunSummary) int {
	corrected := 0
	for i := range rows {
		row := &rows[i]
		unitCost, ok := c.lookup(row)
		if !ok {
			continue
		}
		row.CostPerItem = unitCost
		row.Cost = unitCost.Mul(decimal.NewFromInt(row.Quantity))
		row.NetProfit = row.ActualRevenue.Sub(row.Cost)
		corrected++
	}
	if corrected > 0 {
		log.Infof("Cost corrections applied to %d rows", corrected)
	}
	summary.CostCorrected += corrected
	return corrected
}

// DefaultRules is the shipped override table for the in-house brands whose
// POS costs are unreliable for 2024 and 2025. 2026 onward has no rules, so
// costs pass through untouched.
func DefaultRules() []Rule {
	type brandCosts struct {
		brand    string
		standard float64
		preRoll  float64
	}
	brands := []brandCosts{
		{"HAUS", 6.62, 4.00},
		{"H&G", 6.62, 4.00},
		{"PISTOLA", 8.63, 4.00},
		{"GREEN & GOLD", 8.63, 4.00},
	}
	preRollSubtypes := []string{"PRE ROLL", "PRE ROLL PACK"}

	var rules []Rule
	for _, year := range []int{2024, 2025} {
		for _, b := range brands {
			rules = append(rules, Rule{Brand: b.brand, Year: year, UnitCost: b.standard})
			for _, subtype := range preRollSubtypes {
				rules = append(rules, Rule{Brand: b.brand, Subtype: subtype, Year: year, UnitCost: b.preRoll})
			}
		}
	}
	return rules
}
