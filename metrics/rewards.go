package metrics

import (
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/johnryanerminio/thrive-analytics/aggregator"
	"github.com/johnryanerminio/thrive-analytics/ledger"
)

// rewardNameRe pulls the reward description out of a free-text deals field,
// e.g. "REWARD - 500 Points - $25 Off".
var rewardNameRe = regexp.MustCompile(`(?i)(REWARD\s*-\s*\d+\s*Points?\s*-\s*[^,]+)`)

// ExtractRewardName returns the reward description from a deals string, or
// "" when the row is not a reward redemption.
func ExtractRewardName(deals string) string {
	if m := rewardNameRe.FindStringSubmatch(deals); m != nil {
		return strings.TrimSpace(m[1])
	}
	if strings.Contains(strings.ToUpper(deals), "REWARD") {
		return strings.TrimSpace(deals)
	}
	return ""
}

// RewardLine summarizes one reward across its redemptions.
type RewardLine struct {
	Name        string
	Redemptions int64
	Units       int64
	RetailValue decimal.Decimal
	Cost        decimal.Decimal
	Collected   decimal.Decimal
	NetCost     decimal.Decimal
	PctOfNet    decimal.NullDecimal
}

// MarkoutLine summarizes one employee's markout usage.
type MarkoutLine struct {
	Employee     string
	PrimaryStore string
	Products     string
	Redemptions  int64
	Units        int64
	Cost         decimal.Decimal
	Rank         int
}

// RewardsReport is the loyalty-program cost report: what redeemed and
// marked-out inventory cost, net of any cash collected on those lines.
type RewardsReport struct {
	DateRange string

	RewardsNetCost  decimal.Decimal
	MarkoutsNetCost decimal.Decimal
	TotalNetCost    decimal.Decimal

	// Projections scale the observed net cost by projection days over
	// sample days.
	MonthlyProjection decimal.Decimal
	AnnualProjection  decimal.Decimal

	RewardRedemptions      int64
	UniqueRewardCustomers  int64
	MarkoutTransactions    int64
	EmployeesUsingMarkouts int64

	AllRewards         []RewardLine
	RewardsByStore     map[string][]RewardLine
	MarkoutsByEmployee []MarkoutLine
}

type rewardAccum struct {
	redemptions int64
	units       int64
	retail      decimal.Decimal
	cost        decimal.Decimal
	collected   decimal.Decimal
}

// ComputeRewardsReport builds the rewards/markout net-cost report for a
// period. Net cost = product cost of the redeemed items minus the cash
// actually collected on those lines.
func ComputeRewardsReport(engine *aggregator.Engine, period *ledger.PeriodFilter) RewardsReport {
	report := RewardsReport{
		DateRange:      engine.DateRange(period),
		RewardsByStore: make(map[string][]RewardLine),
	}

	rows := engine.Snapshot().Rows()

	byReward := make(map[string]*rewardAccum)
	byStoreReward := make(map[string]map[string]*rewardAccum)
	rewardCustomers := make(map[string]struct{})

	type markoutAccum struct {
		redemptions int64
		units       int64
		cost        decimal.Decimal
		stores      map[string]int
		products    []string
	}
	byEmployee := make(map[string]*markoutAccum)

	for i := range rows {
		row := &rows[i]
		if period != nil && !period.Contains(row.SaleDate) {
			continue
		}
		switch row.Class {
		case ledger.ClassReward:
			report.RewardsNetCost = report.RewardsNetCost.Add(row.Cost).Sub(row.ActualRevenue)
			report.RewardRedemptions++
			if row.CustomerID != "" {
				rewardCustomers[row.CustomerID] = struct{}{}
			}

			name := ExtractRewardName(row.DealsUsed)
			if name == "" {
				name = "UNKNOWN REWARD"
			}
			accumReward(byReward, name, row)
			if byStoreReward[row.Store] == nil {
				byStoreReward[row.Store] = make(map[string]*rewardAccum)
			}
			accumReward(byStoreReward[row.Store], name, row)

		case ledger.ClassMarkout:
			report.MarkoutsNetCost = report.MarkoutsNetCost.Add(row.Cost).Sub(row.ActualRevenue)
			report.MarkoutTransactions++

			employee := row.CustomerName
			if employee == "" {
				employee = row.CustomerID
			}
			acc := byEmployee[employee]
			if acc == nil {
				acc = &markoutAccum{stores: make(map[string]int)}
				byEmployee[employee] = acc
			}
			acc.redemptions++
			acc.units += row.Quantity
			acc.cost = acc.cost.Add(row.Cost)
			acc.stores[row.Store]++
			if len(acc.products) < 3 && !containsString(acc.products, row.Product) {
				acc.products = append(acc.products, row.Product)
			}
		}
	}

	report.UniqueRewardCustomers = int64(len(rewardCustomers))
	report.EmployeesUsingMarkouts = int64(len(byEmployee))
	report.TotalNetCost = report.RewardsNetCost.Add(report.MarkoutsNetCost)

	days := engine.SampleDays(period)
	if days < 1 {
		days = 1
	}
	perDay := report.TotalNetCost.Div(decimal.NewFromInt(int64(days)))
	report.MonthlyProjection = perDay.Mul(decimal.NewFromInt(30))
	report.AnnualProjection = perDay.Mul(decimal.NewFromInt(365))

	report.AllRewards = rewardLines(byReward, report.RewardsNetCost)
	for store, rewards := range byStoreReward {
		report.RewardsByStore[store] = rewardLines(rewards, decimal.Zero)
	}

	for employee, acc := range byEmployee {
		line := MarkoutLine{
			Employee:    employee,
			Redemptions: acc.redemptions,
			Units:       acc.units,
			Cost:        acc.cost,
			Products:    strings.Join(acc.products, ", "),
		}
		best := -1
		for store, n := range acc.stores {
			if n > best || (n == best && store < line.PrimaryStore) {
				best = n
				line.PrimaryStore = store
			}
		}
		report.MarkoutsByEmployee = append(report.MarkoutsByEmployee, line)
	}
	sort.SliceStable(report.MarkoutsByEmployee, func(i, j int) bool {
		if !report.MarkoutsByEmployee[i].Cost.Equal(report.MarkoutsByEmployee[j].Cost) {
			return report.MarkoutsByEmployee[i].Cost.GreaterThan(report.MarkoutsByEmployee[j].Cost)
		}
		return report.MarkoutsByEmployee[i].Employee < report.MarkoutsByEmployee[j].Employee
	})
	for i := range report.MarkoutsByEmployee {
		report.MarkoutsByEmployee[i].Rank = i + 1
	}

	return report
}

func accumReward(m map[string]*rewardAccum, name string, row *ledger.Row) {
	acc := m[name]
	if acc == nil {
		acc = &rewardAccum{}
		m[name] = acc
	}
	acc.redemptions++
	acc.units += row.Quantity
	acc.retail = acc.retail.Add(row.PreDiscountRevenue)
	acc.cost = acc.cost.Add(row.Cost)
	acc.collected = acc.collected.Add(row.ActualRevenue)
}

func rewardLines(m map[string]*rewardAccum, totalNet decimal.Decimal) []RewardLine {
	lines := make([]RewardLine, 0, len(m))
	for name, acc := range m {
		line := RewardLine{
			Name:        name,
			Redemptions: acc.redemptions,
			Units:       acc.units,
			RetailValue: acc.retail,
			Cost:        acc.cost,
			Collected:   acc.collected,
			NetCost:     acc.cost.Sub(acc.collected),
		}
		if totalNet.IsPositive() {
			line.PctOfNet = decimal.NullDecimal{
				Decimal: line.NetCost.Div(totalNet).Mul(hundred),
				Valid:   true,
			}
		}
		lines = append(lines, line)
	}
	sort.SliceStable(lines, func(i, j int) bool {
		if !lines[i].NetCost.Equal(lines[j].NetCost) {
			return lines[i].NetCost.GreaterThan(lines[j].NetCost)
		}
		return lines[i].Name < lines[j].Name
	})
	return lines
}

func containsString(set []string, value string) bool {
	for _, s := range set {
		if s == value {
			return true
		}
	}
	return false
}
