package metrics

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/johnryanerminio/thrive-analytics/aggregator"
	a "github.com/johnryanerminio/thrive-analytics/aggregator/aggfunctions"
	"github.com/johnryanerminio/thrive-analytics/aggregator/dataretainer"
	"github.com/johnryanerminio/thrive-analytics/ledger"
	"github.com/johnryanerminio/thrive-analytics/loader"
)

// Segment is a customer population a customer can belong to. Membership is
// a set: a customer can be both Veteran and VIP.
type Segment string

const (
	SegIndustry Segment = "Industry"
	SegEmployee Segment = "Employee"
	SegVeteran  Segment = "Veteran"
	SegSenior   Segment = "Senior"
	SegVIP      Segment = "VIP"
	SegMedical  Segment = "Medical"
	SegLocals   Segment = "Locals"
	SegLVAC     Segment = "LVAC"
	SegRegular  Segment = "Regular"
)

// SegmentKeyword maps a keyword in the POS customer-groups field to a
// segment. The table is ordered; every matching keyword contributes its
// segment to the customer's set.
type SegmentKeyword struct {
	Keyword string `json:"keyword" mapstructure:"keyword"`
	Segment string `json:"segment" mapstructure:"segment"`
}

func DefaultSegmentKeywords() []SegmentKeyword {
	return []SegmentKeyword{
		{"INDUSTRY", string(SegIndustry)},
		{"EMPLOYEE", string(SegEmployee)},
		{"VETERAN", string(SegVeteran)},
		{"MILITARY", string(SegVeteran)},
		{"SENIOR", string(SegSenior)},
		{"VIP", string(SegVIP)},
		{"MEDICAL", string(SegMedical)},
		{"MED", string(SegMedical)},
		{"LOCAL", string(SegLocals)},
		{"LVAC", string(SegLVAC)},
	}
}

// SegmentsFor returns every segment whose keyword appears in the customer's
// groups field. Customers matching nothing are Regular.
func SegmentsFor(groups string, keywords []SegmentKeyword) []Segment {
	upper := strings.ToUpper(groups)
	var segments []Segment
	seen := make(map[Segment]struct{})
	for _, kw := range keywords {
		if kw.Keyword != "" && strings.Contains(upper, kw.Keyword) {
			seg := Segment(kw.Segment)
			if _, dup := seen[seg]; !dup {
				seen[seg] = struct{}{}
				segments = append(segments, seg)
			}
		}
	}
	if len(segments) == 0 {
		return []Segment{SegRegular}
	}
	return segments
}

// CustomerMetrics is one customer's period behavior summary.
type CustomerMetrics struct {
	CustomerID     string
	Name           string
	Transactions   int64
	TotalSpent     decimal.Decimal
	TotalDiscounts decimal.Decimal
	TotalUnits     int64
	AvgTransaction decimal.NullDecimal
	DiscountRate   decimal.NullDecimal
	PrimaryStore   string
	Groups         string
	IsLoyal        bool
	Segments       []Segment
}

// HasSegment reports set membership.
func (c *CustomerMetrics) HasSegment(seg Segment) bool {
	for _, s := range c.Segments {
		if s == seg {
			return true
		}
	}
	return false
}

// vipTopN is how many top spenders per store gain the VIP segment.
const vipTopN = 50

// ComputeCustomerMetrics derives per-customer metrics from regular sales,
// joins the customer-attribute export and assigns segment sets. VIP is also
// granted behaviorally: the top spenders of each store, ranked
// independently per store.
func ComputeCustomerMetrics(
	engine *aggregator.Engine,
	attrs []loader.CustomerAttr,
	keywords []SegmentKeyword,
	period *ledger.PeriodFilter,
) ([]CustomerMetrics, error) {
	base := aggregator.Query{
		Period:  period,
		Classes: []ledger.TxnClass{ledger.ClassRegular},
	}

	perCustomer := base
	perCustomer.GroupBy = []string{aggregator.DimCustomer}
	perCustomer.Aggregations = []a.AggConfig{
		{Col: "receipt_id", Func: "count-distinct"},
		{Col: aggregator.ColActualRevenue, Func: "sum"},
		{Col: aggregator.ColDiscounts, Func: "sum"},
		{Col: aggregator.ColQuantity, Func: "sum"},
	}
	custResults, err := engine.Run(perCustomer)
	if err != nil {
		return nil, err
	}

	// Per-receipt totals feed the average transaction value: the mean of
	// receipt totals, not of line items.
	perReceipt := base
	perReceipt.GroupBy = []string{aggregator.DimCustomer, aggregator.DimReceipt}
	perReceipt.Aggregations = []a.AggConfig{{Col: aggregator.ColActualRevenue, Func: "sum"}}
	receiptResults, err := engine.Run(perReceipt)
	if err != nil {
		return nil, err
	}
	receiptSum := make(map[string]decimal.Decimal)
	receiptCount := make(map[string]int64)
	for _, r := range receiptResults {
		id := r.Key[0]
		receiptSum[id] = receiptSum[id].Add(r.Values[0].(decimal.Decimal))
		receiptCount[id]++
	}

	perStore := base
	perStore.GroupBy = []string{aggregator.DimCustomer, aggregator.DimStore}
	perStore.Aggregations = []a.AggConfig{{Func: "count"}}
	storeResults, err := engine.Run(perStore)
	if err != nil {
		return nil, err
	}
	primaryStore := make(map[string]string)
	primaryCount := make(map[string]int64)
	for _, r := range storeResults {
		id, store := r.Key[0], r.Key[1]
		n := r.Values[0].(int64)
		if n > primaryCount[id] {
			primaryCount[id] = n
			primaryStore[id] = store
		}
	}

	names := customerNames(engine, period)

	attrByID := make(map[string]loader.CustomerAttr, len(attrs))
	for _, attr := range attrs {
		attrByID[attr.CustomerID] = attr
	}

	customers := make([]CustomerMetrics, 0, len(custResults))
	for _, r := range custResults {
		id := r.Key[0]
		if id == "" {
			continue
		}
		c := CustomerMetrics{
			CustomerID:     id,
			Transactions:   r.Values[0].(int64),
			TotalSpent:     r.Values[1].(decimal.Decimal),
			TotalDiscounts: r.Values[2].(decimal.Decimal),
			TotalUnits:     r.Values[3].(decimal.Decimal).IntPart(),
			PrimaryStore:   primaryStore[id],
			Name:           names[id],
		}
		if n := receiptCount[id]; n > 0 {
			c.AvgTransaction = decimal.NullDecimal{
				Decimal: receiptSum[id].Div(decimal.NewFromInt(n)),
				Valid:   true,
			}
		}
		c.DiscountRate = safeRatio(c.TotalDiscounts, c.TotalSpent.Add(c.TotalDiscounts))
		if attr, ok := attrByID[id]; ok {
			c.Groups = attr.Groups
			c.IsLoyal = attr.IsLoyal
			if c.Name == "" {
				c.Name = attr.Name
			}
		}
		c.Segments = SegmentsFor(c.Groups, keywords)
		customers = append(customers, c)
	}

	grantStoreVIPs(customers)
	return customers, nil
}

// grantStoreVIPs adds VIP to the segment set of each store's top spenders.
func grantStoreVIPs(customers []CustomerMetrics) {
	byStore := make(map[string]*dataretainer.TopN[float64])
	for i := range customers {
		store := customers[i].PrimaryStore
		if store == "" {
			continue
		}
		top, ok := byStore[store]
		if !ok {
			top = dataretainer.NewTopN[float64](vipTopN, true)
			byStore[store] = top
		}
		top.Insert(dataretainer.Entry[float64]{
			Key:     customers[i].CustomerID,
			Value:   customers[i].TotalSpent.InexactFloat64(),
			Payload: i,
		})
	}
	for _, top := range byStore {
		for _, entry := range top.Values() {
			i := entry.Payload.(int)
			if !customers[i].HasSegment(SegVIP) {
				customers[i].Segments = append(customers[i].Segments, SegVIP)
			}
		}
	}
}

func customerNames(engine *aggregator.Engine, period *ledger.PeriodFilter) map[string]string {
	rows := engine.Snapshot().Rows()
	names := make(map[string]string)
	for i := range rows {
		row := &rows[i]
		if row.CustomerID == "" || row.CustomerName == "" {
			continue
		}
		if period != nil && !period.Contains(row.SaleDate) {
			continue
		}
		if _, ok := names[row.CustomerID]; !ok {
			names[row.CustomerID] = row.CustomerName
		}
	}
	return names
}

// SegmentStats is one segment's roll-up. Customers belonging to several
// segments count toward each of them.
type SegmentStats struct {
	Segment        Segment
	Customers      int64
	TotalRevenue   decimal.Decimal
	TotalDiscounts decimal.Decimal
	RevPerCustomer decimal.NullDecimal
	DiscountRate   decimal.NullDecimal
	PctOfCustomers decimal.NullDecimal
	PctOfRevenue   decimal.NullDecimal
}

// SegmentSummary rolls customer metrics up by segment, ordered by revenue
// descending.
func SegmentSummary(customers []CustomerMetrics, totalRevenue decimal.Decimal) []SegmentStats {
	bySegment := make(map[Segment]*SegmentStats)
	for i := range customers {
		for _, seg := range customers[i].Segments {
			stats, ok := bySegment[seg]
			if !ok {
				stats = &SegmentStats{Segment: seg}
				bySegment[seg] = stats
			}
			stats.Customers++
			stats.TotalRevenue = stats.TotalRevenue.Add(customers[i].TotalSpent)
			stats.TotalDiscounts = stats.TotalDiscounts.Add(customers[i].TotalDiscounts)
		}
	}

	totalCustomers := decimal.NewFromInt(int64(len(customers)))
	out := make([]SegmentStats, 0, len(bySegment))
	for _, stats := range bySegment {
		if stats.Customers > 0 {
			stats.RevPerCustomer = decimal.NullDecimal{
				Decimal: stats.TotalRevenue.Div(decimal.NewFromInt(stats.Customers)),
				Valid:   true,
			}
		}
		stats.DiscountRate = safeRatio(stats.TotalDiscounts, stats.TotalRevenue.Add(stats.TotalDiscounts))
		stats.PctOfCustomers = safeRatio(decimal.NewFromInt(stats.Customers), totalCustomers)
		stats.PctOfRevenue = safeRatio(stats.TotalRevenue, totalRevenue)
		out = append(out, *stats)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].TotalRevenue.Equal(out[j].TotalRevenue) {
			return out[i].TotalRevenue.GreaterThan(out[j].TotalRevenue)
		}
		return out[i].Segment < out[j].Segment
	})
	return out
}

// TopCustomers returns the n highest spenders, ranked.
func TopCustomers(customers []CustomerMetrics, n int) []CustomerMetrics {
	top := dataretainer.NewTopN[float64](n, true)
	for i := range customers {
		top.Insert(dataretainer.Entry[float64]{
			Key:     customers[i].CustomerID,
			Value:   customers[i].TotalSpent.InexactFloat64(),
			Payload: i,
		})
	}
	out := make([]CustomerMetrics, 0, n)
	for _, entry := range top.Values() {
		out = append(out, customers[entry.Payload.(int)])
	}
	return out
}
