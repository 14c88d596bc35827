package aggregator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	a "github.com/johnryanerminio/thrive-analytics/aggregator/aggfunctions"
	"github.com/johnryanerminio/thrive-analytics/ledger"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func saleRow(receipt, store, brand string, date time.Time, qty int64, preDiscount, discounts, revenue, cost string) ledger.Row {
	return ledger.Row{
		ReceiptID:          receipt,
		Store:              store,
		Brand:              brand,
		SaleDate:           date,
		CompletedAt:        date,
		Year:               date.Year(),
		Month:              int(date.Month()),
		Quantity:           qty,
		PreDiscountRevenue: dec(preDiscount),
		Discounts:          dec(discounts),
		ActualRevenue:      dec(revenue),
		Cost:               dec(cost),
		Class:              ledger.ClassRegular,
		DealType:           ledger.DealNone,
	}
}

func testEngine(workers int) *Engine {
	jan10 := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	jan20 := time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC)
	feb05 := time.Date(2025, time.February, 5, 0, 0, 0, 0, time.UTC)

	rows := []ledger.Row{
		saleRow("R-1", "Cactus", "HAUS", jan10, 2, "100.00", "50.00", "50.00", "20.00"),
		saleRow("R-2", "Cactus", "HAUS", jan20, 1, "1000.00", "100.00", "900.00", "300.00"),
		saleRow("R-2", "Cactus", "PISTOLA", jan20, 1, "40.00", "0.00", "40.00", "10.00"),
		saleRow("R-3", "Durango", "PISTOLA", feb05, 3, "90.00", "0.00", "90.00", "30.00"),
	}
	markout := saleRow("R-4", "Durango", "HAUS", feb05, 1, "30.00", "30.00", "0.00", "12.00")
	markout.Class = ledger.ClassMarkout
	rows = append(rows, markout)

	return NewEngine(NewSnapshot(rows, ledger.NewRunSummary("test")), workers)
}

func TestRunGroupsInKeyOrder(t *testing.T) {
	e := testEngine(2)
	results, err := e.Run(Query{
		Classes:      []ledger.TxnClass{ledger.ClassRegular},
		GroupBy:      []string{DimStore},
		Aggregations: []a.AggConfig{{Col: ColActualRevenue, Func: "sum"}},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, []string{"Cactus"}, results[0].Key)
	assert.Equal(t, []string{"Durango"}, results[1].Key)
	assert.True(t, results[0].Values[0].(decimal.Decimal).Equal(dec("990.00")))
	assert.True(t, results[1].Values[0].(decimal.Decimal).Equal(dec("90.00")))
}

func TestRunRatioOfSumsNotAverageOfRatios(t *testing.T) {
	e := testEngine(1)
	results, err := e.Run(Query{
		Classes: []ledger.TxnClass{ledger.ClassRegular},
		Stores:  []string{"Cactus"},
		Brands:  []string{"HAUS"},
		Aggregations: []a.AggConfig{
			{Func: "ratio", Col: ColDiscounts, Denom: ColPreDiscountRevenue},
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	// (50+100)/(100+1000) = 13.64%, not the 27.5% a per-row average gives.
	got := results[0].Values[0].(decimal.Decimal)
	assert.True(t, got.Round(2).Equal(dec("13.64")), "got %s", got)
}

func TestRunFiltersByPeriodAndClass(t *testing.T) {
	e := testEngine(2)
	period := &ledger.PeriodFilter{Type: ledger.PeriodMonth, Year: 2025, Month: time.February}
	results, err := e.Run(Query{
		Period:       period,
		Classes:      []ledger.TxnClass{ledger.ClassRegular},
		Aggregations: []a.AggConfig{{Col: ColQuantity, Func: "sum"}},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	// The February markout is excluded by class; only R-3 remains.
	assert.True(t, results[0].Values[0].(decimal.Decimal).Equal(dec("3")))
}

func TestRunCountDistinctReceipts(t *testing.T) {
	e := testEngine(2)
	results, err := e.Run(Query{
		Classes:      []ledger.TxnClass{ledger.ClassRegular},
		GroupBy:      []string{DimStore},
		Aggregations: []a.AggConfig{{Col: "receipt_id", Func: "count-distinct"}},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	// R-2 has two line items but counts once.
	assert.Equal(t, int64(2), results[0].Values[0])
	assert.Equal(t, int64(1), results[1].Values[0])
}

func TestRunDiscountedDimension(t *testing.T) {
	e := testEngine(2)
	results, err := e.Run(Query{
		Classes:      []ledger.TxnClass{ledger.ClassRegular},
		GroupBy:      []string{DimDiscounted},
		Aggregations: []a.AggConfig{{Func: "count"}},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, []string{"DISCOUNTED"}, results[0].Key)
	assert.Equal(t, int64(2), results[0].Values[0])
	assert.Equal(t, []string{"FULL PRICE"}, results[1].Key)
	assert.Equal(t, int64(2), results[1].Values[0])
}

func TestRunIsDeterministicAcrossWorkerCounts(t *testing.T) {
	q := Query{
		GroupBy: []string{DimStore, DimBrand},
		Aggregations: []a.AggConfig{
			{Col: ColActualRevenue, Func: "sum"},
			{Func: "count"},
		},
	}
	single, err := testEngine(1).Run(q)
	require.NoError(t, err)
	parallel, err := testEngine(8).Run(q)
	require.NoError(t, err)
	require.Equal(t, len(single), len(parallel))
	for i := range single {
		assert.Equal(t, single[i].Key, parallel[i].Key)
		assert.True(t, single[i].Values[0].(decimal.Decimal).Equal(parallel[i].Values[0].(decimal.Decimal)))
		assert.Equal(t, single[i].Values[1], parallel[i].Values[1])
	}
}

func TestRunRejectsBadQueries(t *testing.T) {
	e := testEngine(1)
	_, err := e.Run(Query{GroupBy: []string{"nope"}, Aggregations: []a.AggConfig{{Func: "count"}}})
	assert.Error(t, err)

	_, err = e.Run(Query{GroupBy: []string{DimStore}})
	assert.Error(t, err)

	_, err = e.Run(Query{Aggregations: []a.AggConfig{{Func: "median", Col: ColCost}}})
	assert.Error(t, err)
}

func TestRunWithComparison(t *testing.T) {
	e := testEngine(2)
	period := &ledger.PeriodFilter{Type: ledger.PeriodMonth, Year: 2025, Month: time.February}
	current, previous, err := e.RunWithComparison(Query{
		Period:       period,
		Classes:      []ledger.TxnClass{ledger.ClassRegular},
		Aggregations: []a.AggConfig{{Col: ColActualRevenue, Func: "sum"}},
	})
	require.NoError(t, err)
	require.Len(t, current, 1)
	require.Len(t, previous, 1)
	assert.True(t, current[0].Values[0].(decimal.Decimal).Equal(dec("90.00")))
	assert.True(t, previous[0].Values[0].(decimal.Decimal).Equal(dec("990.00")))
}

func TestPublishSwapsSnapshot(t *testing.T) {
	e := testEngine(1)
	before := e.Snapshot().Len()
	e.Publish(NewSnapshot(nil, ledger.NewRunSummary("empty")))
	assert.NotEqual(t, before, e.Snapshot().Len())
	assert.Equal(t, 0, e.Snapshot().Len())
}

func TestMetaAccessors(t *testing.T) {
	e := testEngine(2)
	assert.Equal(t, []string{"Cactus", "Durango"}, e.Stores())

	// HAUS leads on regular-sale revenue.
	assert.Equal(t, []string{"HAUS", "PISTOLA"}, e.Brands())

	periods := e.PeriodsAvailable()
	require.Len(t, periods, 2)
	assert.Equal(t, "January 2025", periods[0].Label)
	assert.Equal(t, "February 2025", periods[1].Label)

	jan := &ledger.PeriodFilter{Type: ledger.PeriodMonth, Year: 2025, Month: time.January}
	assert.Equal(t, "2025-01-10 to 2025-01-20", e.DateRange(jan))
	assert.Equal(t, 11, e.SampleDays(jan))

	empty := &ledger.PeriodFilter{Type: ledger.PeriodMonth, Year: 2030, Month: time.January}
	assert.Equal(t, "N/A", e.DateRange(empty))
	assert.Equal(t, 0, e.SampleDays(empty))
}
