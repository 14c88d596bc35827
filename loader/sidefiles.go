package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// BudtenderStat is one row of the staff performance export.
type BudtenderStat struct {
	Name               string
	Store              string
	AvgCartValue       decimal.Decimal
	TotalUnitsSold     int64
	AvgUnitsPerCart    float64
	NumTransactions    int64
	TotalSales         decimal.Decimal
	PctSalesDiscounted float64
	LoyaltyEnrollments int64
}

// CustomerAttr is one row of the customer attributes export.
type CustomerAttr struct {
	CustomerID    string
	Name          string
	Groups        string
	IsLoyal       bool
	LoyaltyPoints int64
}

func readCSV(path string) ([]string, [][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}
	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		records = append(records, record)
	}
	return header, records, nil
}

func columnIndex(header []string, name string) int {
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), name) {
			return i
		}
	}
	return -1
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseMoney(raw string) decimal.Decimal {
	cleaned := strings.NewReplacer("$", "", ",", "", "%", "").Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return value
}

func parseIntField(raw string) int64 {
	value, err := strconv.ParseFloat(strings.NewReplacer(",", "", "%", "").Replace(strings.TrimSpace(raw)), 64)
	if err != nil {
		return 0
	}
	return int64(value)
}

func parseFloatField(raw string) float64 {
	value, err := strconv.ParseFloat(strings.NewReplacer(",", "", "%", "", "$", "").Replace(strings.TrimSpace(raw)), 64)
	if err != nil {
		return 0
	}
	return value
}

// LoadBudtenderStats reads a staff performance export.
func LoadBudtenderStats(path string) ([]BudtenderStat, error) {
	header, records, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	name := columnIndex(header, "Name")
	store := columnIndex(header, "Store")
	cart := columnIndex(header, "Average Cart Value (pre-tax)")
	units := columnIndex(header, "Total Units Sold")
	unitsPerCart := columnIndex(header, "Average Units Per Cart")
	carts := columnIndex(header, "Number of Carts")
	sales := columnIndex(header, "Sales (pre-tax)")
	discounted := columnIndex(header, "% of Sales Discounted")
	loyalty := columnIndex(header, "Customers Enrolled In Loyalty")

	stats := make([]BudtenderStat, 0, len(records))
	for _, record := range records {
		stats = append(stats, BudtenderStat{
			Name:               field(record, name),
			Store:              field(record, store),
			AvgCartValue:       parseMoney(field(record, cart)),
			TotalUnitsSold:     parseIntField(field(record, units)),
			AvgUnitsPerCart:    parseFloatField(field(record, unitsPerCart)),
			NumTransactions:    parseIntField(field(record, carts)),
			TotalSales:         parseMoney(field(record, sales)),
			PctSalesDiscounted: parseFloatField(field(record, discounted)),
			LoyaltyEnrollments: parseIntField(field(record, loyalty)),
		})
	}
	return stats, nil
}

// LoadCustomerAttributes reads a customer attributes export.
func LoadCustomerAttributes(path string) ([]CustomerAttr, error) {
	header, records, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	id := columnIndex(header, "ID")
	name := columnIndex(header, "Name")
	groups := columnIndex(header, "Groups")
	loyal := columnIndex(header, "Loyal")
	points := columnIndex(header, "Loyalty Points")

	attrs := make([]CustomerAttr, 0, len(records))
	for _, record := range records {
		attrs = append(attrs, CustomerAttr{
			CustomerID:    field(record, id),
			Name:          field(record, name),
			Groups:        field(record, groups),
			IsLoyal:       strings.EqualFold(field(record, loyal), "yes"),
			LoyaltyPoints: parseIntField(field(record, points)),
		})
	}
	return attrs, nil
}
