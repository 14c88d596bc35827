package aggregator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/johnryanerminio/thrive-analytics/ledger"
)

// Grouping dimensions.
const (
	DimStore      = "store"
	DimBrand      = "brand"
	DimCategory   = "category"
	DimClass      = "class"
	DimDealType   = "deal_type"
	DimYear       = "year"
	DimMonth      = "month"
	DimYearMonth  = "year_month"
	DimSaleDate   = "sale_date"
	DimBudtender  = "budtender"
	DimCustomer   = "customer"
	DimReceipt    = "receipt"
	DimProduct    = "product"
	DimDiscounted = "discounted"
)

// Reducible columns.
const (
	ColQuantity           = "quantity"
	ColPreDiscountRevenue = "pre_discount_revenue"
	ColDiscounts          = "discounts"
	ColActualRevenue      = "actual_revenue"
	ColCost               = "cost"
	ColCostPerItem        = "cost_per_item"
	ColNetProfit          = "net_profit"
	ColTaxes              = "taxes"
	// margin is the derived gross margin amount: actual revenue - cost.
	ColMargin = "margin"
)

// dimensionValue formats a row's value for one grouping dimension. Numeric
// dimensions are zero-padded so the engine's lexicographic key ordering is
// also their natural order.
func dimensionValue(row *ledger.Row, dim string) (string, error) {
	switch dim {
	case DimStore:
		return row.Store, nil
	case DimBrand:
		return row.Brand, nil
	case DimCategory:
		return row.Category, nil
	case DimClass:
		return string(row.Class), nil
	case DimDealType:
		return string(row.DealType), nil
	case DimYear:
		return fmt.Sprintf("%04d", row.Year), nil
	case DimMonth:
		return fmt.Sprintf("%02d", row.Month), nil
	case DimYearMonth:
		return row.YearMonth(), nil
	case DimSaleDate:
		return row.SaleDate.Format("2006-01-02"), nil
	case DimBudtender:
		return row.SoldBy, nil
	case DimCustomer:
		return row.CustomerID, nil
	case DimReceipt:
		return row.ReceiptID, nil
	case DimProduct:
		return row.Product, nil
	case DimDiscounted:
		if row.HasDiscount() {
			return "DISCOUNTED", nil
		}
		return "FULL PRICE", nil
	}
	return "", fmt.Errorf("unknown dimension %q", dim)
}

// numericValue resolves a reducible column as a decimal.
func numericValue(row *ledger.Row, col string) (decimal.Decimal, bool) {
	switch col {
	case ColQuantity:
		return decimal.NewFromInt(row.Quantity), true
	case ColPreDiscountRevenue:
		return row.PreDiscountRevenue, true
	case ColDiscounts:
		return row.Discounts, true
	case ColActualRevenue:
		return row.ActualRevenue, true
	case ColCost:
		return row.Cost, true
	case ColCostPerItem:
		return row.CostPerItem, true
	case ColNetProfit:
		return row.NetProfit, true
	case ColTaxes:
		return row.Taxes, true
	case ColMargin:
		return row.ActualRevenue.Sub(row.Cost), true
	}
	return decimal.Zero, false
}

// stringValue resolves a column usable by count-distinct.
func stringValue(row *ledger.Row, col string) (string, bool) {
	switch col {
	case DimReceipt, "receipt_id":
		return row.ReceiptID, true
	case DimCustomer, "customer_id":
		return row.CustomerID, true
	case "customer_name":
		return row.CustomerName, true
	case DimProduct:
		return row.Product, true
	case DimBudtender, "sold_by":
		return row.SoldBy, true
	case DimStore:
		return row.Store, true
	case DimBrand:
		return row.Brand, true
	case DimSaleDate:
		return row.SaleDate.Format("2006-01-02"), true
	}
	return "", false
}
