package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TxnClass is the transaction classification. Every row carries exactly one,
// assigned once during classification.
type TxnClass string

const (
	ClassRegular TxnClass = "REGULAR"
	ClassReward  TxnClass = "REWARD"
	ClassMarkout TxnClass = "MARKOUT"
	ClassTester  TxnClass = "TESTER"
	ClassComp    TxnClass = "COMP"
)

// DealType classifies the discount mechanism of a discounted row.
type DealType string

const (
	DealNone             DealType = "NO DEAL"
	DealBOGO             DealType = "BOGO"
	DealBundle           DealType = "BUNDLE"
	DealPercentOff       DealType = "PERCENT OFF"
	DealLoyaltyRedeem    DealType = "LOYALTY REDEMPTION"
	DealEmployee         DealType = "EMPLOYEE"
	DealCustomerDiscount DealType = "CUSTOMER DISCOUNT"
	DealPriceDeal        DealType = "PRICE DEAL"
	DealOther            DealType = "OTHER"
)

// Row is one line item of the canonical ledger. Rows are immutable once the
// classifier has run; corrections require re-running the pipeline.
type Row struct {
	ReceiptID    string
	LineSeq      int
	OrderType    string
	SoldBy       string
	CompletedAt  time.Time
	SaleDate     time.Time
	Year         int
	Month        int
	CustomerID   string
	CustomerName string
	Store        string
	Brand        string
	Category     string
	Product      string

	Quantity           int64
	PreDiscountRevenue decimal.Decimal
	Discounts          decimal.Decimal
	ActualRevenue      decimal.Decimal
	Cost               decimal.Decimal
	CostPerItem        decimal.Decimal
	NetProfit          decimal.Decimal
	Taxes              decimal.Decimal

	DealsUsed       string
	InlineDiscounts string
	DealsUpper      string

	Class    TxnClass
	DealType DealType

	// Audit flags set during normalization / integrity checks. Flagged rows
	// stay in the ledger so downstream totals remain auditable.
	UnmappedCategory bool
	UnmappedBrand    bool
	NegativeNet      bool
}

// IdentityKey is the stable deduplication key. Receipt id + product +
// completion time identifies a line across overlapping exports; rows without
// a receipt id fall back to a composite of the row's distinguishing fields.
func (r *Row) IdentityKey() string {
	if r.ReceiptID != "" {
		return fmt.Sprintf("%s|%s|%d", r.ReceiptID, r.Product, r.CompletedAt.Unix())
	}
	return fmt.Sprintf("%s|%d|%s|%d|%s",
		r.Store, r.CompletedAt.Unix(), r.Product, r.Quantity, r.ActualRevenue.String())
}

// HasDiscount reports whether any discount applied to the line.
func (r *Row) HasDiscount() bool {
	return r.Discounts.IsPositive()
}

// DiscountPct is the discount as a percentage of pre-discount revenue.
// Returns zero when the line had no pre-discount revenue.
func (r *Row) DiscountPct() decimal.Decimal {
	if r.PreDiscountRevenue.IsZero() {
		return decimal.Zero
	}
	return r.Discounts.Div(r.PreDiscountRevenue).Mul(decimal.NewFromInt(100))
}

// YearMonth formats the row's period bucket as YYYY-MM.
func (r *Row) YearMonth() string {
	return fmt.Sprintf("%04d-%02d", r.Year, r.Month)
}
