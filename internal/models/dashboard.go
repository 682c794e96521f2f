package models

import "github.com/shopspring/decimal"

// RevenueTotals sums the fee breakdown of a business's successful
// transactions.
type RevenueTotals struct {
	Gross        decimal.Decimal `json:"total"`
	PlatformFees decimal.Decimal `json:"platformFees"`
	GatewayFees  decimal.Decimal `json:"gatewayFees"`
	Net          decimal.Decimal `json:"net"`
	Successful   int64           `json:"-"`
}
