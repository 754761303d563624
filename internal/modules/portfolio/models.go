// Package portfolio provides holdings, the transaction ledger, and buy/sell settlement.
package portfolio

import "github.com/shopspring/decimal"

// HoldingValuation is one holding joined with its live price at read time.
// CurrentPrice and TotalValue are transient display fields, never persisted;
// both are zero when the live quote is momentarily unavailable.
type HoldingValuation struct {
	Symbol       string          `json:"symbol"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	TotalValue   decimal.Decimal `json:"total_value"`
	ShareCount   int64           `json:"share_count"`
}

// Summary is the full portfolio view: cash, valued holdings, and totals
type Summary struct {
	Holdings    []HoldingValuation `json:"holdings"`
	CashBalance decimal.Decimal    `json:"cash_balance"`
	StockValue  decimal.Decimal    `json:"stock_value"`
	NetWorth    decimal.Decimal    `json:"net_worth"`
}
