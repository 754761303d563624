// Package domain provides core domain models and types.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the side of a recorded trade
type TransactionType string

const (
	// TransactionBuy records shares purchased
	TransactionBuy TransactionType = "BUY"
	// TransactionSell records shares sold
	TransactionSell TransactionType = "SELL"
)

// StartingCash is the cash balance every account is seeded with on registration.
var StartingCash = decimal.RequireFromString("10000.00")

// Account is the aggregate root: holdings and transactions are reached
// through it by foreign key, never by in-memory back-references.
type Account struct {
	CreatedAt    time.Time       `json:"created_at"`
	Username     string          `json:"username"`
	PasswordHash string          `json:"-"`
	CashBalance  decimal.Decimal `json:"cash_balance"`
	ID           int64           `json:"id"`
}

// Holding is an account's current share count in one symbol.
// Unique per (account, symbol); deleted when the count reaches zero.
type Holding struct {
	Symbol     string `json:"symbol"`
	ID         int64  `json:"id"`
	AccountID  int64  `json:"account_id"`
	ShareCount int64  `json:"share_count"`
}

// Transaction is one append-only ledger entry. Immutable once written.
type Transaction struct {
	ExecutedAt    time.Time       `json:"executed_at"`
	OrderID       string          `json:"order_id"`
	Type          TransactionType `json:"type"`
	Symbol        string          `json:"symbol"`
	PricePerShare decimal.Decimal `json:"price_per_share"`
	ID            int64           `json:"id"`
	AccountID     int64           `json:"account_id"`
	ShareCount    int64           `json:"share_count"`
}

// Quote is a symbol's company name and price as reported by the external
// pricing source at a point in time. Never persisted.
type Quote struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}
