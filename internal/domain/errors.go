package domain

import "errors"

// Closed set of domain errors. Services recover every failure mode into one
// of these so callers can match on kind with errors.Is instead of
// string-matching messages. The messages are the user-visible text.
var (
	// ErrDuplicateUsername - registration with a username that already exists
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrInvalidSymbol - buy-time: the quote service cannot resolve the symbol at all
	ErrInvalidSymbol = errors.New("invalid stock symbol")

	// ErrInsufficientFunds - buy cost exceeds the account's cash balance
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNoSuchHolding - sell of a symbol the account holds no shares of
	ErrNoSuchHolding = errors.New("you do not own shares of this stock")

	// ErrInsufficientShares - sell of more shares than currently held
	ErrInsufficientShares = errors.New("you do not have enough shares to sell")

	// ErrQuoteUnavailable - sell-time: the symbol was previously valid but a
	// live price is momentarily unfetchable
	ErrQuoteUnavailable = errors.New("could not retrieve current price")

	// ErrConflict - a concurrent settlement against the same account won the
	// write lock; the caller may retry
	ErrConflict = errors.New("conflicting concurrent update, please retry")

	// ErrAccountNotFound - read paths given an unknown account
	ErrAccountNotFound = errors.New("account not found")
)
