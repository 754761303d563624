package portfolio

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/papertrade/internal/database"
	"github.com/aristath/papertrade/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// AccountStore defines the account operations the portfolio service needs.
// Defined here to avoid a dependency on the accounts package.
type AccountStore interface {
	GetByID(id int64) (*domain.Account, error)
	CashBalanceTx(tx *sql.Tx, accountID int64) (decimal.Decimal, error)
	SetCashBalanceTx(tx *sql.Tx, accountID int64, balance decimal.Decimal) error
}

// QuoteLookup defines the contract for fetching live quotes.
// A nil result means the symbol could not be resolved right now.
type QuoteLookup interface {
	Lookup(symbol string) *domain.Quote
}

// Service orchestrates buy/sell settlement, valuation and history.
//
// Settlement is the atomic combination of cash adjustment, holding
// adjustment and ledger append: all three commit together or not at all.
// Balance and share-count checks re-execute inside the settlement
// transaction, so concurrent settlements against the same account cannot
// interleave their read-modify-write sequences.
type Service struct {
	db           *sql.DB
	accounts     AccountStore
	holdings     *HoldingRepository
	transactions *TransactionRepository
	quotes       QuoteLookup
	log          zerolog.Logger
}

// NewService creates a new portfolio service
func NewService(
	db *sql.DB,
	accounts AccountStore,
	holdings *HoldingRepository,
	transactions *TransactionRepository,
	quotes QuoteLookup,
	log zerolog.Logger,
) *Service {
	return &Service{
		db:           db,
		accounts:     accounts,
		holdings:     holdings,
		transactions: transactions,
		quotes:       quotes,
		log:          log.With().Str("service", "portfolio").Logger(),
	}
}

// Buy purchases shares at the current quoted price.
// Fails with domain.ErrInvalidSymbol if the quote service cannot resolve
// the symbol, or domain.ErrInsufficientFunds if the total cost exceeds the
// account's cash balance. No state changes on failure.
func (s *Service) Buy(accountID int64, symbol string, shares int64) error {
	if err := validateTradeInput(symbol, shares); err != nil {
		return err
	}

	// Quote lookup stays outside the settlement transaction: network I/O
	// must not hold the write lock
	quote := s.quotes.Lookup(symbol)
	if quote == nil {
		return domain.ErrInvalidSymbol
	}

	totalCost := quote.Price.Mul(decimal.NewFromInt(shares))

	err := database.WithTransaction(s.db, func(tx *sql.Tx) error {
		balance, err := s.accounts.CashBalanceTx(tx, accountID)
		if err != nil {
			return err
		}

		if balance.LessThan(totalCost) {
			return domain.ErrInsufficientFunds
		}

		if err := s.accounts.SetCashBalanceTx(tx, accountID, balance.Sub(totalCost)); err != nil {
			return err
		}

		if err := s.holdings.AddSharesTx(tx, accountID, quote.Symbol, shares); err != nil {
			return err
		}

		return s.transactions.AppendTx(tx, domain.Transaction{
			AccountID:     accountID,
			OrderID:       uuid.NewString(),
			Type:          domain.TransactionBuy,
			Symbol:        quote.Symbol,
			ShareCount:    shares,
			PricePerShare: quote.Price,
			ExecutedAt:    time.Now(),
		})
	})
	if err != nil {
		if database.IsBusy(err) {
			return domain.ErrConflict
		}
		return err
	}

	s.log.Info().
		Int64("account_id", accountID).
		Str("symbol", quote.Symbol).
		Int64("shares", shares).
		Str("price", quote.Price.String()).
		Str("total_cost", totalCost.String()).
		Msg("Buy settled")

	return nil
}

// Sell sells shares at the current quoted price.
// Fails with domain.ErrNoSuchHolding if the account holds none of the
// symbol, domain.ErrInsufficientShares if it holds too few, or
// domain.ErrQuoteUnavailable if the live price is momentarily unfetchable.
// A held symbol is presumed previously valid, which is why an unresolvable
// quote here is not ErrInvalidSymbol. No state changes on failure.
func (s *Service) Sell(accountID int64, symbol string, shares int64) error {
	if err := validateTradeInput(symbol, shares); err != nil {
		return err
	}

	// Check holdings before touching the quote API so a sell of shares the
	// account does not own never issues a network request
	holding, err := s.holdings.GetByAccountAndSymbol(accountID, normalizeSymbol(symbol))
	if err != nil {
		return err
	}
	if holding == nil {
		return domain.ErrNoSuchHolding
	}
	if shares > holding.ShareCount {
		return domain.ErrInsufficientShares
	}

	quote := s.quotes.Lookup(symbol)
	if quote == nil {
		return domain.ErrQuoteUnavailable
	}

	totalProceeds := quote.Price.Mul(decimal.NewFromInt(shares))

	err = database.WithTransaction(s.db, func(tx *sql.Tx) error {
		// Re-checks inside the transaction: a concurrent sell may have
		// shrunk the holding since the pre-check above
		if err := s.holdings.RemoveSharesTx(tx, accountID, holding.Symbol, shares); err != nil {
			return err
		}

		balance, err := s.accounts.CashBalanceTx(tx, accountID)
		if err != nil {
			return err
		}

		if err := s.accounts.SetCashBalanceTx(tx, accountID, balance.Add(totalProceeds)); err != nil {
			return err
		}

		return s.transactions.AppendTx(tx, domain.Transaction{
			AccountID:     accountID,
			OrderID:       uuid.NewString(),
			Type:          domain.TransactionSell,
			Symbol:        holding.Symbol,
			ShareCount:    shares,
			PricePerShare: quote.Price,
			ExecutedAt:    time.Now(),
		})
	})
	if err != nil {
		if database.IsBusy(err) {
			return domain.ErrConflict
		}
		return err
	}

	s.log.Info().
		Int64("account_id", accountID).
		Str("symbol", holding.Symbol).
		Int64("shares", shares).
		Str("price", quote.Price.String()).
		Str("total_proceeds", totalProceeds.String()).
		Msg("Sell settled")

	return nil
}

// Valuation returns the account's holdings ordered by symbol, each joined
// with a fresh live quote. A symbol whose quote is currently unavailable
// contributes a zero price and total for this call only - a stale display,
// not an error.
func (s *Service) Valuation(accountID int64) ([]HoldingValuation, error) {
	holdings, err := s.holdings.GetAllForAccount(accountID)
	if err != nil {
		return nil, err
	}

	valuations := make([]HoldingValuation, 0, len(holdings))
	for _, h := range holdings {
		v := HoldingValuation{
			Symbol:     h.Symbol,
			ShareCount: h.ShareCount,
		}

		if quote := s.quotes.Lookup(h.Symbol); quote != nil {
			v.CurrentPrice = quote.Price
			v.TotalValue = quote.Price.Mul(decimal.NewFromInt(h.ShareCount))
		} else {
			s.log.Warn().
				Str("symbol", h.Symbol).
				Int64("account_id", accountID).
				Msg("Quote unavailable during valuation, displaying zero")
		}

		valuations = append(valuations, v)
	}

	return valuations, nil
}

// GetSummary returns the full portfolio view: cash balance, valued
// holdings, total stock value and net worth.
func (s *Service) GetSummary(accountID int64) (*Summary, error) {
	account, err := s.accounts.GetByID(accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrAccountNotFound
	}

	valuations, err := s.Valuation(accountID)
	if err != nil {
		return nil, err
	}

	stockValue := decimal.Zero
	for _, v := range valuations {
		stockValue = stockValue.Add(v.TotalValue)
	}

	return &Summary{
		Holdings:    valuations,
		CashBalance: account.CashBalance,
		StockValue:  stockValue,
		NetWorth:    account.CashBalance.Add(stockValue),
	}, nil
}

// History returns the account's transactions, newest first. Pure read.
func (s *Service) History(accountID int64) ([]domain.Transaction, error) {
	return s.transactions.GetHistory(accountID)
}

// normalizeSymbol matches the case normalization the quote client applies,
// so holdings are always stored and looked up under the resolved symbol
func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func validateTradeInput(symbol string, shares int64) error {
	if normalizeSymbol(symbol) == "" {
		return fmt.Errorf("symbol must not be empty")
	}
	if shares < 1 {
		return fmt.Errorf("share count must be at least 1")
	}
	return nil
}
