package portfolio

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/aristath/papertrade/internal/domain"
	"github.com/rs/zerolog"
)

// holdingsColumns is the list of columns for the holdings table
// Column order must match scanHolding()
const holdingsColumns = `id, account_id, symbol, share_count`

// HoldingRepository handles holding database operations
type HoldingRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHoldingRepository creates a new holding repository
func NewHoldingRepository(db *sql.DB, log zerolog.Logger) *HoldingRepository {
	return &HoldingRepository{
		db:  db,
		log: log.With().Str("repo", "holding").Logger(),
	}
}

// GetByAccountAndSymbol retrieves one holding.
// Returns (nil, nil) if the account holds no shares of the symbol.
func (r *HoldingRepository) GetByAccountAndSymbol(accountID int64, symbol string) (*domain.Holding, error) {
	query := "SELECT " + holdingsColumns + " FROM holdings WHERE account_id = ? AND symbol = ?"

	holding, err := scanHolding(r.db.QueryRow(query, accountID, symbol))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}

	return holding, nil
}

// GetAllForAccount retrieves an account's holdings ordered by symbol
func (r *HoldingRepository) GetAllForAccount(accountID int64) ([]domain.Holding, error) {
	query := "SELECT " + holdingsColumns + " FROM holdings WHERE account_id = ? ORDER BY symbol"

	rows, err := r.db.Query(query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var holdings []domain.Holding
	for rows.Next() {
		var h domain.Holding
		if err := rows.Scan(&h.ID, &h.AccountID, &h.Symbol, &h.ShareCount); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return holdings, nil
}

// AddSharesTx adds shares to a holding inside a settlement transaction,
// creating the row if the account has no position in the symbol yet.
func (r *HoldingRepository) AddSharesTx(tx *sql.Tx, accountID int64, symbol string, shares int64) error {
	query := `
		INSERT INTO holdings (account_id, symbol, share_count)
		VALUES (?, ?, ?)
		ON CONFLICT(account_id, symbol)
		DO UPDATE SET share_count = share_count + excluded.share_count
	`

	if _, err := tx.Exec(query, accountID, symbol, shares); err != nil {
		return fmt.Errorf("failed to add shares: %w", err)
	}

	return nil
}

// RemoveSharesTx removes shares from a holding inside a settlement
// transaction, deleting the row when the count reaches exactly zero.
// The current count is re-read inside the transaction, so a concurrent
// sell cannot push the holding negative.
func (r *HoldingRepository) RemoveSharesTx(tx *sql.Tx, accountID int64, symbol string, shares int64) error {
	var current int64
	err := tx.QueryRow(
		"SELECT share_count FROM holdings WHERE account_id = ? AND symbol = ?",
		accountID, symbol,
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNoSuchHolding
	}
	if err != nil {
		return fmt.Errorf("failed to read holding: %w", err)
	}

	if shares > current {
		return domain.ErrInsufficientShares
	}

	if shares == current {
		if _, err := tx.Exec(
			"DELETE FROM holdings WHERE account_id = ? AND symbol = ?",
			accountID, symbol,
		); err != nil {
			return fmt.Errorf("failed to delete holding: %w", err)
		}
		return nil
	}

	if _, err := tx.Exec(
		"UPDATE holdings SET share_count = share_count - ? WHERE account_id = ? AND symbol = ?",
		shares, accountID, symbol,
	); err != nil {
		return fmt.Errorf("failed to decrement holding: %w", err)
	}

	return nil
}

// scanHolding scans a holding from a row
func scanHolding(row *sql.Row) (*domain.Holding, error) {
	var h domain.Holding
	if err := row.Scan(&h.ID, &h.AccountID, &h.Symbol, &h.ShareCount); err != nil {
		return nil, err
	}
	return &h, nil
}
