package portfolio

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/papertrade/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// transactionsColumns is the list of columns for the transactions table
// Column order must match scanTransaction()
const transactionsColumns = `id, account_id, order_id, side, symbol, share_count, price_per_share, executed_at`

// TransactionRepository handles the append-only transaction ledger.
// Rows are immutable once written; there are no update or delete operations.
type TransactionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *sql.DB, log zerolog.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:  db,
		log: log.With().Str("repo", "transaction").Logger(),
	}
}

// AppendTx appends a ledger entry inside a settlement transaction
func (r *TransactionRepository) AppendTx(tx *sql.Tx, t domain.Transaction) error {
	if t.ShareCount < 1 {
		return fmt.Errorf("failed to append transaction: share count must be positive")
	}
	if !t.PricePerShare.IsPositive() {
		return fmt.Errorf("failed to append transaction: price must be positive")
	}

	query := `
		INSERT INTO transactions
		(account_id, order_id, side, symbol, share_count, price_per_share, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := tx.Exec(query,
		t.AccountID,
		t.OrderID,
		string(t.Type),
		t.Symbol,
		t.ShareCount,
		t.PricePerShare.String(),
		t.ExecutedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}

	return nil
}

// GetHistory retrieves an account's transactions, newest first
func (r *TransactionRepository) GetHistory(accountID int64) ([]domain.Transaction, error) {
	query := "SELECT " + transactionsColumns +
		" FROM transactions WHERE account_id = ? ORDER BY executed_at DESC, id DESC"

	rows, err := r.db.Query(query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

// Count returns the total number of ledger entries
func (r *TransactionRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM transactions").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// scanTransaction scans a transaction from rows
func scanTransaction(rows *sql.Rows) (domain.Transaction, error) {
	var (
		t          domain.Transaction
		side       string
		rawPrice   string
		executedAt int64
	)

	err := rows.Scan(&t.ID, &t.AccountID, &t.OrderID, &side, &t.Symbol,
		&t.ShareCount, &rawPrice, &executedAt)
	if err != nil {
		return domain.Transaction{}, err
	}

	t.Type = domain.TransactionType(side)
	t.PricePerShare, err = decimal.NewFromString(rawPrice)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("invalid price %q: %w", rawPrice, err)
	}
	t.ExecutedAt = time.Unix(executedAt, 0)

	return t, nil
}
