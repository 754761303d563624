// Package accounts provides account persistence and registration.
package accounts

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/papertrade/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// accountsColumns is the list of columns for the accounts table
// Used to avoid SELECT * which can break when schema changes
// Column order must match scanAccount()
const accountsColumns = `id, username, password_hash, cash_balance, created_at`

// Repository handles account database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new account repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "account").Logger(),
	}
}

// Create inserts a new account row. Returns domain.ErrDuplicateUsername if
// the username is already taken; no write is performed in that case.
func (r *Repository) Create(username, passwordHash string, cashBalance decimal.Decimal) (*domain.Account, error) {
	now := time.Now()

	query := `
		INSERT INTO accounts (username, password_hash, cash_balance, created_at)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.Exec(query, username, passwordHash, cashBalance.String(), now.Unix())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, domain.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get account id: %w", err)
	}

	r.log.Info().Str("username", username).Int64("id", id).Msg("Account created")

	return &domain.Account{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		CashBalance:  cashBalance,
		CreatedAt:    time.Unix(now.Unix(), 0),
	}, nil
}

// GetByUsername retrieves an account by username.
// Returns (nil, nil) if no such account exists.
func (r *Repository) GetByUsername(username string) (*domain.Account, error) {
	query := "SELECT " + accountsColumns + " FROM accounts WHERE username = ?"

	account, err := r.scanAccount(r.db.QueryRow(query, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by username: %w", err)
	}

	return account, nil
}

// GetByID retrieves an account by id.
// Returns (nil, nil) if no such account exists.
func (r *Repository) GetByID(id int64) (*domain.Account, error) {
	query := "SELECT " + accountsColumns + " FROM accounts WHERE id = ?"

	account, err := r.scanAccount(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by id: %w", err)
	}

	return account, nil
}

// Count returns the number of registered accounts
func (r *Repository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM accounts").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return count, nil
}

// CashBalanceTx reads an account's cash balance inside a settlement
// transaction. The read must happen inside the transaction so that the
// balance check and the debit/credit form one serialized unit of work.
func (r *Repository) CashBalanceTx(tx *sql.Tx, accountID int64) (decimal.Decimal, error) {
	var raw string
	err := tx.QueryRow("SELECT cash_balance FROM accounts WHERE id = ?", accountID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, domain.ErrAccountNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read cash balance: %w", err)
	}

	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid cash balance %q for account %d: %w", raw, accountID, err)
	}

	return balance, nil
}

// SetCashBalanceTx writes an account's cash balance inside a settlement transaction
func (r *Repository) SetCashBalanceTx(tx *sql.Tx, accountID int64, balance decimal.Decimal) error {
	result, err := tx.Exec("UPDATE accounts SET cash_balance = ? WHERE id = ?", balance.String(), accountID)
	if err != nil {
		return fmt.Errorf("failed to update cash balance: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check cash balance update: %w", err)
	}
	if affected == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// scanAccount scans an account from a row
func (r *Repository) scanAccount(row *sql.Row) (*domain.Account, error) {
	var (
		account   domain.Account
		rawCash   string
		createdAt int64
	)

	err := row.Scan(&account.ID, &account.Username, &account.PasswordHash, &rawCash, &createdAt)
	if err != nil {
		return nil, err
	}

	account.CashBalance, err = decimal.NewFromString(rawCash)
	if err != nil {
		return nil, fmt.Errorf("invalid cash balance %q: %w", rawCash, err)
	}
	account.CreatedAt = time.Unix(createdAt, 0)

	return &account, nil
}
