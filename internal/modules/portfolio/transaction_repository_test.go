package portfolio

import (
	"database/sql"
	"testing"
	"time"

	"github.com/aristath/papertrade/internal/domain"
	_ "modernc.org/sqlite"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendEntry(t *testing.T, db *sql.DB, repo *TransactionRepository, entry domain.Transaction) error {
	t.Helper()
	return inTx(t, db, func(tx *sql.Tx) error {
		return repo.AppendTx(tx, entry)
	})
}

func TestAppendTx_Validation(t *testing.T) {
	db := newPortfolioTestDB(t)
	repo := NewTransactionRepository(db, zerolog.Nop())

	base := domain.Transaction{
		AccountID:     1,
		OrderID:       "order-1",
		Type:          domain.TransactionBuy,
		Symbol:        "AAPL",
		ShareCount:    10,
		PricePerShare: decimal.RequireFromString("50.00"),
		ExecutedAt:    time.Now(),
	}

	require.NoError(t, appendEntry(t, db, repo, base))

	zeroShares := base
	zeroShares.OrderID = "order-2"
	zeroShares.ShareCount = 0
	assert.Error(t, appendEntry(t, db, repo, zeroShares))

	zeroPrice := base
	zeroPrice.OrderID = "order-3"
	zeroPrice.PricePerShare = decimal.Zero
	assert.Error(t, appendEntry(t, db, repo, zeroPrice))
}

func TestGetHistory_NewestFirstWithExactPrices(t *testing.T) {
	db := newPortfolioTestDB(t)
	repo := NewTransactionRepository(db, zerolog.Nop())

	now := time.Now()
	entries := []domain.Transaction{
		{AccountID: 1, OrderID: "a", Type: domain.TransactionBuy, Symbol: "AAPL",
			ShareCount: 10, PricePerShare: decimal.RequireFromString("50.00"), ExecutedAt: now.Add(-2 * time.Hour)},
		{AccountID: 1, OrderID: "b", Type: domain.TransactionSell, Symbol: "AAPL",
			ShareCount: 4, PricePerShare: decimal.RequireFromString("60.10"), ExecutedAt: now.Add(-1 * time.Hour)},
		{AccountID: 2, OrderID: "c", Type: domain.TransactionBuy, Symbol: "MSFT",
			ShareCount: 1, PricePerShare: decimal.RequireFromString("300.00"), ExecutedAt: now},
	}
	for _, e := range entries {
		require.NoError(t, appendEntry(t, db, repo, e))
	}

	history, err := repo.GetHistory(1)
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, "b", history[0].OrderID)
	assert.Equal(t, "60.10", history[0].PricePerShare.StringFixed(2))
	assert.Equal(t, "a", history[1].OrderID)
	assert.Equal(t, "50.00", history[1].PricePerShare.StringFixed(2))
}

func TestGetHistory_SameTimestampBreaksTiesByInsertionOrder(t *testing.T) {
	db := newPortfolioTestDB(t)
	repo := NewTransactionRepository(db, zerolog.Nop())

	at := time.Now()
	for i, orderID := range []string{"first", "second", "third"} {
		require.NoError(t, appendEntry(t, db, repo, domain.Transaction{
			AccountID: 1, OrderID: orderID, Type: domain.TransactionBuy, Symbol: "AAPL",
			ShareCount: int64(i + 1), PricePerShare: decimal.RequireFromString("1.00"), ExecutedAt: at,
		}))
	}

	history, err := repo.GetHistory(1)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "third", history[0].OrderID)
	assert.Equal(t, "first", history[2].OrderID)
}

func TestCount(t *testing.T) {
	db := newPortfolioTestDB(t)
	repo := NewTransactionRepository(db, zerolog.Nop())

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, appendEntry(t, db, repo, domain.Transaction{
		AccountID: 1, OrderID: "a", Type: domain.TransactionBuy, Symbol: "AAPL",
		ShareCount: 1, PricePerShare: decimal.RequireFromString("1.00"), ExecutedAt: time.Now(),
	}))

	count, err = repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
