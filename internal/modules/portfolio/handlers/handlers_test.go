package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aristath/papertrade/internal/domain"
	"github.com/aristath/papertrade/internal/modules/accounts"
	"github.com/aristath/papertrade/internal/modules/portfolio"
	"github.com/go-chi/chi/v5"
	_ "modernc.org/sqlite"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuotes struct {
	prices map[string]string
}

func (f *fakeQuotes) Lookup(symbol string) *domain.Quote {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	price, ok := f.prices[symbol]
	if !ok {
		return nil
	}
	return &domain.Quote{
		Symbol: symbol,
		Name:   symbol + " Inc",
		Price:  decimal.RequireFromString(price),
	}
}

type testEnv struct {
	db     *sql.DB
	router chi.Router
}

func newTestEnv(t *testing.T, prices map[string]string) *testEnv {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err, "Failed to open test database")
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE accounts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			cash_balance TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE TABLE holdings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			account_id INTEGER NOT NULL REFERENCES accounts(id),
			symbol TEXT NOT NULL,
			share_count INTEGER NOT NULL CHECK(share_count > 0),
			UNIQUE(account_id, symbol)
		);
		CREATE TABLE transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_id TEXT NOT NULL UNIQUE,
			account_id INTEGER NOT NULL REFERENCES accounts(id),
			side TEXT NOT NULL CHECK(side IN ('BUY', 'SELL')),
			symbol TEXT NOT NULL,
			share_count INTEGER NOT NULL CHECK(share_count > 0),
			price_per_share TEXT NOT NULL,
			executed_at INTEGER NOT NULL
		);
	`)
	require.NoError(t, err, "Failed to create test schema")

	logger := zerolog.Nop()
	quotes := &fakeQuotes{prices: prices}
	accountRepo := accounts.NewRepository(db, logger)
	holdingRepo := portfolio.NewHoldingRepository(db, logger)
	transactionRepo := portfolio.NewTransactionRepository(db, logger)
	service := portfolio.NewService(db, accountRepo, holdingRepo, transactionRepo, quotes, logger)
	handler := NewPortfolioHandlers(service, quotes, logger)

	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return &testEnv{db: db, router: router}
}

func (e *testEnv) newAccount(t *testing.T, username string) int64 {
	t.Helper()

	result, err := e.db.Exec(
		"INSERT INTO accounts (username, password_hash, cash_balance, created_at) VALUES (?, ?, ?, ?)",
		username, "hash", domain.StartingCash.String(), time.Now().Unix(),
	)
	require.NoError(t, err)
	id, err := result.LastInsertId()
	require.NoError(t, err)
	return id
}

func (e *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) post(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

// fixed2 reparses a money string to two decimal places, since decimal
// serialization trims trailing zeros
func fixed2(t *testing.T, v interface{}) string {
	t.Helper()
	raw, ok := v.(string)
	require.True(t, ok, "expected a decimal string, got %T", v)
	return decimal.RequireFromString(raw).StringFixed(2)
}

func TestHandleQuote(t *testing.T) {
	env := newTestEnv(t, map[string]string{"AAPL": "150.25"})

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		validate       func(*testing.T, map[string]interface{})
	}{
		{
			name:           "resolved symbol",
			path:           "/quote?symbol=AAPL",
			expectedStatus: http.StatusOK,
			validate: func(t *testing.T, response map[string]interface{}) {
				assert.Equal(t, "AAPL", response["symbol"])
				assert.Equal(t, "150.25", response["price"])
			},
		},
		{
			name:           "lower case is normalized",
			path:           "/quote?symbol=aapl",
			expectedStatus: http.StatusOK,
			validate: func(t *testing.T, response map[string]interface{}) {
				assert.Equal(t, "AAPL", response["symbol"])
			},
		},
		{
			name:           "unknown symbol",
			path:           "/quote?symbol=NOPE",
			expectedStatus: http.StatusNotFound,
			validate: func(t *testing.T, response map[string]interface{}) {
				assert.Equal(t, "invalid stock symbol", response["error"])
			},
		},
		{
			name:           "blank symbol",
			path:           "/quote?symbol=",
			expectedStatus: http.StatusBadRequest,
			validate: func(t *testing.T, response map[string]interface{}) {
				assert.Equal(t, "Symbol cannot be blank.", response["error"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.get(t, tt.path)
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.validate != nil {
				tt.validate(t, decode(t, w))
			}
		})
	}
}

func TestHandleBuy(t *testing.T) {
	env := newTestEnv(t, map[string]string{"AAPL": "50.00"})
	accountID := env.newAccount(t, "alice")

	w := env.post(t, "/trades/buy", fmt.Sprintf(`{"symbol": "AAPL", "account_id": %d, "shares": 10}`, accountID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bought", decode(t, w)["status"])

	var balance string
	require.NoError(t, env.db.QueryRow("SELECT cash_balance FROM accounts WHERE id = ?", accountID).Scan(&balance))
	assert.Equal(t, "9500.00", fixed2(t, balance))
}

func TestHandleBuy_Errors(t *testing.T) {
	env := newTestEnv(t, map[string]string{"AAPL": "50.00"})
	accountID := env.newAccount(t, "alice")

	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "unknown symbol",
			body:           fmt.Sprintf(`{"symbol": "NOPE", "account_id": %d, "shares": 1}`, accountID),
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid stock symbol",
		},
		{
			name:           "insufficient funds",
			body:           fmt.Sprintf(`{"symbol": "AAPL", "account_id": %d, "shares": 201}`, accountID),
			expectedStatus: http.StatusBadRequest,
			expectedError:  "insufficient funds",
		},
		{
			name:           "zero shares",
			body:           fmt.Sprintf(`{"symbol": "AAPL", "account_id": %d, "shares": 0}`, accountID),
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Shares must be a positive whole number.",
		},
		{
			name:           "negative shares",
			body:           fmt.Sprintf(`{"symbol": "AAPL", "account_id": %d, "shares": -5}`, accountID),
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Shares must be a positive whole number.",
		},
		{
			name:           "blank symbol",
			body:           fmt.Sprintf(`{"symbol": " ", "account_id": %d, "shares": 1}`, accountID),
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Symbol cannot be blank.",
		},
		{
			name:           "malformed body",
			body:           `{"symbol": `,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid request body.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.post(t, "/trades/buy", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedError, decode(t, w)["error"])
		})
	}

	// None of the failed attempts may have touched the balance
	var balance string
	require.NoError(t, env.db.QueryRow("SELECT cash_balance FROM accounts WHERE id = ?", accountID).Scan(&balance))
	assert.Equal(t, "10000.00", fixed2(t, balance))
}

func TestHandleSell(t *testing.T) {
	env := newTestEnv(t, map[string]string{"AAPL": "50.00"})
	accountID := env.newAccount(t, "alice")

	w := env.post(t, "/trades/buy", fmt.Sprintf(`{"symbol": "AAPL", "account_id": %d, "shares": 10}`, accountID))
	require.Equal(t, http.StatusOK, w.Code)

	w = env.post(t, "/trades/sell", fmt.Sprintf(`{"symbol": "AAPL", "account_id": %d, "shares": 10}`, accountID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sold", decode(t, w)["status"])

	var balance string
	require.NoError(t, env.db.QueryRow("SELECT cash_balance FROM accounts WHERE id = ?", accountID).Scan(&balance))
	assert.Equal(t, "10000.00", fixed2(t, balance))
}

func TestHandleSell_Errors(t *testing.T) {
	env := newTestEnv(t, map[string]string{"AAPL": "50.00"})
	accountID := env.newAccount(t, "alice")

	w := env.post(t, "/trades/sell", fmt.Sprintf(`{"symbol": "AAPL", "account_id": %d, "shares": 1}`, accountID))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "you do not own shares of this stock", decode(t, w)["error"])

	w = env.post(t, "/trades/buy", fmt.Sprintf(`{"symbol": "AAPL", "account_id": %d, "shares": 5}`, accountID))
	require.Equal(t, http.StatusOK, w.Code)

	w = env.post(t, "/trades/sell", fmt.Sprintf(`{"symbol": "AAPL", "account_id": %d, "shares": 6}`, accountID))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "you do not have enough shares to sell", decode(t, w)["error"])
}

func TestHandlePortfolio(t *testing.T) {
	env := newTestEnv(t, map[string]string{"AAPL": "50.00", "NET": "10.00"})
	accountID := env.newAccount(t, "alice")

	w := env.post(t, "/trades/buy", fmt.Sprintf(`{"symbol": "AAPL", "account_id": %d, "shares": 2}`, accountID))
	require.Equal(t, http.StatusOK, w.Code)
	w = env.post(t, "/trades/buy", fmt.Sprintf(`{"symbol": "NET", "account_id": %d, "shares": 3}`, accountID))
	require.Equal(t, http.StatusOK, w.Code)

	w = env.get(t, fmt.Sprintf("/portfolio/%d", accountID))
	require.Equal(t, http.StatusOK, w.Code)

	response := decode(t, w)
	assert.Equal(t, "9870.00", fixed2(t, response["cash_balance"]))
	assert.Equal(t, "130.00", fixed2(t, response["stock_value"]))
	assert.Equal(t, "10000.00", fixed2(t, response["net_worth"]))

	holdings := response["holdings"].([]interface{})
	require.Len(t, holdings, 2)
	first := holdings[0].(map[string]interface{})
	assert.Equal(t, "AAPL", first["symbol"])
	assert.Equal(t, "100.00", fixed2(t, first["total_value"]))
}

func TestHandlePortfolio_Errors(t *testing.T) {
	env := newTestEnv(t, map[string]string{})

	w := env.get(t, "/portfolio/999")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "account not found", decode(t, w)["error"])

	w = env.get(t, "/portfolio/bogus")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid account id.", decode(t, w)["error"])
}

func TestHandleHistory(t *testing.T) {
	env := newTestEnv(t, map[string]string{"AAPL": "50.00"})
	accountID := env.newAccount(t, "alice")

	w := env.get(t, fmt.Sprintf("/history/%d", accountID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()), "empty history must be an empty array, not null")

	w = env.post(t, "/trades/buy", fmt.Sprintf(`{"symbol": "AAPL", "account_id": %d, "shares": 10}`, accountID))
	require.Equal(t, http.StatusOK, w.Code)
	w = env.post(t, "/trades/sell", fmt.Sprintf(`{"symbol": "AAPL", "account_id": %d, "shares": 4}`, accountID))
	require.Equal(t, http.StatusOK, w.Code)

	w = env.get(t, fmt.Sprintf("/history/%d", accountID))
	require.Equal(t, http.StatusOK, w.Code)

	var history []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history, 2)
	assert.Equal(t, "SELL", history[0]["type"])
	assert.Equal(t, "BUY", history[1]["type"])
	assert.Equal(t, "50.00", fixed2(t, history[0]["price_per_share"]))
}
