// Package handlers provides HTTP handlers for quotes, trades, portfolio and history.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/aristath/papertrade/internal/domain"
	"github.com/aristath/papertrade/internal/modules/portfolio"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// PortfolioHandlers contains HTTP handlers for the trading API
type PortfolioHandlers struct {
	service *portfolio.Service
	quotes  portfolio.QuoteLookup
	log     zerolog.Logger
}

// NewPortfolioHandlers creates a new portfolio handlers instance
func NewPortfolioHandlers(service *portfolio.Service, quotes portfolio.QuoteLookup, log zerolog.Logger) *PortfolioHandlers {
	return &PortfolioHandlers{
		service: service,
		quotes:  quotes,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

type tradeRequest struct {
	Symbol    string `json:"symbol"`
	AccountID int64  `json:"account_id"`
	Shares    int64  `json:"shares"`
}

func (h *PortfolioHandlers) decodeTradeRequest(w http.ResponseWriter, r *http.Request) (*tradeRequest, bool) {
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body.")
		return nil, false
	}
	if strings.TrimSpace(req.Symbol) == "" {
		h.writeError(w, http.StatusBadRequest, "Symbol cannot be blank.")
		return nil, false
	}
	if req.Shares < 1 {
		h.writeError(w, http.StatusBadRequest, "Shares must be a positive whole number.")
		return nil, false
	}
	return &req, true
}

// HandleQuote looks up a live quote
// GET /api/quote?symbol=AAPL
func (h *PortfolioHandlers) HandleQuote(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if strings.TrimSpace(symbol) == "" {
		h.writeError(w, http.StatusBadRequest, "Symbol cannot be blank.")
		return
	}

	quote := h.quotes.Lookup(symbol)
	if quote == nil {
		h.writeError(w, http.StatusNotFound, domain.ErrInvalidSymbol.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, quote)
}

// HandleBuy settles a share purchase
// POST /api/trades/buy
func (h *PortfolioHandlers) HandleBuy(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeTradeRequest(w, r)
	if !ok {
		return
	}

	if err := h.service.Buy(req.AccountID, req.Symbol, req.Shares); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "bought"})
}

// HandleSell settles a share sale
// POST /api/trades/sell
func (h *PortfolioHandlers) HandleSell(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeTradeRequest(w, r)
	if !ok {
		return
	}

	if err := h.service.Sell(req.AccountID, req.Symbol, req.Shares); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "sold"})
}

// HandlePortfolio returns the account's holdings with live valuation,
// cash balance and totals
// GET /api/portfolio/{accountID}
func (h *PortfolioHandlers) HandlePortfolio(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountIDParam(w, r)
	if !ok {
		return
	}

	summary, err := h.service.GetSummary(accountID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

// HandleHistory returns the account's transactions, newest first
// GET /api/history/{accountID}
func (h *PortfolioHandlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountIDParam(w, r)
	if !ok {
		return
	}

	history, err := h.service.History(accountID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	if history == nil {
		history = []domain.Transaction{}
	}
	h.writeJSON(w, http.StatusOK, history)
}

func (h *PortfolioHandlers) accountIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid account id.")
		return 0, false
	}
	return accountID, true
}

// writeDomainError maps each domain error kind to a distinct status and its
// human-readable message. Anything outside the closed set is a 500.
func (h *PortfolioHandlers) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidSymbol),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrInsufficientShares):
		h.writeError(w, http.StatusBadRequest, domainMessage(err))
	case errors.Is(err, domain.ErrNoSuchHolding),
		errors.Is(err, domain.ErrAccountNotFound):
		h.writeError(w, http.StatusNotFound, domainMessage(err))
	case errors.Is(err, domain.ErrQuoteUnavailable):
		h.writeError(w, http.StatusServiceUnavailable, domainMessage(err))
	case errors.Is(err, domain.ErrConflict):
		h.writeError(w, http.StatusConflict, domainMessage(err))
	default:
		h.log.Error().Err(err).Msg("Unexpected error")
		h.writeError(w, http.StatusInternalServerError, "Internal error.")
	}
}

// domainMessage strips transaction wrapping so only the domain error's own
// message reaches the client
func domainMessage(err error) string {
	for _, domainErr := range []error{
		domain.ErrInvalidSymbol,
		domain.ErrInsufficientFunds,
		domain.ErrInsufficientShares,
		domain.ErrNoSuchHolding,
		domain.ErrAccountNotFound,
		domain.ErrQuoteUnavailable,
		domain.ErrConflict,
	} {
		if errors.Is(err, domainErr) {
			return domainErr.Error()
		}
	}
	return err.Error()
}

func (h *PortfolioHandlers) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *PortfolioHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
