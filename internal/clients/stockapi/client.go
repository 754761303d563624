// Package stockapi provides stock quote lookup from the external pricing API.
package stockapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aristath/papertrade/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Client for the price-quote endpoint
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new quote client.
// baseURL is the quote endpoint without the symbol parameter,
// e.g. "https://finance.cs50.io/quote".
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log.With().Str("client", "stockapi").Logger(),
	}
}

// quoteResponse mirrors the upstream JSON payload. Unknown fields are ignored.
type quoteResponse struct {
	CompanyName string          `json:"companyName"`
	LatestPrice decimal.Decimal `json:"latestPrice"`
	Symbol      string          `json:"symbol"`
}

// Lookup fetches the current quote for a ticker symbol. The symbol is
// upper-cased before the remote call. A nil result means not found.
//
// Every failure mode - network error, non-200 status, malformed payload,
// response without a resolvable symbol - is deliberately downgraded to
// nil: the business logic treats "transient upstream issue" and "symbol
// does not exist" identically, so the distinction is only logged.
// One attempt per call, no caching.
func (c *Client) Lookup(symbol string) *domain.Quote {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil
	}

	reqURL := c.baseURL + "?symbol=" + url.QueryEscape(symbol)
	c.log.Debug().Str("symbol", symbol).Msg("Fetching quote")

	resp, err := c.client.Get(reqURL)
	if err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote request failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().
			Int("status", resp.StatusCode).
			Str("symbol", symbol).
			Msg("Quote API returned non-OK status")
		return nil
	}

	var result quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to parse quote response")
		return nil
	}

	// An echoed symbol confirms resolution; its absence means not found
	if result.Symbol == "" {
		c.log.Debug().Str("symbol", symbol).Msg("Symbol not resolved by quote API")
		return nil
	}

	c.log.Debug().
		Str("symbol", result.Symbol).
		Str("price", result.LatestPrice.String()).
		Msg("Quote fetched")

	return &domain.Quote{
		Symbol: result.Symbol,
		Name:   result.CompanyName,
		Price:  result.LatestPrice,
	}
}
