package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio and trading routes
func (h *PortfolioHandlers) RegisterRoutes(r chi.Router) {
	r.Get("/quote", h.HandleQuote)

	r.Route("/trades", func(r chi.Router) {
		r.Post("/buy", h.HandleBuy)
		r.Post("/sell", h.HandleSell)
	})

	r.Get("/portfolio/{accountID}", h.HandlePortfolio)
	r.Get("/history/{accountID}", h.HandleHistory)
}
