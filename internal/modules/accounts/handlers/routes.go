package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all account routes
func (h *AccountHandlers) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.HandleRegister)
	r.Get("/accounts/{username}", h.HandleGetAccount)
}
