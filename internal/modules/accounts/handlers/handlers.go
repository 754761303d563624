// Package handlers provides HTTP handlers for account registration and lookup.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aristath/papertrade/internal/domain"
	"github.com/aristath/papertrade/internal/modules/accounts"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// AccountHandlers contains HTTP handlers for the accounts API
type AccountHandlers struct {
	service *accounts.Service
	log     zerolog.Logger
}

// NewAccountHandlers creates a new account handlers instance
func NewAccountHandlers(service *accounts.Service, log zerolog.Logger) *AccountHandlers {
	return &AccountHandlers{
		service: service,
		log:     log.With().Str("handler", "accounts").Logger(),
	}
}

type registerRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	Confirmation string `json:"confirmation"`
}

// HandleRegister creates a new account with the starting cash balance
// POST /api/register
func (h *AccountHandlers) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	// Blank and confirmation checks are this caller's responsibility,
	// not the registration service's
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		h.writeError(w, http.StatusBadRequest, "Username and password cannot be blank.")
		return
	}
	if req.Password != req.Confirmation {
		h.writeError(w, http.StatusBadRequest, "Passwords do not match.")
		return
	}

	account, err := h.service.Register(strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateUsername) {
			h.writeError(w, http.StatusConflict, domain.ErrDuplicateUsername.Error())
			return
		}
		h.log.Error().Err(err).Str("username", req.Username).Msg("Registration failed")
		h.writeError(w, http.StatusInternalServerError, "Registration failed.")
		return
	}

	h.writeJSON(w, http.StatusCreated, account)
}

// HandleGetAccount returns an account by username
// GET /api/accounts/{username}
func (h *AccountHandlers) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	account, err := h.service.FindByUsername(username)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			h.writeError(w, http.StatusNotFound, domain.ErrAccountNotFound.Error())
			return
		}
		h.log.Error().Err(err).Str("username", username).Msg("Account lookup failed")
		h.writeError(w, http.StatusInternalServerError, "Account lookup failed.")
		return
	}

	h.writeJSON(w, http.StatusOK, account)
}

func (h *AccountHandlers) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *AccountHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
