package accounts

import (
	"fmt"

	"github.com/aristath/papertrade/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Service provides account registration and lookup.
// Blank-field and password-confirmation checks are caller concerns; the
// service assumes its inputs are non-blank.
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a new account service
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "accounts").Logger(),
	}
}

// Register creates an account with a bcrypt hash of the password and the
// fixed starting cash balance. The creation is a single atomic write.
// Returns domain.ErrDuplicateUsername if the username is taken.
func (s *Service) Register(username, password string) (*domain.Account, error) {
	// bcrypt is slow and salted on purpose; the plaintext is never stored
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account, err := s.repo.Create(username, string(hash), domain.StartingCash)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("username", username).
		Str("starting_cash", domain.StartingCash.String()).
		Msg("Account registered")

	return account, nil
}

// FindByUsername returns the account for a username.
// Returns domain.ErrAccountNotFound if no such account exists.
func (s *Service) FindByUsername(username string) (*domain.Account, error) {
	account, err := s.repo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

// VerifyPassword checks a plaintext password against an account's stored hash
func (s *Service) VerifyPassword(account *domain.Account, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) == nil
}
