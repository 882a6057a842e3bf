// package identity implements the local demo account registry.
//
// Accounts live only in the key-value store. Logging in with one yields a session whose token is
// [models.LocalAuthToken], which never authenticates with the backend.
package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/bitesized/internal/models"
	"github.com/desertthunder/bitesized/internal/repositories"
	"github.com/desertthunder/bitesized/internal/session"
	"github.com/desertthunder/bitesized/internal/shared"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateAccount   = errors.New("an account with this email already exists")
	ErrAccountNotFound    = errors.New("no account found for this email")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// RegisterInput carries the registration form.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// LoginInput carries the login form.
type LoginInput struct {
	Email    string
	Password string
}

// Option configures a [Registry].
type Option func(*Registry)

// WithHashCost sets the bcrypt cost used for new accounts.
func WithHashCost(cost int) Option {
	return func(r *Registry) { r.cost = cost }
}

// Registry registers and logs in local accounts and installs the resulting session.
type Registry struct {
	mu       sync.Mutex
	accounts *repositories.AccountRepository
	sessions *session.Manager
	logger   *log.Logger
	cost     int
}

// NewRegistry creates a Registry over accounts that reports successful logins to sessions.
func NewRegistry(accounts *repositories.AccountRepository, sessions *session.Manager, logger *log.Logger, opts ...Option) *Registry {
	r := &Registry{accounts: accounts, sessions: sessions, logger: logger, cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ListAccounts returns every local account in registration order.
func (r *Registry) ListAccounts(ctx context.Context) ([]models.LocalAccount, error) {
	return r.accounts.List(ctx)
}

// ReplaceAccounts overwrites the stored account list.
func (r *Registry) ReplaceAccounts(ctx context.Context, accounts []models.LocalAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accounts.Replace(ctx, accounts)
}

// Register validates input, creates the account and makes it the active session.
func (r *Registry) Register(ctx context.Context, input RegisterInput) (models.LocalAccount, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)

	if name == "" {
		return models.LocalAccount{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if err := validateEmail(email); err != nil {
		return models.LocalAccount{}, err
	}
	if utf8.RuneCountInString(input.Password) < MinPasswordLength {
		return models.LocalAccount{}, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLength)
	}

	role := models.RoleLearner
	if strings.TrimSpace(input.Role) != "" {
		parsed, ok := models.ParseRole(input.Role)
		if !ok {
			return models.LocalAccount{}, fmt.Errorf("%w: role must be creator or learner", ErrValidation)
		}
		role = parsed
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	accounts, err := r.accounts.List(ctx)
	if err != nil {
		return models.LocalAccount{}, err
	}
	if findByEmail(accounts, email) >= 0 {
		return models.LocalAccount{}, ErrDuplicateAccount
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), r.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return models.LocalAccount{}, fmt.Errorf("%w: password must be at most 72 bytes", ErrValidation)
	}
	if err != nil {
		return models.LocalAccount{}, fmt.Errorf("failed to hash password: %w", err)
	}

	account := models.LocalAccount{
		ID:           shared.GenerateID(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}

	if err := r.accounts.Replace(ctx, append(accounts, account)); err != nil {
		return models.LocalAccount{}, err
	}

	if err := r.sessions.Set(ctx, sessionFor(account)); err != nil {
		return models.LocalAccount{}, err
	}

	r.logger.Info("registered local account", "id", account.ID, "role", account.Role)
	return account, nil
}

// Login checks the credentials against the registry and makes the account the active session.
//
// The session is left untouched on any failure.
func (r *Registry) Login(ctx context.Context, input LoginInput) (models.Session, error) {
	email := strings.TrimSpace(input.Email)
	if err := validateEmail(email); err != nil {
		return models.Session{}, err
	}
	if strings.TrimSpace(input.Password) == "" {
		return models.Session{}, fmt.Errorf("%w: password is required", ErrValidation)
	}

	accounts, err := r.accounts.List(ctx)
	if err != nil {
		return models.Session{}, err
	}

	i := findByEmail(accounts, email)
	if i < 0 {
		return models.Session{}, ErrAccountNotFound
	}
	account := accounts[i]

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(input.Password)); err != nil {
		r.logger.Debug("local login rejected", "id", account.ID)
		return models.Session{}, ErrInvalidCredentials
	}

	next := sessionFor(account)
	if err := r.sessions.Set(ctx, next); err != nil {
		return models.Session{}, err
	}
	return next, nil
}

func validateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: email must look like name@example.com", ErrValidation)
	}
	return nil
}

func findByEmail(accounts []models.LocalAccount, email string) int {
	return slices.IndexFunc(accounts, func(a models.LocalAccount) bool {
		return strings.EqualFold(a.Email, email)
	})
}

func sessionFor(a models.LocalAccount) models.Session {
	return models.Session{Token: models.LocalAuthToken, UserID: a.ID, Role: a.Role, Name: a.Name}
}
