package repository

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/spec-kit/isp-workboard/internal/domain"
)

var (
	// ErrAccountNotFound is returned for unknown usernames.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountExists is returned when a username is already taken.
	ErrAccountExists = errors.New("account already exists")
)

// AccountRepository defines access to dashboard operator accounts.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) error
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
}

type memoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
}

// NewMemoryAccountRepository returns an in-memory account directory.
// Usernames are matched case-insensitively.
func NewMemoryAccountRepository() AccountRepository {
	return &memoryAccountRepository{accounts: map[string]domain.Account{}}
}

func (r *memoryAccountRepository) Create(_ context.Context, account domain.Account) error {
	key := usernameKey(account.Username)
	if key == "" {
		return errors.New("username required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.accounts[key]; exists {
		return ErrAccountExists
	}
	r.accounts[key] = account
	return nil
}

func (r *memoryAccountRepository) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.accounts[usernameKey(username)]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return &account, nil
}

func usernameKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
