package repositories

import (
	"context"

	"github.com/desertthunder/bitesized/internal/kv"
	"github.com/desertthunder/bitesized/internal/models"
)

// AccountRepository persists local demo accounts under [kv.KeyLocalUsers].
//
// It exposes only whole-list reads and writes; callers perform read-modify-write.
type AccountRepository struct {
	store kv.Store
}

// NewAccountRepository creates a new AccountRepository backed by store
func NewAccountRepository(store kv.Store) *AccountRepository {
	return &AccountRepository{store: store}
}

// List returns every account in registration order.
func (r *AccountRepository) List(ctx context.Context) ([]models.LocalAccount, error) {
	accounts, err := readJSON[[]models.LocalAccount](ctx, r.store, kv.KeyLocalUsers)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []models.LocalAccount{}
	}
	return accounts, nil
}

// Replace overwrites the stored list with accounts.
func (r *AccountRepository) Replace(ctx context.Context, accounts []models.LocalAccount) error {
	if accounts == nil {
		accounts = []models.LocalAccount{}
	}
	return writeJSON(ctx, r.store, kv.KeyLocalUsers, accounts)
}
