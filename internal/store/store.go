// Package store defines the persistence boundary for debtbook. The
// reconciliation engine and the services depend on this interface rather than
// on a concrete database, so they can be exercised against any backend.
package store

import (
	"context"
	"errors"

	"debtbook/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: record not found")

// Store is the on-device record store. Each operation is atomic at the
// single-entity level only; multi-entity consistency is the caller's concern.
type Store interface {
	Accounts(ctx context.Context) ([]models.Account, error)
	Account(ctx context.Context, id string) (*models.Account, error)
	SaveAccount(ctx context.Context, account *models.Account) error
	DeleteAccount(ctx context.Context, id string) error

	Transactions(ctx context.Context) ([]models.Transaction, error)
	Transaction(ctx context.Context, id string) (*models.Transaction, error)
	TransactionsByAccount(ctx context.Context, accountID string) ([]models.Transaction, error)
	SaveTransaction(ctx context.Context, transaction *models.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error

	Currencies(ctx context.Context) ([]models.Currency, error)
	SaveCurrencies(ctx context.Context, currencies []models.Currency) error

	Settings(ctx context.Context) (*models.AppSettings, error)
	SaveSettings(ctx context.Context, settings *models.AppSettings) error

	// ClearAllData wipes every persisted record: accounts, transactions,
	// currencies (custom ones included), and settings.
	ClearAllData(ctx context.Context) error
}
