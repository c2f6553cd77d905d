package services

import (
	"context"
	"time"

	"debtbook/internal/backup"
	"debtbook/internal/models"
	"debtbook/internal/pagination"
)

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(ctx context.Context, name, description, currencyCode string) (*models.Account, error)
	GetAccounts(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(ctx context.Context, id string) (*models.Account, error)
	UpdateAccount(ctx context.Context, id string, fields AccountUpdateFields) (*models.Account, error)
	DeleteAccount(ctx context.Context, id string) error
	RecalculateTotals(ctx context.Context, accountID string) error
}

// AccountUpdateFields holds optional account fields for partial updates.
type AccountUpdateFields struct {
	Name         *string
	Description  *string
	CurrencyCode *string
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	AccountID *string
	Type      *models.TransactionType
	FromDate  *time.Time
	ToDate    *time.Time
}

// TransactionUpdateFields holds optional transaction fields for partial updates.
type TransactionUpdateFields struct {
	Type        *models.TransactionType
	Amount      *float64
	Name        *string
	Description *string
	Date        *time.Time
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(ctx context.Context, accountID string, transactionType models.TransactionType, amount float64, name, description string, date time.Time) (*models.Transaction, error)
	GetTransactions(ctx context.Context, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(ctx context.Context, id string) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, fields TransactionUpdateFields) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
}

// CurrencyServicer defines the contract for currency lifecycle logic.
type CurrencyServicer interface {
	EnsureSeeded(ctx context.Context) error
	GetCurrencies(ctx context.Context) ([]models.Currency, error)
	GetCurrencyByCode(ctx context.Context, code string) (*models.Currency, error)
	CreateCustomCurrency(ctx context.Context, code, name, symbol string, rate float64) (*models.Currency, error)
	UpdateCustomCurrency(ctx context.Context, id string, fields CurrencyUpdateFields) (*models.Currency, error)
	DeleteCustomCurrency(ctx context.Context, id string) error
}

// CurrencyUpdateFields holds optional custom currency fields for partial updates.
type CurrencyUpdateFields struct {
	Code   *string
	Name   *string
	Symbol *string
	Rate   *float64
}

// SettingsUpdateFields holds optional settings fields for partial updates.
type SettingsUpdateFields struct {
	DefaultCurrencyCode *string
	Language            *string
	Theme               *string
	AutoUpdateRates     *bool
}

// SettingsServicer defines the contract for the settings singleton.
type SettingsServicer interface {
	GetSettings(ctx context.Context) (*models.AppSettings, error)
	UpdateSettings(ctx context.Context, fields SettingsUpdateFields) (*models.AppSettings, error)
}

// ExportArtifact is a serialized backup plus its suggested filename.
type ExportArtifact struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// BackupServicer defines the contract for the backup/restore subsystem.
type BackupServicer interface {
	ExportBackup(ctx context.Context) (*ExportArtifact, error)
	ParseBackup(text string) (*models.BackupSnapshot, error)
	ValidateBackup(snapshot *models.BackupSnapshot) backup.ValidationResult
	GetBackupStats(snapshot *models.BackupSnapshot) models.BackupStats
	GetLiveStats(ctx context.Context) (*models.BackupStats, error)
	Reconcile(ctx context.Context, snapshot *models.BackupSnapshot, opts backup.Options) (*backup.Result, error)
	ImportBackup(ctx context.Context, text string, opts backup.Options) (*backup.Result, backup.ValidationResult, error)
}

// LockServicer defines the contract for the app lock PIN.
type LockServicer interface {
	PINConfigured(ctx context.Context) (bool, error)
	SetPIN(ctx context.Context, currentPIN, newPIN string) error
	VerifyPIN(ctx context.Context, pin string) error
	DisableLock(ctx context.Context, pin string) error
}
