package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"debtbook/internal/models"
)

// gormStore implements Store on top of a GORM database handle.
type gormStore struct {
	db *gorm.DB
}

// NewGorm creates a Store backed by the given GORM database.
func NewGorm(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Accounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	if err := s.db.WithContext(ctx).Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *gormStore) Account(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// SaveAccount upserts by primary key. A blank ID gets a generated one via the
// model's BeforeCreate hook; callers must read the ID back after saving
// rather than assume it was kept.
func (s *gormStore) SaveAccount(ctx context.Context, account *models.Account) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(account).Error
}

func (s *gormStore) DeleteAccount(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&models.Account{}, "id = ?", id).Error
}

func (s *gormStore) Transactions(ctx context.Context) ([]models.Transaction, error) {
	var transactions []models.Transaction
	if err := s.db.WithContext(ctx).Find(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}

func (s *gormStore) Transaction(ctx context.Context, id string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &transaction, nil
}

func (s *gormStore) TransactionsByAccount(ctx context.Context, accountID string) ([]models.Transaction, error) {
	var transactions []models.Transaction
	if err := s.db.WithContext(ctx).Where("account_id = ?", accountID).Find(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}

func (s *gormStore) SaveTransaction(ctx context.Context, transaction *models.Transaction) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(transaction).Error
}

func (s *gormStore) DeleteTransaction(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&models.Transaction{}, "id = ?", id).Error
}

func (s *gormStore) Currencies(ctx context.Context) ([]models.Currency, error) {
	var currencies []models.Currency
	if err := s.db.WithContext(ctx).Find(&currencies).Error; err != nil {
		return nil, err
	}
	return currencies, nil
}

// SaveCurrencies replaces the whole persisted currency set.
func (s *gormStore) SaveCurrencies(ctx context.Context, currencies []models.Currency) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Currency{}).Error; err != nil {
			return err
		}
		if len(currencies) == 0 {
			return nil
		}
		return tx.Create(&currencies).Error
	})
}

func (s *gormStore) Settings(ctx context.Context) (*models.AppSettings, error) {
	var settings models.AppSettings
	if err := s.db.WithContext(ctx).Where("id = ?", models.SettingsID).First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &settings, nil
}

func (s *gormStore) SaveSettings(ctx context.Context, settings *models.AppSettings) error {
	settings.ID = models.SettingsID
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(settings).Error
}

func (s *gormStore) ClearAllData(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		wipe := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, model := range []interface{}{
			&models.Transaction{},
			&models.Account{},
			&models.Currency{},
			&models.AppSettings{},
		} {
			if err := wipe.Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
