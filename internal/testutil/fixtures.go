package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"debtbook/internal/models"
	"debtbook/internal/uuid"

	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// TestCurrency returns an unsaved built-in currency definition for the given code.
func TestCurrency(code string) models.Currency {
	return models.Currency{
		ID:     uuid.New(),
		Code:   code,
		Name:   code + " Test Currency",
		Symbol: "$",
		Rate:   1.0,
	}
}

// TestCustomCurrency returns an unsaved custom currency definition.
func TestCustomCurrency(code string, rate float64) models.Currency {
	c := TestCurrency(code)
	c.Rate = rate
	c.IsCustom = true
	return c
}

// CreateTestAccount creates an account with a unique name in the given currency.
func CreateTestAccount(t *testing.T, db *gorm.DB, code string) *models.Account {
	t.Helper()
	return CreateTestAccountWithName(t, db, fmt.Sprintf("Test Account %d", nextID()), code)
}

// CreateTestAccountWithName creates an account with the given name and currency code.
func CreateTestAccountWithName(t *testing.T, db *gorm.DB, name, code string) *models.Account {
	t.Helper()

	account := &models.Account{
		Name:     name,
		Currency: TestCurrency(code),
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestTransaction creates a transaction of the given type and amount.
func CreateTestTransaction(t *testing.T, db *gorm.DB, accountID string, txType models.TransactionType, amount float64, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		AccountID: accountID,
		Type:      txType,
		Amount:    amount,
		Currency:  TestCurrency("USD"),
		Name:      fmt.Sprintf("Counterparty %d", nextID()),
		Date:      date,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestSettings creates the settings singleton with the given default currency.
func CreateTestSettings(t *testing.T, db *gorm.DB, defaultCode string) *models.AppSettings {
	t.Helper()

	settings := &models.AppSettings{
		ID:              models.SettingsID,
		DefaultCurrency: TestCurrency(defaultCode),
		Language:        "en",
		Theme:           models.ThemeSystem,
	}
	if err := db.Create(settings).Error; err != nil {
		t.Fatalf("failed to create test settings: %v", err)
	}
	return settings
}

// SeedTestCurrencies persists the given currency definitions.
func SeedTestCurrencies(t *testing.T, db *gorm.DB, currencies ...models.Currency) {
	t.Helper()

	for i := range currencies {
		if err := db.Create(&currencies[i]).Error; err != nil {
			t.Fatalf("failed to seed test currency %s: %v", currencies[i].Code, err)
		}
	}
}
