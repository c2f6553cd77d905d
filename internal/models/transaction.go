package models

import "time"

// TransactionType represents the direction of a transaction
type TransactionType string

const (
	// TransactionTypeDebt means the user owes the counterparty.
	TransactionTypeDebt TransactionType = "debt"
	// TransactionTypeCredit means the counterparty owes the user.
	TransactionTypeCredit TransactionType = "credit"
)

// ValidTransactionType reports whether t is one of the allowed types.
func ValidTransactionType(t TransactionType) bool {
	return t == TransactionTypeDebt || t == TransactionTypeCredit
}

// Transaction represents a single debt or credit against a counterparty.
// AccountID must reference an existing account at all times after any
// reconciliation operation.
type Transaction struct {
	Base
	AccountID   string          `gorm:"not null;index" json:"account_id"`
	Type        TransactionType `gorm:"not null" json:"type"`
	Amount      float64         `gorm:"not null" json:"amount"`
	Currency    Currency        `gorm:"embedded;embeddedPrefix:currency_" json:"currency"`
	Name        string          `gorm:"not null" json:"name"` // counterparty
	Description string          `json:"description"`
	Date        time.Time       `gorm:"not null" json:"date"`
}

// TotalsByType sums transaction amounts grouped by type. Used to recompute
// the cached totals on an account.
func TotalsByType(transactions []Transaction) (owed, owedToMe float64) {
	for _, t := range transactions {
		switch t.Type {
		case TransactionTypeDebt:
			owed += t.Amount
		case TransactionTypeCredit:
			owedToMe += t.Amount
		}
	}
	return owed, owedToMe
}
