package models

// Account groups debts and credits against a set of counterparties,
// for example "Work" or "Family".
type Account struct {
	Base
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`

	// TotalOwed and TotalOwedToMe are caches, not authoritative values.
	// They are recomputed as the sum of the account's transactions grouped
	// by type whenever a transaction is added, edited, or removed.
	TotalOwed     float64 `json:"total_owed"`       // sum of debt transactions
	TotalOwedToMe float64 `json:"total_owed_to_me"` // sum of credit transactions

	Currency Currency `gorm:"embedded;embeddedPrefix:currency_" json:"currency"`
}
