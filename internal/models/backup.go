package models

import "time"

// BackupSnapshot is the full exportable/importable state bundle. It is a
// transport envelope only: constructed at export time from live state, or at
// import time by parsing a serialized file, and never itself persisted.
type BackupSnapshot struct {
	Version          string        `json:"version"`
	ExportDate       time.Time     `json:"export_date"`
	Accounts         []Account     `json:"accounts"`
	Transactions     []Transaction `json:"transactions"`
	Settings         AppSettings   `json:"settings"`
	CustomCurrencies []Currency    `json:"custom_currencies"`
}

// DateRange is the inclusive [From, To] span of transaction dates.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// BackupStats is a derived, read-only summary of a snapshot or of live state,
// shown to the user before import (preview) and after (confirmation).
type BackupStats struct {
	TotalAccounts         int        `json:"total_accounts"`
	TotalTransactions     int        `json:"total_transactions"`
	TotalCustomCurrencies int        `json:"total_custom_currencies"`
	DateRange             *DateRange `json:"date_range"` // nil when there are no transactions
}
