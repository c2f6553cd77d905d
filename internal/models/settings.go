package models

import "time"

// Theme values accepted by the app shell.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// ValidTheme reports whether t is one of the accepted theme values.
func ValidTheme(t string) bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeSystem
}

// AppSettings is the per-installation settings singleton. Exactly one row
// exists, keyed by SettingsID.
type AppSettings struct {
	ID              uint      `gorm:"primaryKey" json:"-"`
	DefaultCurrency Currency  `gorm:"embedded;embeddedPrefix:default_currency_" json:"default_currency"`
	Language        string    `json:"language"`
	Theme           string    `json:"theme"`
	AutoUpdateRates bool      `json:"auto_update_rates"`
	PINHash         string    `json:"-"` // bcrypt hash of the app lock PIN, empty when no lock is set
	UpdatedAt       time.Time `json:"updated_at"`
}

// SettingsID is the fixed primary key of the settings singleton row.
const SettingsID uint = 1
