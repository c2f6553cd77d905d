package models

import (
	"math"
	"regexp"
)

// BaseCurrencyCode is the fixed base unit all exchange rates are relative to.
const BaseCurrencyCode = "USD"

var currencyCodeRegex = regexp.MustCompile(`^[A-Z]{3}$`)

// Currency represents a currency definition. Built-in currencies are
// immutable seed data; custom currencies are user-created and editable.
// Currency is also embedded (with a column prefix) inside accounts and
// transactions to pin the currency a record was created with.
type Currency struct {
	ID       string  `gorm:"primaryKey" json:"id"`
	Code     string  `gorm:"size:3" json:"code"`
	Name     string  `json:"name"`
	Symbol   string  `json:"symbol"`
	Rate     float64 `json:"rate"` // relative to BaseCurrencyCode
	IsCustom bool    `json:"is_custom"`
}

// ValidCurrencyCode reports whether code is a well-formed three-letter code.
func ValidCurrencyCode(code string) bool {
	return currencyCodeRegex.MatchString(code)
}

// ValidRate reports whether rate is positive and finite.
func ValidRate(rate float64) bool {
	return rate > 0 && !math.IsInf(rate, 0) && !math.IsNaN(rate)
}
