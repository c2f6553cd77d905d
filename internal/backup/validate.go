package backup

import (
	"fmt"
	"math"

	"debtbook/internal/models"
)

// ValidationResult classifies snapshot problems as blocking errors and
// non-blocking warnings. Every violation found is reported, not just the
// first, so the user can fix the source file in one pass.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Validate checks structural completeness and semantic validity of a parsed
// snapshot. Errors block the import; warnings are surfaced for awareness.
func Validate(s *models.BackupSnapshot) ValidationResult {
	var errs []string
	var warnings []string

	if s.Version == "" {
		warnings = append(warnings, "backup has no version metadata")
	}
	if len(s.Accounts) == 0 {
		warnings = append(warnings, "backup contains no accounts")
	}

	for i, a := range s.Accounts {
		label := accountLabel(i, a)
		if a.ID == "" {
			errs = append(errs, fmt.Sprintf("%s: missing id", label))
		}
		if a.Name == "" {
			errs = append(errs, fmt.Sprintf("%s: missing name", label))
		}
		switch {
		case a.Currency.Code == "":
			errs = append(errs, fmt.Sprintf("%s: missing currency code", label))
		case !models.ValidCurrencyCode(a.Currency.Code):
			errs = append(errs, fmt.Sprintf("%s: malformed currency code %q", label, a.Currency.Code))
		}
	}

	for i, t := range s.Transactions {
		label := transactionLabel(i, t)
		if t.ID == "" {
			errs = append(errs, fmt.Sprintf("%s: missing id", label))
		}
		if t.AccountID == "" {
			errs = append(errs, fmt.Sprintf("%s: missing account reference", label))
		}
		if !models.ValidTransactionType(t.Type) {
			errs = append(errs, fmt.Sprintf("%s: invalid type %q (must be debt or credit)", label, t.Type))
		}
		if math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) {
			errs = append(errs, fmt.Sprintf("%s: amount is not a finite number", label))
		} else if t.Amount <= 0 {
			errs = append(errs, fmt.Sprintf("%s: amount must be positive, got %v", label, t.Amount))
		}
	}

	if s.Settings.DefaultCurrency.Code == "" {
		errs = append(errs, "settings: missing default currency")
	}
	if s.Settings.Language == "" {
		warnings = append(warnings, "settings: missing language preference")
	}

	return ValidationResult{
		IsValid:  len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}
}

func accountLabel(i int, a models.Account) string {
	if a.Name != "" {
		return fmt.Sprintf("account %q", a.Name)
	}
	return fmt.Sprintf("account #%d", i+1)
}

func transactionLabel(i int, t models.Transaction) string {
	if t.Name != "" {
		return fmt.Sprintf("transaction %q", t.Name)
	}
	return fmt.Sprintf("transaction #%d", i+1)
}
