package backup

import (
	"math"
	"strings"
	"time"

	"debtbook/internal/models"
)

// MatchPolicy holds the thresholds for approximate duplicate matching. Exact
// ID matching is useless across re-imports because IDs are regenerated, so
// candidates are matched on user-visible, semantically stable fields instead.
// The heuristic can both under- and over-match; the thresholds are policy
// knobs, not a correctness guarantee.
type MatchPolicy struct {
	// AmountTolerance absorbs floating-point and rounding noise between two
	// amounts that describe the same payment.
	AmountTolerance float64
	// DateWindow is how far apart two dates may be while still describing
	// the same real-world event.
	DateWindow time.Duration
}

// DefaultMatchPolicy returns the stock thresholds: one cent of amount
// tolerance and a 24 hour date window.
func DefaultMatchPolicy() MatchPolicy {
	return MatchPolicy{
		AmountTolerance: 0.01,
		DateWindow:      24 * time.Hour,
	}
}

// AccountsMatch reports whether two accounts are probable duplicates:
// case-insensitive name equality and exact currency code equality.
func (p MatchPolicy) AccountsMatch(a, b models.Account) bool {
	return strings.EqualFold(a.Name, b.Name) && a.Currency.Code == b.Currency.Code
}

// FindDuplicateAccount returns the first probable duplicate of candidate in
// existing, or nil when there is none.
func (p MatchPolicy) FindDuplicateAccount(candidate models.Account, existing []models.Account) *models.Account {
	for i := range existing {
		if p.AccountsMatch(candidate, existing[i]) {
			return &existing[i]
		}
	}
	return nil
}

// IsDuplicateAccount reports whether candidate has a probable duplicate in existing.
func (p MatchPolicy) IsDuplicateAccount(candidate models.Account, existing []models.Account) bool {
	return p.FindDuplicateAccount(candidate, existing) != nil
}

// TransactionsMatch reports whether two transactions probably describe the
// same real-world event: same counterparty (case-insensitive, trimmed), same
// type, amounts within tolerance, dates within the window.
func (p MatchPolicy) TransactionsMatch(a, b models.Transaction) bool {
	if !strings.EqualFold(strings.TrimSpace(a.Name), strings.TrimSpace(b.Name)) {
		return false
	}
	if a.Type != b.Type {
		return false
	}
	if math.Abs(a.Amount-b.Amount) >= p.AmountTolerance {
		return false
	}
	gap := a.Date.Sub(b.Date)
	if gap < 0 {
		gap = -gap
	}
	return gap < p.DateWindow
}

// IsDuplicateTransaction reports whether candidate has a probable duplicate in existing.
func (p MatchPolicy) IsDuplicateTransaction(candidate models.Transaction, existing []models.Transaction) bool {
	for i := range existing {
		if p.TransactionsMatch(candidate, existing[i]) {
			return true
		}
	}
	return false
}
