package backup

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"debtbook/internal/logger"
	"debtbook/internal/models"
	"debtbook/internal/seed"
	"debtbook/internal/store"
	"debtbook/internal/uuid"
)

// Policy selects how a snapshot is integrated with the live dataset.
type Policy string

const (
	// PolicyReplace wipes live state before loading the snapshot.
	PolicyReplace Policy = "replace"
	// PolicyMerge layers snapshot data onto live state, skipping or
	// renaming detected duplicates.
	PolicyMerge Policy = "merge"
)

// ValidPolicy reports whether p is a known reconciliation policy.
func ValidPolicy(p Policy) bool {
	return p == PolicyReplace || p == PolicyMerge
}

// duplicateNameMarker is appended to the name of a merged duplicate account
// when skip-duplicates is off, so the user can tell the imported copy apart.
const duplicateNameMarker = " (imported)"

// Options controls a reconciliation run.
type Options struct {
	Policy Policy
	// SkipDuplicates applies to the merge policy only: when set, duplicate
	// accounts map onto the pre-existing account and duplicate transactions
	// are dropped; when unset, duplicate accounts are imported under a new
	// id with a conflict marker in the name.
	SkipDuplicates bool
}

// Result reports aggregate counts for user-facing confirmation messaging.
// Skipped counts duplicates only; transactions dropped for an unresolvable
// account reference are reported separately.
type Result struct {
	AccountsAdded       int `json:"accounts_added"`
	AccountsSkipped     int `json:"accounts_skipped"`
	TransactionsAdded   int `json:"transactions_added"`
	TransactionsSkipped int `json:"transactions_skipped"`
	TransactionsDropped int `json:"transactions_dropped"`
}

// Reconciler integrates a parsed, validated snapshot with the live dataset.
// Its central invariant: after either policy, every persisted transaction's
// account reference resolves to a persisted account. The old-id to new-id
// mapping is built from completed account writes and applied to transactions
// before they are written, never after.
type Reconciler struct {
	store store.Store
	match MatchPolicy
	log   *zap.SugaredLogger
}

// NewReconciler creates a Reconciler over the given store using the given
// duplicate-match thresholds.
func NewReconciler(st store.Store, match MatchPolicy) *Reconciler {
	return &Reconciler{store: st, match: match, log: logger.Get()}
}

// Reconcile applies the snapshot under the chosen policy. Callers must have
// validated the snapshot first; the engine does not re-check and will persist
// what it is given. On a persistence error mid-run the counts accumulated so
// far are returned with the error; already-committed writes are not rolled
// back.
func (r *Reconciler) Reconcile(ctx context.Context, snap *models.BackupSnapshot, opts Options) (*Result, error) {
	switch opts.Policy {
	case PolicyReplace:
		return r.replace(ctx, snap)
	case PolicyMerge:
		return r.merge(ctx, snap, opts)
	default:
		return nil, fmt.Errorf("unknown reconciliation policy %q", opts.Policy)
	}
}

// replace wipes all live state and loads the snapshot. The wipe is
// currency-agnostic and removes custom currencies too, so built-ins are
// re-seeded and the snapshot's custom set restored explicitly before any
// accounts or transactions are written. Settings are overwritten as-is.
func (r *Reconciler) replace(ctx context.Context, snap *models.BackupSnapshot) (*Result, error) {
	result := &Result{}

	if err := r.store.ClearAllData(ctx); err != nil {
		return result, fmt.Errorf("wiping live data: %w", err)
	}

	builtins, err := seed.Currencies()
	if err != nil {
		return result, err
	}
	if err := r.store.SaveCurrencies(ctx, mergeCurrencies(builtins, snap.CustomCurrencies)); err != nil {
		return result, fmt.Errorf("restoring currencies: %w", err)
	}

	idMap := make(map[string]string, len(snap.Accounts))
	for _, account := range snap.Accounts {
		a := account
		sourceID := a.ID
		if err := r.store.SaveAccount(ctx, &a); err != nil {
			return result, fmt.Errorf("restoring account %q: %w", a.Name, err)
		}
		// The store may keep or reassign the id; map whatever it persisted.
		idMap[sourceID] = a.ID
		result.AccountsAdded++
	}

	if err := r.writeTransactions(ctx, snap.Transactions, idMap, nil, nil, false, result); err != nil {
		return result, err
	}

	settings := snap.Settings
	if err := r.store.SaveSettings(ctx, &settings); err != nil {
		return result, fmt.Errorf("restoring settings: %w", err)
	}

	if err := r.refreshAccountTotals(ctx); err != nil {
		return result, err
	}
	return result, nil
}

// merge layers the snapshot onto live state without wiping. Settings are left
// untouched.
func (r *Reconciler) merge(ctx context.Context, snap *models.BackupSnapshot, opts Options) (*Result, error) {
	result := &Result{}

	liveAccounts, err := r.store.Accounts(ctx)
	if err != nil {
		return result, fmt.Errorf("loading live accounts: %w", err)
	}
	liveTransactions, err := r.store.Transactions(ctx)
	if err != nil {
		return result, fmt.Errorf("loading live transactions: %w", err)
	}
	liveCurrencies, err := r.store.Currencies(ctx)
	if err != nil {
		return result, fmt.Errorf("loading live currencies: %w", err)
	}

	// Live account ids map to themselves so that a snapshot transaction
	// referencing an account that exists live (but not in the snapshot)
	// still resolves. Snapshot-owned mappings overwrite these below.
	idMap := make(map[string]string, len(liveAccounts)+len(snap.Accounts))
	liveAccountIDs := make(map[string]bool, len(liveAccounts))
	for _, a := range liveAccounts {
		idMap[a.ID] = a.ID
		liveAccountIDs[a.ID] = true
	}

	for _, account := range snap.Accounts {
		a := account
		sourceID := a.ID
		dup := r.match.FindDuplicateAccount(a, liveAccounts)
		switch {
		case dup == nil:
			if liveAccountIDs[a.ID] {
				// Same id, different account. Let the store mint a new one
				// instead of overwriting the live record.
				a.ID = ""
			}
			if err := r.store.SaveAccount(ctx, &a); err != nil {
				return result, fmt.Errorf("merging account %q: %w", a.Name, err)
			}
			idMap[sourceID] = a.ID
			result.AccountsAdded++
		case opts.SkipDuplicates:
			// Imported transactions attach to the pre-existing account.
			idMap[sourceID] = dup.ID
			result.AccountsSkipped++
		default:
			a.ID = uuid.New()
			a.Name += duplicateNameMarker
			if err := r.store.SaveAccount(ctx, &a); err != nil {
				return result, fmt.Errorf("merging account %q: %w", a.Name, err)
			}
			idMap[sourceID] = a.ID
			result.AccountsAdded++
		}
	}

	if err := r.store.SaveCurrencies(ctx, mergeCurrencies(liveCurrencies, snap.CustomCurrencies)); err != nil {
		return result, fmt.Errorf("merging currencies: %w", err)
	}

	var dedupAgainst []models.Transaction
	if opts.SkipDuplicates {
		dedupAgainst = liveTransactions
	}
	liveTransactionIDs := make(map[string]bool, len(liveTransactions))
	for _, t := range liveTransactions {
		liveTransactionIDs[t.ID] = true
	}
	if err := r.writeTransactions(ctx, snap.Transactions, idMap, liveTransactionIDs, dedupAgainst, opts.SkipDuplicates, result); err != nil {
		return result, err
	}

	if err := r.refreshAccountTotals(ctx); err != nil {
		return result, err
	}
	return result, nil
}

// writeTransactions remaps each transaction's account reference through idMap
// and persists it. The remap happens for every transaction, duplicate or not,
// because a duplicate check must see the final account reference and a later
// transaction may point at a skip-deduplicated account.
func (r *Reconciler) writeTransactions(
	ctx context.Context,
	transactions []models.Transaction,
	idMap map[string]string,
	takenIDs map[string]bool,
	dedupAgainst []models.Transaction,
	skipDuplicates bool,
	result *Result,
) error {
	for _, transaction := range transactions {
		t := transaction
		mapped, ok := idMap[t.AccountID]
		if !ok {
			r.log.Warnw("dropping transaction with unresolvable account reference",
				"transaction_id", t.ID,
				"account_id", t.AccountID,
			)
			result.TransactionsDropped++
			continue
		}
		t.AccountID = mapped

		if skipDuplicates && r.match.IsDuplicateTransaction(t, dedupAgainst) {
			result.TransactionsSkipped++
			continue
		}

		if takenIDs[t.ID] {
			// Same id as an unrelated live transaction; mint a new one.
			t.ID = ""
		}
		if err := r.store.SaveTransaction(ctx, &t); err != nil {
			return fmt.Errorf("restoring transaction %q: %w", t.Name, err)
		}
		result.TransactionsAdded++
	}
	return nil
}

// mergeCurrencies layers incoming custom currencies over base by code. A code
// collision with a built-in keeps the built-in definition; a collision with a
// custom entry is won by the incoming definition.
func mergeCurrencies(base []models.Currency, customs []models.Currency) []models.Currency {
	out := make([]models.Currency, len(base))
	copy(out, base)

	for _, c := range customs {
		incoming := c
		incoming.IsCustom = true
		if incoming.ID == "" {
			incoming.ID = uuid.New()
		}

		idx := -1
		for i := range out {
			if out[i].Code == incoming.Code {
				idx = i
				break
			}
		}
		switch {
		case idx == -1:
			out = append(out, incoming)
		case out[idx].IsCustom:
			out[idx] = incoming
		}
	}
	return out
}

// refreshAccountTotals recomputes the cached owed/owed-to-me sums on every
// account from the persisted transaction set.
func (r *Reconciler) refreshAccountTotals(ctx context.Context) error {
	accounts, err := r.store.Accounts(ctx)
	if err != nil {
		return fmt.Errorf("loading accounts for totals refresh: %w", err)
	}
	transactions, err := r.store.Transactions(ctx)
	if err != nil {
		return fmt.Errorf("loading transactions for totals refresh: %w", err)
	}

	byAccount := make(map[string][]models.Transaction, len(accounts))
	for _, t := range transactions {
		byAccount[t.AccountID] = append(byAccount[t.AccountID], t)
	}

	for i := range accounts {
		owed, owedToMe := models.TotalsByType(byAccount[accounts[i].ID])
		if accounts[i].TotalOwed == owed && accounts[i].TotalOwedToMe == owedToMe {
			continue
		}
		accounts[i].TotalOwed = owed
		accounts[i].TotalOwedToMe = owedToMe
		if err := r.store.SaveAccount(ctx, &accounts[i]); err != nil {
			return fmt.Errorf("refreshing totals for account %q: %w", accounts[i].Name, err)
		}
	}
	return nil
}
