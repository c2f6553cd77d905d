package backup

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"debtbook/internal/models"
	"debtbook/internal/seed"
	"debtbook/internal/store"
	"debtbook/internal/testutil"
	"debtbook/internal/uuid"
)

func newReconcilerTest(t *testing.T) (*Reconciler, store.Store, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })
	st := store.NewGorm(db)
	return NewReconciler(st, DefaultMatchPolicy()), st, db
}

func restoreSnapshot() *models.BackupSnapshot {
	usd := models.Currency{ID: "cur-usd", Code: "USD", Name: "US Dollar", Symbol: "$", Rate: 1}
	return &models.BackupSnapshot{
		Version: FormatVersion,
		Accounts: []models.Account{
			{Base: models.Base{ID: "acc1"}, Name: "Groceries", Currency: usd},
		},
		Transactions: []models.Transaction{
			{
				Base:      models.Base{ID: "tx1"},
				AccountID: "acc1",
				Type:      models.TransactionTypeDebt,
				Amount:    50,
				Currency:  usd,
				Name:      "John",
				Date:      time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			},
		},
		Settings: models.AppSettings{DefaultCurrency: usd, Language: "en", Theme: models.ThemeSystem},
	}
}

// idReassigningStore simulates a persistence layer that assigns its own
// account ids instead of keeping the snapshot's.
type idReassigningStore struct {
	store.Store
}

func (s idReassigningStore) SaveAccount(ctx context.Context, a *models.Account) error {
	a.ID = uuid.New()
	return s.Store.SaveAccount(ctx, a)
}

func TestReconcileReplace(t *testing.T) {
	ctx := context.Background()

	t.Run("loads_snapshot_into_empty_state", func(t *testing.T) {
		r, st, _ := newReconcilerTest(t)

		result, err := r.Reconcile(ctx, restoreSnapshot(), Options{Policy: PolicyReplace})
		testutil.AssertNoError(t, err)

		if result.AccountsAdded != 1 || result.TransactionsAdded != 1 {
			t.Errorf("wrong counts: %+v", result)
		}

		accounts, err := st.Accounts(ctx)
		testutil.AssertNoError(t, err)
		transactions, err := st.Transactions(ctx)
		testutil.AssertNoError(t, err)

		if len(accounts) != 1 || len(transactions) != 1 {
			t.Fatalf("expected 1 account and 1 transaction, got %d/%d", len(accounts), len(transactions))
		}
		if transactions[0].AccountID != accounts[0].ID {
			t.Errorf("transaction references %q, account is %q", transactions[0].AccountID, accounts[0].ID)
		}

		settings, err := st.Settings(ctx)
		testutil.AssertNoError(t, err)
		if settings.Language != "en" {
			t.Errorf("settings not restored: %+v", settings)
		}
	})

	t.Run("remaps_foreign_keys_when_store_reassigns_ids", func(t *testing.T) {
		r, st, _ := newReconcilerTest(t)
		r = NewReconciler(idReassigningStore{st}, DefaultMatchPolicy())

		_, err := r.Reconcile(ctx, restoreSnapshot(), Options{Policy: PolicyReplace})
		testutil.AssertNoError(t, err)

		accounts, err := st.Accounts(ctx)
		testutil.AssertNoError(t, err)
		transactions, err := st.Transactions(ctx)
		testutil.AssertNoError(t, err)

		if accounts[0].ID == "acc1" {
			t.Fatal("store was expected to reassign the account id")
		}
		if transactions[0].AccountID != accounts[0].ID {
			t.Errorf("transaction not remapped: references %q, account is %q", transactions[0].AccountID, accounts[0].ID)
		}
	})

	t.Run("wipes_live_state_and_restores_custom_currencies", func(t *testing.T) {
		r, st, db := newReconcilerTest(t)

		testutil.CreateTestAccountWithName(t, db, "Old Account", "EUR")
		testutil.SeedTestCurrencies(t, db, testutil.TestCustomCurrency("OLD", 2))

		snap := restoreSnapshot()
		snap.CustomCurrencies = []models.Currency{{ID: "cur-gld", Code: "GLD", Name: "Gold gram", Symbol: "g", Rate: 0.015, IsCustom: true}}

		_, err := r.Reconcile(ctx, snap, Options{Policy: PolicyReplace})
		testutil.AssertNoError(t, err)

		accounts, err := st.Accounts(ctx)
		testutil.AssertNoError(t, err)
		for _, a := range accounts {
			if a.Name == "Old Account" {
				t.Error("live account survived the wipe")
			}
		}

		currencies, err := st.Currencies(ctx)
		testutil.AssertNoError(t, err)
		byCode := make(map[string]models.Currency)
		for _, c := range currencies {
			byCode[c.Code] = c
		}
		if _, ok := byCode["OLD"]; ok {
			t.Error("pre-existing custom currency survived the wipe")
		}
		if c, ok := byCode["GLD"]; !ok || !c.IsCustom {
			t.Errorf("snapshot custom currency missing: %+v", byCode)
		}
		if _, ok := byCode[models.BaseCurrencyCode]; !ok {
			t.Error("built-in currencies not re-seeded")
		}
		if len(currencies) != len(seed.MustCurrencies())+1 {
			t.Errorf("unexpected currency count %d", len(currencies))
		}
	})

	t.Run("overwrites_settings", func(t *testing.T) {
		r, st, db := newReconcilerTest(t)
		testutil.CreateTestSettings(t, db, "USD")

		snap := restoreSnapshot()
		snap.Settings.Language = "de"
		snap.Settings.Theme = models.ThemeDark

		_, err := r.Reconcile(ctx, snap, Options{Policy: PolicyReplace})
		testutil.AssertNoError(t, err)

		settings, err := st.Settings(ctx)
		testutil.AssertNoError(t, err)
		if settings.Language != "de" || settings.Theme != models.ThemeDark {
			t.Errorf("settings not overwritten: %+v", settings)
		}
	})

	t.Run("recomputes_account_totals", func(t *testing.T) {
		r, st, _ := newReconcilerTest(t)

		snap := restoreSnapshot()
		snap.Transactions = append(snap.Transactions, models.Transaction{
			Base:      models.Base{ID: "tx2"},
			AccountID: "acc1",
			Type:      models.TransactionTypeCredit,
			Amount:    20,
			Currency:  snap.Accounts[0].Currency,
			Name:      "Maria",
			Date:      time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC),
		})

		_, err := r.Reconcile(ctx, snap, Options{Policy: PolicyReplace})
		testutil.AssertNoError(t, err)

		accounts, err := st.Accounts(ctx)
		testutil.AssertNoError(t, err)
		if accounts[0].TotalOwed != 50 || accounts[0].TotalOwedToMe != 20 {
			t.Errorf("totals not recomputed: owed=%v owedToMe=%v", accounts[0].TotalOwed, accounts[0].TotalOwedToMe)
		}
	})

	t.Run("drops_transactions_with_unresolvable_references", func(t *testing.T) {
		r, st, _ := newReconcilerTest(t)

		snap := restoreSnapshot()
		snap.Transactions[0].AccountID = "no-such-account"

		result, err := r.Reconcile(ctx, snap, Options{Policy: PolicyReplace})
		testutil.AssertNoError(t, err)

		if result.TransactionsDropped != 1 || result.TransactionsAdded != 0 {
			t.Errorf("wrong counts: %+v", result)
		}
		if result.TransactionsSkipped != 0 {
			t.Errorf("dangling reference must not count as a duplicate skip: %+v", result)
		}
		transactions, err := st.Transactions(ctx)
		testutil.AssertNoError(t, err)
		if len(transactions) != 0 {
			t.Errorf("orphan transaction was persisted")
		}
	})
}

func TestReconcileMerge(t *testing.T) {
	ctx := context.Background()

	t.Run("skip_duplicates_attaches_to_existing_account", func(t *testing.T) {
		r, st, db := newReconcilerTest(t)
		live := testutil.CreateTestAccountWithName(t, db, "Groceries", "USD")

		snap := restoreSnapshot()
		snap.Accounts[0].Name = "groceries" // case-insensitive match

		result, err := r.Reconcile(ctx, snap, Options{Policy: PolicyMerge, SkipDuplicates: true})
		testutil.AssertNoError(t, err)

		if result.AccountsSkipped != 1 || result.AccountsAdded != 0 {
			t.Errorf("wrong account counts: %+v", result)
		}

		accounts, err := st.Accounts(ctx)
		testutil.AssertNoError(t, err)
		if len(accounts) != 1 {
			t.Fatalf("expected 1 account, got %d", len(accounts))
		}

		transactions, err := st.Transactions(ctx)
		testutil.AssertNoError(t, err)
		if len(transactions) != 1 {
			t.Fatalf("expected 1 transaction, got %d", len(transactions))
		}
		if transactions[0].AccountID != live.ID {
			t.Errorf("transaction attached to %q, want pre-existing %q", transactions[0].AccountID, live.ID)
		}
	})

	t.Run("renames_duplicates_when_not_skipping", func(t *testing.T) {
		r, st, db := newReconcilerTest(t)
		live := testutil.CreateTestAccountWithName(t, db, "Groceries", "USD")

		result, err := r.Reconcile(ctx, restoreSnapshot(), Options{Policy: PolicyMerge, SkipDuplicates: false})
		testutil.AssertNoError(t, err)

		if result.AccountsAdded != 1 {
			t.Errorf("wrong counts: %+v", result)
		}

		accounts, err := st.Accounts(ctx)
		testutil.AssertNoError(t, err)
		if len(accounts) != 2 {
			t.Fatalf("expected 2 accounts, got %d", len(accounts))
		}

		var imported *models.Account
		for i := range accounts {
			if accounts[i].ID != live.ID {
				imported = &accounts[i]
			}
		}
		if imported == nil {
			t.Fatal("imported account not found")
		}
		if imported.Name != "Groceries (imported)" {
			t.Errorf("expected conflict marker in name, got %q", imported.Name)
		}

		transactions, err := st.Transactions(ctx)
		testutil.AssertNoError(t, err)
		if transactions[0].AccountID != imported.ID {
			t.Errorf("transaction attached to %q, want imported copy %q", transactions[0].AccountID, imported.ID)
		}
	})

	t.Run("preserves_live_settings", func(t *testing.T) {
		r, st, db := newReconcilerTest(t)
		testutil.CreateTestSettings(t, db, "USD")

		snap := restoreSnapshot()
		snap.Settings.Language = "de"

		_, err := r.Reconcile(ctx, snap, Options{Policy: PolicyMerge, SkipDuplicates: true})
		testutil.AssertNoError(t, err)

		settings, err := st.Settings(ctx)
		testutil.AssertNoError(t, err)
		if settings.Language != "en" {
			t.Errorf("merge must not overwrite settings, got language %q", settings.Language)
		}
	})

	t.Run("skips_duplicate_transactions", func(t *testing.T) {
		r, st, db := newReconcilerTest(t)
		live := testutil.CreateTestAccountWithName(t, db, "Groceries", "USD")
		liveTx := &models.Transaction{
			AccountID: live.ID,
			Type:      models.TransactionTypeDebt,
			Amount:    50,
			Currency:  live.Currency,
			Name:      "John",
			Date:      time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		}
		if err := db.Create(liveTx).Error; err != nil {
			t.Fatalf("failed to create live transaction: %v", err)
		}

		snap := restoreSnapshot()
		snap.Transactions[0].Amount = 50.004
		snap.Transactions[0].Date = liveTx.Date.Add(3 * time.Hour)

		result, err := r.Reconcile(ctx, snap, Options{Policy: PolicyMerge, SkipDuplicates: true})
		testutil.AssertNoError(t, err)

		if result.TransactionsSkipped != 1 || result.TransactionsAdded != 0 {
			t.Errorf("wrong counts: %+v", result)
		}
		transactions, err := st.Transactions(ctx)
		testutil.AssertNoError(t, err)
		if len(transactions) != 1 {
			t.Errorf("expected only the live transaction, got %d", len(transactions))
		}
	})

	t.Run("imports_duplicate_transactions_when_not_skipping", func(t *testing.T) {
		r, st, db := newReconcilerTest(t)
		live := testutil.CreateTestAccountWithName(t, db, "Groceries", "USD")
		liveTx := &models.Transaction{
			AccountID: live.ID,
			Type:      models.TransactionTypeDebt,
			Amount:    50,
			Currency:  live.Currency,
			Name:      "John",
			Date:      time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		}
		if err := db.Create(liveTx).Error; err != nil {
			t.Fatalf("failed to create live transaction: %v", err)
		}

		result, err := r.Reconcile(ctx, restoreSnapshot(), Options{Policy: PolicyMerge, SkipDuplicates: false})
		testutil.AssertNoError(t, err)

		if result.TransactionsAdded != 1 {
			t.Errorf("wrong counts: %+v", result)
		}
		transactions, err := st.Transactions(ctx)
		testutil.AssertNoError(t, err)
		if len(transactions) != 2 {
			t.Errorf("expected 2 transactions, got %d", len(transactions))
		}
	})

	t.Run("merges_custom_currencies_by_code", func(t *testing.T) {
		r, st, db := newReconcilerTest(t)
		testutil.SeedTestCurrencies(t, db,
			testutil.TestCurrency("USD"),
			testutil.TestCustomCurrency("ABC", 2),
		)

		snap := restoreSnapshot()
		snap.Accounts = nil
		snap.Transactions = nil
		snap.CustomCurrencies = []models.Currency{
			{ID: "c1", Code: "ABC", Name: "Updated", Symbol: "a", Rate: 3, IsCustom: true},
			{ID: "c2", Code: "USD", Name: "Fake Dollar", Symbol: "$", Rate: 9, IsCustom: true},
			{ID: "c3", Code: "XYZ", Name: "New", Symbol: "x", Rate: 4, IsCustom: true},
		}

		_, err := r.Reconcile(ctx, snap, Options{Policy: PolicyMerge, SkipDuplicates: true})
		testutil.AssertNoError(t, err)

		currencies, err := st.Currencies(ctx)
		testutil.AssertNoError(t, err)
		byCode := make(map[string]models.Currency)
		for _, c := range currencies {
			byCode[c.Code] = c
		}

		if byCode["ABC"].Rate != 3 {
			t.Errorf("snapshot custom currency should win on code collision: %+v", byCode["ABC"])
		}
		if byCode["USD"].IsCustom {
			t.Error("built-in definition must never be overwritten")
		}
		if byCode["XYZ"].Rate != 4 {
			t.Errorf("new custom currency not added: %+v", byCode["XYZ"])
		}
	})

	t.Run("resolves_references_to_live_accounts_outside_snapshot", func(t *testing.T) {
		r, st, db := newReconcilerTest(t)
		live := testutil.CreateTestAccountWithName(t, db, "Rent", "USD")

		snap := restoreSnapshot()
		snap.Accounts = nil
		snap.Transactions[0].AccountID = live.ID

		result, err := r.Reconcile(ctx, snap, Options{Policy: PolicyMerge, SkipDuplicates: true})
		testutil.AssertNoError(t, err)

		if result.TransactionsAdded != 1 {
			t.Errorf("wrong counts: %+v", result)
		}
		transactions, err := st.Transactions(ctx)
		testutil.AssertNoError(t, err)
		if transactions[0].AccountID != live.ID {
			t.Errorf("transaction attached to %q, want %q", transactions[0].AccountID, live.ID)
		}
	})
}

func TestReconcileUnknownPolicy(t *testing.T) {
	r, _, _ := newReconcilerTest(t)

	if _, err := r.Reconcile(context.Background(), restoreSnapshot(), Options{Policy: "upsert"}); err == nil {
		t.Error("expected error for unknown policy")
	}
}
