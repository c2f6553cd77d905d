package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"debtbook/internal/backup"
	"debtbook/internal/models"
	"debtbook/internal/seed"
	"debtbook/internal/store"
	"debtbook/internal/testutil"
)

func newBackupTestService(t *testing.T) (store.Store, BackupServicer) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })
	testutil.SeedTestCurrencies(t, db, seed.MustCurrencies()...)

	st := store.NewGorm(db)
	return st, NewBackupService(st, backup.DefaultMatchPolicy())
}

func TestBackupService_ExportBackup(t *testing.T) {
	st, svc := newBackupTestService(t)
	ctx := context.Background()

	accounts := NewAccountService(st)
	transactions := NewTransactionService(st, accounts)

	account, err := accounts.CreateAccount(ctx, "Alice", "", "USD")
	testutil.AssertNoError(t, err)
	_, err = transactions.CreateTransaction(ctx, account.ID, models.TransactionTypeDebt, 42, "Alice", "", time.Now())
	testutil.AssertNoError(t, err)

	artifact, err := svc.ExportBackup(ctx)
	testutil.AssertNoError(t, err)

	if !strings.HasPrefix(artifact.Filename, "debtbook-backup-") || !strings.HasSuffix(artifact.Filename, ".txt") {
		t.Errorf("unexpected export filename %q", artifact.Filename)
	}
	if strings.Contains(artifact.Filename, ":") {
		t.Errorf("filename must not contain colons: %q", artifact.Filename)
	}

	snapshot, err := svc.ParseBackup(artifact.Content)
	testutil.AssertNoError(t, err)
	if len(snapshot.Accounts) != 1 || len(snapshot.Transactions) != 1 {
		t.Errorf("expected 1 account and 1 transaction in export, got %d/%d",
			len(snapshot.Accounts), len(snapshot.Transactions))
	}
	if snapshot.Settings.PINHash != "" {
		t.Error("exported settings must not carry the PIN hash")
	}
}

func TestBackupService_ImportBackup(t *testing.T) {
	st, svc := newBackupTestService(t)
	ctx := context.Background()

	accounts := NewAccountService(st)
	transactions := NewTransactionService(st, accounts)

	account, err := accounts.CreateAccount(ctx, "Alice", "", "USD")
	testutil.AssertNoError(t, err)
	_, err = transactions.CreateTransaction(ctx, account.ID, models.TransactionTypeDebt, 42, "Alice", "", time.Now())
	testutil.AssertNoError(t, err)

	artifact, err := svc.ExportBackup(ctx)
	testutil.AssertNoError(t, err)

	t.Run("replace restores exported state", func(t *testing.T) {
		result, validation, err := svc.ImportBackup(ctx, artifact.Content, backup.Options{Policy: backup.PolicyReplace})
		testutil.AssertNoError(t, err)
		if !validation.IsValid {
			t.Fatalf("expected valid backup, got errors: %v", validation.Errors)
		}
		if result.AccountsAdded != 1 || result.TransactionsAdded != 1 {
			t.Errorf("expected 1 account and 1 transaction restored, got %+v", result)
		}
	})

	t.Run("merge with duplicate skipping adds nothing", func(t *testing.T) {
		result, _, err := svc.ImportBackup(ctx, artifact.Content, backup.Options{
			Policy:         backup.PolicyMerge,
			SkipDuplicates: true,
		})
		testutil.AssertNoError(t, err)
		if result.AccountsAdded != 0 || result.AccountsSkipped != 1 {
			t.Errorf("expected duplicate account skipped, got %+v", result)
		}
		if result.TransactionsAdded != 0 {
			t.Errorf("expected duplicate transactions skipped, got %+v", result)
		}
	})

	t.Run("garbage input fails to parse", func(t *testing.T) {
		_, _, err := svc.ImportBackup(ctx, "definitely not a backup", backup.Options{Policy: backup.PolicyReplace})
		testutil.AssertAppError(t, err, "BACKUP_PARSE_FAILED")
	})

	t.Run("invalid snapshot aborts before mutation", func(t *testing.T) {
		before, err := st.Accounts(ctx)
		testutil.AssertNoError(t, err)

		// An account with no name fails validation.
		bad := backup.Serialize(&models.BackupSnapshot{
			Version:    backup.FormatVersion,
			ExportDate: time.Now().UTC(),
			Accounts: []models.Account{{
				Base:     models.Base{ID: "acc-1"},
				Currency: testutil.TestCurrency("USD"),
			}},
			Settings: models.AppSettings{DefaultCurrency: testutil.TestCurrency("USD")},
		})

		_, validation, err := svc.ImportBackup(ctx, bad, backup.Options{Policy: backup.PolicyReplace})
		testutil.AssertAppError(t, err, "BACKUP_INVALID")
		if len(validation.Errors) == 0 {
			t.Error("expected validation errors to be reported")
		}

		after, err := st.Accounts(ctx)
		testutil.AssertNoError(t, err)
		if len(after) != len(before) {
			t.Errorf("expected no mutation on invalid import, had %d accounts, now %d", len(before), len(after))
		}
	})

	t.Run("unknown policy is rejected", func(t *testing.T) {
		_, _, err := svc.ImportBackup(ctx, artifact.Content, backup.Options{Policy: backup.Policy("upsert")})
		testutil.AssertAppError(t, err, "INVALID_POLICY")
	})
}

// failingSettingsStore fails every settings write, leaving earlier account
// and transaction writes committed.
type failingSettingsStore struct {
	store.Store
}

func (f *failingSettingsStore) SaveSettings(ctx context.Context, settings *models.AppSettings) error {
	return errors.New("disk full")
}

func TestBackupService_ReconcilePartialFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })
	testutil.SeedTestCurrencies(t, db, seed.MustCurrencies()...)

	svc := NewBackupService(&failingSettingsStore{Store: store.NewGorm(db)}, backup.DefaultMatchPolicy())
	ctx := context.Background()

	usd := testutil.TestCurrency("USD")
	snapshot := &models.BackupSnapshot{
		Version:    backup.FormatVersion,
		ExportDate: time.Now().UTC(),
		Accounts: []models.Account{{
			Base:     models.Base{ID: "acc-1"},
			Name:     "Alice",
			Currency: usd,
		}},
		Transactions: []models.Transaction{{
			Base:      models.Base{ID: "tx-1"},
			AccountID: "acc-1",
			Type:      models.TransactionTypeDebt,
			Amount:    42,
			Currency:  usd,
			Name:      "Alice",
			Date:      time.Now().UTC(),
		}},
		Settings: models.AppSettings{DefaultCurrency: usd},
	}

	result, err := svc.Reconcile(ctx, snapshot, backup.Options{Policy: backup.PolicyReplace})
	testutil.AssertAppError(t, err, "INTERNAL_ERROR")
	if result == nil {
		t.Fatal("expected partial counts alongside the error")
	}
	// The replace run writes accounts and transactions before settings, so
	// those counts must survive the failure.
	if result.AccountsAdded != 1 || result.TransactionsAdded != 1 {
		t.Errorf("expected partial counts for committed writes, got %+v", result)
	}
}

func TestBackupService_Stats(t *testing.T) {
	st, svc := newBackupTestService(t)
	ctx := context.Background()

	t.Run("live stats on empty database", func(t *testing.T) {
		stats, err := svc.GetLiveStats(ctx)
		testutil.AssertNoError(t, err)
		if stats.TotalTransactions != 0 {
			t.Errorf("expected 0 transactions, got %d", stats.TotalTransactions)
		}
		if stats.DateRange != nil {
			t.Error("expected nil date range with no transactions")
		}
	})

	t.Run("live stats with data", func(t *testing.T) {
		accounts := NewAccountService(st)
		transactions := NewTransactionService(st, accounts)

		account, err := accounts.CreateAccount(ctx, "Alice", "", "USD")
		testutil.AssertNoError(t, err)
		_, err = transactions.CreateTransaction(ctx, account.ID, models.TransactionTypeDebt, 42, "Alice", "", time.Now())
		testutil.AssertNoError(t, err)

		stats, err := svc.GetLiveStats(ctx)
		testutil.AssertNoError(t, err)
		if stats.TotalAccounts != 1 || stats.TotalTransactions != 1 {
			t.Errorf("expected 1 account and 1 transaction, got %+v", stats)
		}
		if stats.DateRange == nil {
			t.Error("expected a date range once transactions exist")
		}
	})
}
