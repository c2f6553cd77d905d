package spreadsheet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"debtbook/internal/backup"
	"debtbook/internal/models"
)

func buildWorkbook(t *testing.T, sheets map[string][][]string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for name, rows := range sheets {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	require.NoError(t, f.DeleteSheet("Sheet1"))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestParseWorkbook(t *testing.T) {
	buf := buildWorkbook(t, map[string][][]string{
		SheetAccounts: {
			{"id", "name", "description", "currency_code", "currency_symbol", "currency_rate", "total_owed", "total_owed_to_me"},
			{"acc-1", "Alice", "college friend", "USD", "$", "1", "120.5", "0"},
			{"", "No ID", "dropped", "USD", "$", "1", "0", "0"},
		},
		SheetTransactions: {
			{"id", "account_id", "type", "amount", "name", "description", "date", "currency_code", "currency_symbol", "currency_rate"},
			{"tx-1", "acc-1", "debt", "120.5", "Alice", "lunch", "2024-03-01T12:00:00Z", "USD", "$", "1"},
			{"tx-2", "acc-1", "credit", "30", "Alice", "", "2024-03-05", "USD", "$", "1"},
			{"tx-3", "acc-1", "debt", "10", "Alice", "", "not a date", "USD", "$", "1"},
		},
		SheetCurrencies: {
			{"id", "code", "name", "symbol", "rate"},
			{"cur-1", "btc", "Bitcoin", "₿", "0.000015"},
		},
		SheetSettings: {
			{"default_currency_code", "usd"},
			{"language", "en"},
			{"theme", "dark"},
			{"auto_update_rates", "true"},
		},
	})

	snap, err := ParseWorkbook(buf)
	require.NoError(t, err)

	require.Len(t, snap.Accounts, 1, "row without id must be dropped")
	assert.Equal(t, "acc-1", snap.Accounts[0].ID)
	assert.Equal(t, "Alice", snap.Accounts[0].Name)
	assert.Equal(t, 120.5, snap.Accounts[0].TotalOwed)
	assert.Equal(t, "USD", snap.Accounts[0].Currency.Code)

	require.Len(t, snap.Transactions, 2, "row with bad date must be dropped")
	assert.Equal(t, models.TransactionTypeDebt, snap.Transactions[0].Type)
	assert.Equal(t, 2024, snap.Transactions[1].Date.Year())

	require.Len(t, snap.CustomCurrencies, 1)
	assert.Equal(t, "BTC", snap.CustomCurrencies[0].Code, "code must be upper-cased")
	assert.True(t, snap.CustomCurrencies[0].IsCustom)

	assert.Equal(t, "USD", snap.Settings.DefaultCurrency.Code)
	assert.Equal(t, "dark", snap.Settings.Theme)
	assert.True(t, snap.Settings.AutoUpdateRates)
	assert.Equal(t, backup.FormatVersion, snap.Version)
}

func TestParseWorkbook_MissingSheets(t *testing.T) {
	t.Run("accounts sheet required", func(t *testing.T) {
		buf := buildWorkbook(t, map[string][][]string{
			SheetSettings: {{"language", "en"}},
		})
		_, err := ParseWorkbook(buf)
		assert.Error(t, err)
	})

	t.Run("other sheets optional", func(t *testing.T) {
		buf := buildWorkbook(t, map[string][][]string{
			SheetAccounts: {
				{"id", "name", "currency_code"},
				{"acc-1", "Alice", "USD"},
			},
		})
		snap, err := ParseWorkbook(buf)
		require.NoError(t, err)
		assert.Len(t, snap.Accounts, 1)
		assert.Empty(t, snap.Transactions)
		assert.Empty(t, snap.CustomCurrencies)
	})
}

func TestParseWorkbook_NotAWorkbook(t *testing.T) {
	_, err := ParseWorkbook(bytes.NewBufferString("plain text, not xlsx"))
	assert.Error(t, err)
}
