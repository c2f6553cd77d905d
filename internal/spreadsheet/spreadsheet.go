// Package spreadsheet imports legacy exports: xlsx workbooks that older app
// versions produced before the plain-text backup format existed. A parsed
// workbook yields the same snapshot structure as a text backup, so the rest
// of the import pipeline (validation, reconciliation) applies unchanged.
package spreadsheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"debtbook/internal/backup"
	"debtbook/internal/logger"
	"debtbook/internal/models"
)

// Sheet names in legacy workbooks.
const (
	SheetAccounts     = "Accounts"
	SheetTransactions = "Transactions"
	SheetSettings     = "Settings"
	SheetCurrencies   = "Custom Currencies"
)

// ParseWorkbook reads a legacy xlsx export into a backup snapshot. Rows that
// cannot be parsed are dropped with a warning; a missing sheet yields an
// empty section. At least the Accounts sheet must exist.
func ParseWorkbook(r io.Reader) (*models.BackupSnapshot, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	if !sheetExists(f, SheetAccounts) {
		return nil, fmt.Errorf("workbook has no %q sheet", SheetAccounts)
	}

	snap := &models.BackupSnapshot{
		Version:    backup.FormatVersion,
		ExportDate: time.Now().UTC(),
	}

	accounts, err := readSheet(f, SheetAccounts, parseAccountRow)
	if err != nil {
		return nil, err
	}
	snap.Accounts = accounts

	transactions, err := readSheet(f, SheetTransactions, parseTransactionRow)
	if err != nil {
		return nil, err
	}
	snap.Transactions = transactions

	currencies, err := readSheet(f, SheetCurrencies, parseCurrencyRow)
	if err != nil {
		return nil, err
	}
	snap.CustomCurrencies = currencies

	settings, err := readSettings(f)
	if err != nil {
		return nil, err
	}
	snap.Settings = settings

	return snap, nil
}

func sheetExists(f *excelize.File, name string) bool {
	for _, s := range f.GetSheetList() {
		if s == name {
			return true
		}
	}
	return false
}

// readSheet reads a header-indexed sheet, handing each data row to parse as
// a header->value map. Parse failures drop the row.
func readSheet[T any](f *excelize.File, sheet string, parse func(row map[string]string) (T, error)) ([]T, error) {
	if !sheetExists(f, sheet) {
		return nil, nil
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	header := rows[0]
	log := logger.Get()

	var out []T
	for i, cells := range rows[1:] {
		row := make(map[string]string, len(header))
		for j, name := range header {
			if j < len(cells) {
				row[strings.TrimSpace(name)] = strings.TrimSpace(cells[j])
			} else {
				row[strings.TrimSpace(name)] = ""
			}
		}
		item, err := parse(row)
		if err != nil {
			log.Warnw("dropping unparseable spreadsheet row",
				"sheet", sheet, "row", i+2, "error", err)
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func parseAccountRow(row map[string]string) (models.Account, error) {
	if row["id"] == "" {
		return models.Account{}, fmt.Errorf("missing id")
	}
	return models.Account{
		Base:          models.Base{ID: row["id"]},
		Name:          row["name"],
		Description:   row["description"],
		TotalOwed:     parseFloat(row["total_owed"]),
		TotalOwedToMe: parseFloat(row["total_owed_to_me"]),
		Currency:      currencyFromRow(row),
	}, nil
}

func parseTransactionRow(row map[string]string) (models.Transaction, error) {
	if row["id"] == "" || row["account_id"] == "" {
		return models.Transaction{}, fmt.Errorf("missing id or account_id")
	}
	date, err := parseDate(row["date"])
	if err != nil {
		return models.Transaction{}, fmt.Errorf("bad date %q: %w", row["date"], err)
	}
	return models.Transaction{
		Base:        models.Base{ID: row["id"]},
		AccountID:   row["account_id"],
		Type:        models.TransactionType(row["type"]),
		Amount:      parseFloat(row["amount"]),
		Currency:    currencyFromRow(row),
		Name:        row["name"],
		Description: row["description"],
		Date:        date,
	}, nil
}

func parseCurrencyRow(row map[string]string) (models.Currency, error) {
	if row["code"] == "" {
		return models.Currency{}, fmt.Errorf("missing code")
	}
	rate := parseFloat(row["rate"])
	return models.Currency{
		ID:       row["id"],
		Code:     strings.ToUpper(row["code"]),
		Name:     row["name"],
		Symbol:   row["symbol"],
		Rate:     rate,
		IsCustom: true,
	}, nil
}

// readSettings reads the key/value Settings sheet. Missing sheet or rows
// leave zero values for the reconciler's defaults to cover.
func readSettings(f *excelize.File) (models.AppSettings, error) {
	var settings models.AppSettings
	if !sheetExists(f, SheetSettings) {
		return settings, nil
	}
	rows, err := f.GetRows(SheetSettings)
	if err != nil {
		return settings, fmt.Errorf("reading sheet %q: %w", SheetSettings, err)
	}

	for _, cells := range rows {
		if len(cells) < 2 {
			continue
		}
		key, value := strings.TrimSpace(cells[0]), strings.TrimSpace(cells[1])
		switch key {
		case "default_currency_code":
			settings.DefaultCurrency.Code = strings.ToUpper(value)
		case "default_currency_symbol":
			settings.DefaultCurrency.Symbol = value
		case "default_currency_rate":
			settings.DefaultCurrency.Rate = parseFloat(value)
		case "language":
			settings.Language = value
		case "theme":
			settings.Theme = value
		case "auto_update_rates":
			settings.AutoUpdateRates = value == "true"
		}
	}
	return settings, nil
}

func currencyFromRow(row map[string]string) models.Currency {
	return models.Currency{
		Code:   strings.ToUpper(row["currency_code"]),
		Symbol: row["currency_symbol"],
		Rate:   parseFloat(row["currency_rate"]),
	}
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseDate accepts the RFC3339 timestamps the app writes as well as the
// bare dates spreadsheet tools tend to reformat cells into.
func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02", "01-02-06", "1/2/06 15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}
