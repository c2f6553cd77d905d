// Package backup implements the backup serialization, validation, and
// reconciliation core: a codec for the sectioned plain-text backup format, a
// structural/semantic validator, an approximate duplicate detector, the
// replace/merge reconciliation engine, and a stats builder.
package backup

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"debtbook/internal/logger"
	"debtbook/internal/models"
)

// FormatVersion is the current backup format version written to [METADATA].
const FormatVersion = "1.0"

// Section names, emitted in this order.
const (
	sectionMetadata         = "METADATA"
	sectionSettings         = "SETTINGS"
	sectionCustomCurrencies = "CUSTOM_CURRENCIES"
	sectionAccounts         = "ACCOUNTS"
	sectionTransactions     = "TRANSACTIONS"
)

// timeLayout is the fixed absolute-time representation used for all dates.
// Nanosecond precision keeps round-trips exact; the layout still parses
// whole-second timestamps from older backups.
const timeLayout = time.RFC3339Nano

var currencyColumns = []string{"id", "code", "name", "symbol", "rate", "is_custom"}

var accountColumns = []string{
	"id", "name", "description", "total_owed", "total_owed_to_me",
	"currency_id", "currency_code", "currency_name", "currency_symbol", "currency_rate", "currency_is_custom",
	"created_at", "updated_at",
}

var transactionColumns = []string{
	"id", "account_id", "type", "amount",
	"currency_id", "currency_code", "currency_name", "currency_symbol", "currency_rate", "currency_is_custom",
	"name", "description", "date", "created_at", "updated_at",
}

// Serialize converts a snapshot to the sectioned plain-text backup format.
// parse(Serialize(s)) reproduces s's scalar fields exactly and its
// collections up to element order.
func Serialize(s *models.BackupSnapshot) string {
	var b strings.Builder

	writeHeader(&b, sectionMetadata)
	writeKeyValue(&b, "version", s.Version)
	writeKeyValue(&b, "export_date", formatTime(s.ExportDate))
	b.WriteByte('\n')

	writeHeader(&b, sectionSettings)
	for _, kv := range settingsPairs(s.Settings) {
		writeKeyValue(&b, kv[0], kv[1])
	}
	b.WriteByte('\n')

	writeHeader(&b, sectionCustomCurrencies)
	b.WriteString(joinFields(currencyColumns))
	b.WriteByte('\n')
	for _, c := range s.CustomCurrencies {
		b.WriteString(joinFields(currencyFields(c)))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	writeHeader(&b, sectionAccounts)
	b.WriteString(joinFields(accountColumns))
	b.WriteByte('\n')
	for _, a := range s.Accounts {
		b.WriteString(joinFields(accountFields(a)))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	writeHeader(&b, sectionTransactions)
	b.WriteString(joinFields(transactionColumns))
	b.WriteByte('\n')
	for _, t := range s.Transactions {
		b.WriteString(joinFields(transactionFields(t)))
		b.WriteByte('\n')
	}

	return b.String()
}

// Parse converts serialized backup text back into a typed snapshot. Rows that
// cannot be parsed are dropped with a logged warning; a text without any
// recognizable section fails entirely.
func Parse(text string) (*models.BackupSnapshot, error) {
	sections := splitSections(text)
	if len(sections) == 0 {
		return nil, fmt.Errorf("no recognizable backup sections")
	}

	snap := &models.BackupSnapshot{}

	meta := parseKeyValues(sections[sectionMetadata])
	snap.Version = meta["version"]
	snap.ExportDate = parseTimeField(meta["export_date"])

	snap.Settings = settingsFromMap(parseKeyValues(sections[sectionSettings]))

	currencyRows, err := parseSection(sections, sectionCustomCurrencies)
	if err != nil {
		return nil, err
	}
	for _, row := range currencyRows {
		snap.CustomCurrencies = append(snap.CustomCurrencies, currencyFromRow(row, ""))
	}

	accountRows, err := parseSection(sections, sectionAccounts)
	if err != nil {
		return nil, err
	}
	for _, row := range accountRows {
		snap.Accounts = append(snap.Accounts, accountFromRow(row))
	}

	transactionRows, err := parseSection(sections, sectionTransactions)
	if err != nil {
		return nil, err
	}
	for _, row := range transactionRows {
		snap.Transactions = append(snap.Transactions, transactionFromRow(row))
	}

	return snap, nil
}

// parseSection parses one tabular section, logging a warning per dropped row.
func parseSection(sections map[string][]string, name string) ([]Row, error) {
	rows, dropped, err := parseTable(sections[name])
	if err != nil {
		return nil, fmt.Errorf("section %s: %w", name, err)
	}
	for _, d := range dropped {
		logger.Get().Warnw("dropping unparseable backup row", "section", name, "error", d.Error())
	}
	return rows, nil
}

func writeHeader(b *strings.Builder, name string) {
	b.WriteByte('[')
	b.WriteString(name)
	b.WriteString("]\n")
}

func writeKeyValue(b *strings.Builder, key, value string) {
	b.WriteString(joinFields([]string{key, value}))
	b.WriteByte('\n')
}

// settingsPairs flattens settings into ordered key-value pairs. The lock PIN
// hash is deliberately never exported.
func settingsPairs(s models.AppSettings) [][2]string {
	pairs := [][2]string{
		{"language", s.Language},
		{"theme", s.Theme},
		{"auto_update_rates", formatBool(s.AutoUpdateRates)},
	}
	return append(pairs, currencyPairs("default_currency_", s.DefaultCurrency)...)
}

func currencyPairs(prefix string, c models.Currency) [][2]string {
	return [][2]string{
		{prefix + "id", c.ID},
		{prefix + "code", c.Code},
		{prefix + "name", c.Name},
		{prefix + "symbol", c.Symbol},
		{prefix + "rate", formatFloat(c.Rate)},
		{prefix + "is_custom", formatBool(c.IsCustom)},
	}
}

func settingsFromMap(values map[string]string) models.AppSettings {
	return models.AppSettings{
		Language:        values["language"],
		Theme:           values["theme"],
		AutoUpdateRates: parseBoolField(values["auto_update_rates"]),
		DefaultCurrency: currencyFromGetter(func(key string) string { return values[key] }, "default_currency_"),
	}
}

func currencyFields(c models.Currency) []string {
	return []string{c.ID, c.Code, c.Name, c.Symbol, formatFloat(c.Rate), formatBool(c.IsCustom)}
}

func accountFields(a models.Account) []string {
	return []string{
		a.ID, a.Name, a.Description,
		formatFloat(a.TotalOwed), formatFloat(a.TotalOwedToMe),
		a.Currency.ID, a.Currency.Code, a.Currency.Name, a.Currency.Symbol,
		formatFloat(a.Currency.Rate), formatBool(a.Currency.IsCustom),
		formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
	}
}

func transactionFields(t models.Transaction) []string {
	return []string{
		t.ID, t.AccountID, string(t.Type), formatFloat(t.Amount),
		t.Currency.ID, t.Currency.Code, t.Currency.Name, t.Currency.Symbol,
		formatFloat(t.Currency.Rate), formatBool(t.Currency.IsCustom),
		t.Name, t.Description,
		formatTime(t.Date), formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
	}
}

func currencyFromRow(row Row, prefix string) models.Currency {
	return currencyFromGetter(row.Get, prefix)
}

func currencyFromGetter(get func(string) string, prefix string) models.Currency {
	return models.Currency{
		ID:       get(prefix + "id"),
		Code:     get(prefix + "code"),
		Name:     get(prefix + "name"),
		Symbol:   get(prefix + "symbol"),
		Rate:     parseFloatField(get(prefix + "rate")),
		IsCustom: parseBoolField(get(prefix + "is_custom")),
	}
}

func accountFromRow(row Row) models.Account {
	return models.Account{
		Base: models.Base{
			ID:        row.Get("id"),
			CreatedAt: parseTimeField(row.Get("created_at")),
			UpdatedAt: parseTimeField(row.Get("updated_at")),
		},
		Name:          row.Get("name"),
		Description:   row.Get("description"),
		TotalOwed:     parseFloatField(row.Get("total_owed")),
		TotalOwedToMe: parseFloatField(row.Get("total_owed_to_me")),
		Currency:      currencyFromRow(row, "currency_"),
	}
}

func transactionFromRow(row Row) models.Transaction {
	return models.Transaction{
		Base: models.Base{
			ID:        row.Get("id"),
			CreatedAt: parseTimeField(row.Get("created_at")),
			UpdatedAt: parseTimeField(row.Get("updated_at")),
		},
		AccountID:   row.Get("account_id"),
		Type:        models.TransactionType(row.Get("type")),
		Amount:      parseFloatField(row.Get("amount")),
		Currency:    currencyFromRow(row, "currency_"),
		Name:        row.Get("name"),
		Description: row.Get("description"),
		Date:        parseTimeField(row.Get("date")),
	}
}

// Numbers are plain decimal text, never locale-grouped.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatBool(v bool) string {
	return strconv.FormatBool(v)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

// Field-level parse failures degrade to zero values; the validator decides
// whether the result is acceptable.
func parseFloatField(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseBoolField(s string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return v
}

func parseTimeField(s string) time.Time {
	t, err := time.Parse(timeLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}
