package backup

import (
	"fmt"
	"strings"
	"time"

	"debtbook/internal/models"
)

// BuildSnapshot assembles an export snapshot from live state. Only custom
// currencies travel in the snapshot; built-ins are re-seeded on restore. The
// lock PIN hash never leaves the device.
func BuildSnapshot(
	accounts []models.Account,
	transactions []models.Transaction,
	settings models.AppSettings,
	currencies []models.Currency,
) *models.BackupSnapshot {
	var customs []models.Currency
	for _, c := range currencies {
		if c.IsCustom {
			customs = append(customs, c)
		}
	}

	settings.PINHash = ""

	return &models.BackupSnapshot{
		Version:          FormatVersion,
		ExportDate:       time.Now().UTC(),
		Accounts:         accounts,
		Transactions:     transactions,
		Settings:         settings,
		CustomCurrencies: customs,
	}
}

// ExportFilename builds the export artifact name: a human-readable prefix
// plus an ISO-8601-derived timestamp with filesystem-unsafe characters
// replaced.
func ExportFilename(at time.Time) string {
	ts := strings.ReplaceAll(at.UTC().Format(time.RFC3339), ":", "-")
	return fmt.Sprintf("debtbook-backup-%s.txt", ts)
}
