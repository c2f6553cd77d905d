package backup

import (
	"sort"
	"time"

	"debtbook/internal/models"
)

// ComputeStats derives the human-facing summary figures for a snapshot. Used
// identically for the pre-import preview and for live-state backup stats
// (build a snapshot from live state first). DateRange is nil when the
// snapshot has no transactions.
func ComputeStats(s *models.BackupSnapshot) models.BackupStats {
	stats := models.BackupStats{
		TotalAccounts:         len(s.Accounts),
		TotalTransactions:     len(s.Transactions),
		TotalCustomCurrencies: len(s.CustomCurrencies),
	}

	if len(s.Transactions) == 0 {
		return stats
	}

	dates := make([]time.Time, 0, len(s.Transactions))
	for _, t := range s.Transactions {
		dates = append(dates, t.Date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	stats.DateRange = &models.DateRange{
		From: dates[0],
		To:   dates[len(dates)-1],
	}
	return stats
}
