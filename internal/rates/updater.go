package rates

import (
	"context"
	"fmt"

	"debtbook/internal/logger"
	"debtbook/internal/models"
	"debtbook/internal/store"
)

// Updater refreshes the rates of built-in currencies from a provider.
// Custom currencies carry user-maintained rates and are never touched.
type Updater struct {
	store    store.Store
	provider Provider
}

// NewUpdater creates a rate updater.
func NewUpdater(st store.Store, provider Provider) *Updater {
	return &Updater{store: st, provider: provider}
}

// Update fetches the latest rates and rewrites the currency table. It
// returns the number of currencies whose rate changed.
func (u *Updater) Update(ctx context.Context) (int, error) {
	latest, err := u.provider.Latest(ctx, models.BaseCurrencyCode)
	if err != nil {
		return 0, fmt.Errorf("fetching latest rates: %w", err)
	}

	currencies, err := u.store.Currencies(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading currencies: %w", err)
	}

	log := logger.Get()
	updated := 0
	for i := range currencies {
		c := &currencies[i]
		if c.IsCustom {
			continue
		}
		rate, ok := latest[c.Code]
		if !ok {
			log.Debugw("provider has no rate for currency", "code", c.Code)
			continue
		}
		if rate != c.Rate {
			c.Rate = rate
			updated++
		}
	}
	if updated == 0 {
		return 0, nil
	}

	if err := u.store.SaveCurrencies(ctx, currencies); err != nil {
		return 0, fmt.Errorf("saving updated rates: %w", err)
	}
	log.Infow("exchange rates refreshed", "updated", updated)
	return updated, nil
}
