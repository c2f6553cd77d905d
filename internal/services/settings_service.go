package services

import (
	"context"
	"errors"
	"strings"

	apperrors "debtbook/internal/errors"
	"debtbook/internal/models"
	"debtbook/internal/seed"
	"debtbook/internal/store"
)

// SettingsService implements SettingsServicer on top of a store.
type SettingsService struct {
	store store.Store
}

// NewSettingsService creates a new settings service.
func NewSettingsService(s store.Store) SettingsServicer {
	return &SettingsService{store: s}
}

// GetSettings returns the settings row, creating it with defaults on
// first access.
func (s *SettingsService) GetSettings(ctx context.Context) (*models.AppSettings, error) {
	settings, err := s.store.Settings(ctx)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	base, err := seed.Base()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	settings = &models.AppSettings{
		ID:              models.SettingsID,
		DefaultCurrency: base,
		Language:        "en",
		Theme:           models.ThemeSystem,
		AutoUpdateRates: false,
	}
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return settings, nil
}

func (s *SettingsService) UpdateSettings(ctx context.Context, fields SettingsUpdateFields) (*models.AppSettings, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	if fields.DefaultCurrencyCode != nil {
		code := strings.ToUpper(strings.TrimSpace(*fields.DefaultCurrencyCode))
		currencies, err := s.store.Currencies(ctx)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		found := false
		for i := range currencies {
			if currencies[i].Code == code {
				settings.DefaultCurrency = currencies[i]
				found = true
				break
			}
		}
		if !found {
			return nil, apperrors.ErrCurrencyNotFound
		}
	}
	if fields.Language != nil {
		lang := strings.TrimSpace(*fields.Language)
		if lang == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "language cannot be empty")
		}
		settings.Language = lang
	}
	if fields.Theme != nil {
		if !models.ValidTheme(*fields.Theme) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "theme must be light, dark or system")
		}
		settings.Theme = *fields.Theme
	}
	if fields.AutoUpdateRates != nil {
		settings.AutoUpdateRates = *fields.AutoUpdateRates
	}

	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return settings, nil
}
