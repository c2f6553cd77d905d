package services

import (
	"context"
	"strings"

	apperrors "debtbook/internal/errors"
	"debtbook/internal/models"
	"debtbook/internal/seed"
	"debtbook/internal/store"
	"debtbook/internal/uuid"
)

// CurrencyService implements CurrencyServicer on top of a store.
type CurrencyService struct {
	store store.Store
}

// NewCurrencyService creates a new currency service.
func NewCurrencyService(s store.Store) CurrencyServicer {
	return &CurrencyService{store: s}
}

// EnsureSeeded installs the built-in currency set on first run. Existing
// rows, including custom currencies, are left alone.
func (s *CurrencyService) EnsureSeeded(ctx context.Context) error {
	existing, err := s.store.Currencies(ctx)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(existing) > 0 {
		return nil
	}
	builtins, err := seed.Currencies()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.store.SaveCurrencies(ctx, builtins); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *CurrencyService) GetCurrencies(ctx context.Context) ([]models.Currency, error) {
	currencies, err := s.store.Currencies(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return currencies, nil
}

func (s *CurrencyService) GetCurrencyByCode(ctx context.Context, code string) (*models.Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	currencies, err := s.GetCurrencies(ctx)
	if err != nil {
		return nil, err
	}
	for i := range currencies {
		if currencies[i].Code == code {
			return &currencies[i], nil
		}
	}
	return nil, apperrors.ErrCurrencyNotFound
}

func (s *CurrencyService) CreateCustomCurrency(ctx context.Context, code, name, symbol string, rate float64) (*models.Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !models.ValidCurrencyCode(code) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "currency code must be three uppercase letters")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "currency name is required")
	}
	if !models.ValidRate(rate) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "rate must be a positive finite number")
	}

	currencies, err := s.GetCurrencies(ctx)
	if err != nil {
		return nil, err
	}
	for i := range currencies {
		if currencies[i].Code == code {
			return nil, apperrors.ErrDuplicateCurrency
		}
	}

	currency := models.Currency{
		ID:       uuid.New(),
		Code:     code,
		Name:     name,
		Symbol:   symbol,
		Rate:     rate,
		IsCustom: true,
	}
	currencies = append(currencies, currency)
	if err := s.store.SaveCurrencies(ctx, currencies); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &currencies[len(currencies)-1], nil
}

func (s *CurrencyService) UpdateCustomCurrency(ctx context.Context, id string, fields CurrencyUpdateFields) (*models.Currency, error) {
	currencies, err := s.GetCurrencies(ctx)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range currencies {
		if currencies[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, apperrors.ErrCurrencyNotFound
	}
	if !currencies[idx].IsCustom {
		return nil, apperrors.ErrBuiltInCurrency
	}

	target := &currencies[idx]
	if fields.Code != nil {
		code := strings.ToUpper(strings.TrimSpace(*fields.Code))
		if !models.ValidCurrencyCode(code) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "currency code must be three uppercase letters")
		}
		for i := range currencies {
			if i != idx && currencies[i].Code == code {
				return nil, apperrors.ErrDuplicateCurrency
			}
		}
		target.Code = code
	}
	if fields.Name != nil {
		name := strings.TrimSpace(*fields.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "currency name cannot be empty")
		}
		target.Name = name
	}
	if fields.Symbol != nil {
		target.Symbol = *fields.Symbol
	}
	if fields.Rate != nil {
		if !models.ValidRate(*fields.Rate) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "rate must be a positive finite number")
		}
		target.Rate = *fields.Rate
	}

	if err := s.store.SaveCurrencies(ctx, currencies); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return target, nil
}

// DeleteCustomCurrency removes a custom currency. If it was the default
// currency in settings, the default falls back to the base currency.
func (s *CurrencyService) DeleteCustomCurrency(ctx context.Context, id string) error {
	currencies, err := s.GetCurrencies(ctx)
	if err != nil {
		return err
	}

	idx := -1
	for i := range currencies {
		if currencies[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return apperrors.ErrCurrencyNotFound
	}
	if !currencies[idx].IsCustom {
		return apperrors.ErrBuiltInCurrency
	}
	deleted := currencies[idx]

	remaining := append(currencies[:idx:idx], currencies[idx+1:]...)
	if err := s.store.SaveCurrencies(ctx, remaining); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	settings, err := s.store.Settings(ctx)
	if err != nil {
		if err == store.ErrNotFound {
			return nil
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if settings.DefaultCurrency.Code == deleted.Code {
		base, err := seed.Base()
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		settings.DefaultCurrency = base
		if err := s.store.SaveSettings(ctx, settings); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return nil
}
