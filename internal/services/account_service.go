package services

import (
	"context"
	"errors"
	"strings"

	apperrors "debtbook/internal/errors"
	"debtbook/internal/models"
	"debtbook/internal/pagination"
	"debtbook/internal/store"
)

// AccountService implements AccountServicer on top of a store.
type AccountService struct {
	store store.Store
}

// NewAccountService creates a new account service.
func NewAccountService(s store.Store) AccountServicer {
	return &AccountService{store: s}
}

func (s *AccountService) CreateAccount(ctx context.Context, name, description, currencyCode string) (*models.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}

	currency, err := s.resolveCurrency(ctx, currencyCode)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		Name:        name,
		Description: description,
		Currency:    *currency,
	}
	if err := s.store.SaveAccount(ctx, account); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return account, nil
}

func (s *AccountService) GetAccounts(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	accounts, err := s.store.Accounts(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	page.Defaults()
	resp := pagination.NewPageResponse(pagination.Paginate(accounts, page), page.Page, page.PageSize, int64(len(accounts)))
	return &resp, nil
}

func (s *AccountService) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	account, err := s.store.Account(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return account, nil
}

func (s *AccountService) UpdateAccount(ctx context.Context, id string, fields AccountUpdateFields) (*models.Account, error) {
	account, err := s.GetAccountByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if fields.Name != nil {
		name := strings.TrimSpace(*fields.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name cannot be empty")
		}
		account.Name = name
	}
	if fields.Description != nil {
		account.Description = *fields.Description
	}
	if fields.CurrencyCode != nil {
		currency, err := s.resolveCurrency(ctx, *fields.CurrencyCode)
		if err != nil {
			return nil, err
		}
		account.Currency = *currency
	}

	if err := s.store.SaveAccount(ctx, account); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return account, nil
}

// DeleteAccount removes the account together with its transactions.
func (s *AccountService) DeleteAccount(ctx context.Context, id string) error {
	if _, err := s.GetAccountByID(ctx, id); err != nil {
		return err
	}

	transactions, err := s.store.TransactionsByAccount(ctx, id)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for i := range transactions {
		if err := s.store.DeleteTransaction(ctx, transactions[i].ID); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// RecalculateTotals recomputes the cached owed totals from the
// account's transactions and persists them.
func (s *AccountService) RecalculateTotals(ctx context.Context, accountID string) error {
	account, err := s.GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	transactions, err := s.store.TransactionsByAccount(ctx, accountID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	account.TotalOwed, account.TotalOwedToMe = models.TotalsByType(transactions)
	if err := s.store.SaveAccount(ctx, account); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *AccountService) resolveCurrency(ctx context.Context, code string) (*models.Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !models.ValidCurrencyCode(code) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid currency code")
	}
	currencies, err := s.store.Currencies(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for i := range currencies {
		if currencies[i].Code == code {
			return &currencies[i], nil
		}
	}
	return nil, apperrors.ErrCurrencyNotFound
}
