package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	apperrors "debtbook/internal/errors"
	"debtbook/internal/models"
	"debtbook/internal/pagination"
	"debtbook/internal/store"
)

// TransactionService implements TransactionServicer on top of a store.
type TransactionService struct {
	store    store.Store
	accounts AccountServicer
}

// NewTransactionService creates a new transaction service.
func NewTransactionService(s store.Store, accounts AccountServicer) TransactionServicer {
	return &TransactionService{store: s, accounts: accounts}
}

func (s *TransactionService) CreateTransaction(ctx context.Context, accountID string, transactionType models.TransactionType, amount float64, name, description string, date time.Time) (*models.Transaction, error) {
	account, err := s.accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !models.ValidTransactionType(transactionType) {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if err := validAmount(amount); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "counterparty name is required")
	}
	if date.IsZero() {
		date = time.Now()
	}

	transaction := &models.Transaction{
		AccountID:   account.ID,
		Type:        transactionType,
		Amount:      amount,
		Currency:    account.Currency,
		Name:        name,
		Description: description,
		Date:        date,
	}
	if err := s.store.SaveTransaction(ctx, transaction); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.accounts.RecalculateTotals(ctx, account.ID); err != nil {
		return nil, err
	}
	return transaction, nil
}

func (s *TransactionService) GetTransactions(ctx context.Context, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	var (
		transactions []models.Transaction
		err          error
	)
	if filter.AccountID != nil {
		transactions, err = s.store.TransactionsByAccount(ctx, *filter.AccountID)
	} else {
		transactions, err = s.store.Transactions(ctx)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	filtered := transactions[:0:0]
	for i := range transactions {
		t := transactions[i]
		if filter.Type != nil && t.Type != *filter.Type {
			continue
		}
		if filter.FromDate != nil && t.Date.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && t.Date.After(*filter.ToDate) {
			continue
		}
		filtered = append(filtered, t)
	}

	page.Defaults()
	resp := pagination.NewPageResponse(pagination.Paginate(filtered, page), page.Page, page.PageSize, int64(len(filtered)))
	return &resp, nil
}

func (s *TransactionService) GetTransactionByID(ctx context.Context, id string) (*models.Transaction, error) {
	transaction, err := s.store.Transaction(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transaction, nil
}

func (s *TransactionService) UpdateTransaction(ctx context.Context, id string, fields TransactionUpdateFields) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if fields.Type != nil {
		if !models.ValidTransactionType(*fields.Type) {
			return nil, apperrors.ErrInvalidTransactionType
		}
		transaction.Type = *fields.Type
	}
	if fields.Amount != nil {
		if err := validAmount(*fields.Amount); err != nil {
			return nil, err
		}
		transaction.Amount = *fields.Amount
	}
	if fields.Name != nil {
		name := strings.TrimSpace(*fields.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "counterparty name cannot be empty")
		}
		transaction.Name = name
	}
	if fields.Description != nil {
		transaction.Description = *fields.Description
	}
	if fields.Date != nil {
		transaction.Date = *fields.Date
	}

	if err := s.store.SaveTransaction(ctx, transaction); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.accounts.RecalculateTotals(ctx, transaction.AccountID); err != nil {
		return nil, err
	}
	return transaction, nil
}

func (s *TransactionService) DeleteTransaction(ctx context.Context, id string) error {
	transaction, err := s.GetTransactionByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.accounts.RecalculateTotals(ctx, transaction.AccountID)
}

func validAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be a finite number")
	}
	if amount <= 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be positive")
	}
	return nil
}
