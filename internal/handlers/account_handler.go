package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "debtbook/internal/errors"
	"debtbook/internal/pagination"
	"debtbook/internal/services"
)

// AccountHandler handles account-related requests.
type AccountHandler struct {
	accountService services.AccountServicer
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService services.AccountServicer) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// CreateAccountRequest represents the request payload for creating an account.
type CreateAccountRequest struct {
	Name         string `json:"name" binding:"required,min=1,max=100"`
	Description  string `json:"description" binding:"max=500"`
	CurrencyCode string `json:"currency_code" binding:"required,currency_code"`
}

// UpdateAccountRequest represents the request payload for updating an account.
type UpdateAccountRequest struct {
	Name         *string `json:"name" binding:"omitempty,min=1,max=100"`
	Description  *string `json:"description" binding:"omitempty,max=500"`
	CurrencyCode *string `json:"currency_code" binding:"omitempty,currency_code"`
}

// CreateAccount handles the creation of a new debt/credit account.
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	account, err := h.accountService.CreateAccount(c.Request.Context(), req.Name, req.Description, req.CurrencyCode)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"account": account})
}

// GetAccounts returns a paginated list of accounts.
func (h *AccountHandler) GetAccounts(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	resp, err := h.accountService.GetAccounts(c.Request.Context(), page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetAccount returns a single account by ID.
func (h *AccountHandler) GetAccount(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.accountService.GetAccountByID(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account})
}

// UpdateAccount applies a partial update to an account.
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	account, err := h.accountService.UpdateAccount(c.Request.Context(), id, services.AccountUpdateFields{
		Name:         req.Name,
		Description:  req.Description,
		CurrencyCode: req.CurrencyCode,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account})
}

// DeleteAccount removes an account and its transactions.
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.accountService.DeleteAccount(c.Request.Context(), id); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
