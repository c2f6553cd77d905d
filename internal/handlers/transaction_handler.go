package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "debtbook/internal/errors"
	"debtbook/internal/models"
	"debtbook/internal/pagination"
	"debtbook/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// CreateTransactionRequest represents the request payload for creating a transaction.
type CreateTransactionRequest struct {
	AccountID   string  `json:"account_id" binding:"required"`
	Type        string  `json:"type" binding:"required,transaction_type"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Name        string  `json:"name" binding:"required,min=1,max=100"`
	Description string  `json:"description" binding:"max=500"`
	Date        *string `json:"date"` // RFC3339; defaults to now
}

// UpdateTransactionRequest represents the request payload for updating a transaction.
type UpdateTransactionRequest struct {
	Type        *string  `json:"type" binding:"omitempty,transaction_type"`
	Amount      *float64 `json:"amount" binding:"omitempty,gt=0"`
	Name        *string  `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string  `json:"description" binding:"omitempty,max=500"`
	Date        *string  `json:"date"`
}

// transactionListQuery holds list filter query parameters.
type transactionListQuery struct {
	pagination.PageRequest
	AccountID string `form:"account_id"`
	Type      string `form:"type" binding:"omitempty,transaction_type"`
	From      string `form:"from"`
	To        string `form:"to"`
}

// CreateTransaction records a new debt or credit entry.
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var date time.Time
	if req.Date != nil {
		parsed, err := time.Parse(time.RFC3339, *req.Date)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "date must be RFC3339"))
			return
		}
		date = parsed
	}

	transaction, err := h.transactionService.CreateTransaction(
		c.Request.Context(),
		req.AccountID,
		models.TransactionType(req.Type),
		req.Amount,
		req.Name,
		req.Description,
		date,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// GetTransactions returns a filtered, paginated transaction list.
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	var query transactionListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter := services.TransactionFilter{}
	if query.AccountID != "" {
		filter.AccountID = &query.AccountID
	}
	if query.Type != "" {
		typ := models.TransactionType(query.Type)
		filter.Type = &typ
	}
	if query.From != "" {
		from, err := time.Parse(time.RFC3339, query.From)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "from must be RFC3339"))
			return
		}
		filter.FromDate = &from
	}
	if query.To != "" {
		to, err := time.Parse(time.RFC3339, query.To)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "to must be RFC3339"))
			return
		}
		filter.ToDate = &to
	}

	resp, err := h.transactionService.GetTransactions(c.Request.Context(), query.PageRequest, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetTransaction returns a single transaction by ID.
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// UpdateTransaction applies a partial update to a transaction.
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	fields := services.TransactionUpdateFields{
		Amount:      req.Amount,
		Name:        req.Name,
		Description: req.Description,
	}
	if req.Type != nil {
		typ := models.TransactionType(*req.Type)
		fields.Type = &typ
	}
	if req.Date != nil {
		date, err := time.Parse(time.RFC3339, *req.Date)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "date must be RFC3339"))
			return
		}
		fields.Date = &date
	}

	transaction, err := h.transactionService.UpdateTransaction(c.Request.Context(), id, fields)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction removes a transaction.
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(c.Request.Context(), id); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
