package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "debtbook/internal/errors"
	"debtbook/internal/rates"
	"debtbook/internal/services"
)

// CurrencyHandler handles currency-related requests.
type CurrencyHandler struct {
	currencyService services.CurrencyServicer
	rateUpdater     *rates.Updater
}

// NewCurrencyHandler creates a new CurrencyHandler. rateUpdater may be nil
// when no rate provider is configured.
func NewCurrencyHandler(currencyService services.CurrencyServicer, rateUpdater *rates.Updater) *CurrencyHandler {
	return &CurrencyHandler{currencyService: currencyService, rateUpdater: rateUpdater}
}

// CreateCurrencyRequest represents the request payload for creating a custom currency.
type CreateCurrencyRequest struct {
	Code   string  `json:"code" binding:"required,currency_code"`
	Name   string  `json:"name" binding:"required,min=1,max=100"`
	Symbol string  `json:"symbol" binding:"max=8"`
	Rate   float64 `json:"rate" binding:"required,gt=0"`
}

// UpdateCurrencyRequest represents the request payload for updating a custom currency.
type UpdateCurrencyRequest struct {
	Code   *string  `json:"code" binding:"omitempty,currency_code"`
	Name   *string  `json:"name" binding:"omitempty,min=1,max=100"`
	Symbol *string  `json:"symbol" binding:"omitempty,max=8"`
	Rate   *float64 `json:"rate" binding:"omitempty,gt=0"`
}

// GetCurrencies returns every currency, built-in and custom.
func (h *CurrencyHandler) GetCurrencies(c *gin.Context) {
	currencies, err := h.currencyService.GetCurrencies(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"currencies": currencies})
}

// CreateCurrency adds a new custom currency.
func (h *CurrencyHandler) CreateCurrency(c *gin.Context) {
	var req CreateCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	currency, err := h.currencyService.CreateCustomCurrency(c.Request.Context(), req.Code, req.Name, req.Symbol, req.Rate)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"currency": currency})
}

// UpdateCurrency applies a partial update to a custom currency.
func (h *CurrencyHandler) UpdateCurrency(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	currency, err := h.currencyService.UpdateCustomCurrency(c.Request.Context(), id, services.CurrencyUpdateFields{
		Code:   req.Code,
		Name:   req.Name,
		Symbol: req.Symbol,
		Rate:   req.Rate,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"currency": currency})
}

// DeleteCurrency removes a custom currency.
func (h *CurrencyHandler) DeleteCurrency(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.currencyService.DeleteCustomCurrency(c.Request.Context(), id); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RefreshRates triggers an on-demand exchange rate update.
func (h *CurrencyHandler) RefreshRates(c *gin.Context) {
	if h.rateUpdater == nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInternalServer, "no rate provider configured"))
		return
	}
	updated, err := h.rateUpdater.Update(c.Request.Context())
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
