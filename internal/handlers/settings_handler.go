package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "debtbook/internal/errors"
	"debtbook/internal/services"
)

// SettingsHandler handles app settings requests.
type SettingsHandler struct {
	settingsService services.SettingsServicer
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(settingsService services.SettingsServicer) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// UpdateSettingsRequest represents the request payload for updating settings.
type UpdateSettingsRequest struct {
	DefaultCurrencyCode *string `json:"default_currency_code" binding:"omitempty,currency_code"`
	Language            *string `json:"language" binding:"omitempty,min=2,max=8"`
	Theme               *string `json:"theme" binding:"omitempty,theme"`
	AutoUpdateRates     *bool   `json:"auto_update_rates"`
}

// GetSettings returns the settings singleton.
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingsService.GetSettings(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// UpdateSettings applies a partial update to the settings singleton.
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	settings, err := h.settingsService.UpdateSettings(c.Request.Context(), services.SettingsUpdateFields{
		DefaultCurrencyCode: req.DefaultCurrencyCode,
		Language:            req.Language,
		Theme:               req.Theme,
		AutoUpdateRates:     req.AutoUpdateRates,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}
