package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "debtbook/internal/errors"
	"debtbook/internal/middleware"
	"debtbook/internal/services"
)

// LockHandler handles app lock (PIN) requests.
type LockHandler struct {
	lockService services.LockServicer
}

// NewLockHandler creates a new LockHandler.
func NewLockHandler(lockService services.LockServicer) *LockHandler {
	return &LockHandler{lockService: lockService}
}

// SetPINRequest represents the request payload for setting or changing the PIN.
type SetPINRequest struct {
	CurrentPIN string `json:"current_pin"`
	NewPIN     string `json:"new_pin" binding:"required,min=4,max=8,numeric"`
}

// VerifyPINRequest represents the request payload for unlocking the app.
type VerifyPINRequest struct {
	PIN string `json:"pin" binding:"required"`
}

// GetLockStatus reports whether a PIN is configured.
func (h *LockHandler) GetLockStatus(c *gin.Context) {
	configured, err := h.lockService.PINConfigured(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pin_configured": configured})
}

// SetPIN sets or changes the app lock PIN.
func (h *LockHandler) SetPIN(c *gin.Context) {
	var req SetPINRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.lockService.SetPIN(c.Request.Context(), req.CurrentPIN, req.NewPIN); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// VerifyPIN checks the PIN and issues a session token on success.
func (h *LockHandler) VerifyPIN(c *gin.Context) {
	var req VerifyPINRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.lockService.VerifyPIN(c.Request.Context(), req.PIN); err != nil {
		respondWithError(c, err)
		return
	}

	token, err := middleware.GenerateSessionToken()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// DisableLock removes the PIN after verifying the current one.
func (h *LockHandler) DisableLock(c *gin.Context) {
	var req VerifyPINRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.lockService.DisableLock(c.Request.Context(), req.PIN); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
