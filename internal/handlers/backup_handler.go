package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"debtbook/internal/backup"
	apperrors "debtbook/internal/errors"
	"debtbook/internal/services"
	"debtbook/internal/spreadsheet"
)

// maxUploadBytes caps import payloads; on-device datasets are small.
const maxUploadBytes = 16 << 20

// BackupHandler handles backup export, preview and import requests.
type BackupHandler struct {
	backupService services.BackupServicer
}

// NewBackupHandler creates a new BackupHandler.
func NewBackupHandler(backupService services.BackupServicer) *BackupHandler {
	return &BackupHandler{backupService: backupService}
}

// ImportBackupRequest represents the request payload for importing a backup.
type ImportBackupRequest struct {
	Content        string `json:"content" binding:"required"`
	Policy         string `json:"policy" binding:"required,backup_policy"`
	SkipDuplicates bool   `json:"skip_duplicates"`
}

// ValidateBackupRequest represents the request payload for a dry-run validation.
type ValidateBackupRequest struct {
	Content string `json:"content" binding:"required"`
}

// ExportBackup streams the serialized backup as a file download.
func (h *BackupHandler) ExportBackup(c *gin.Context) {
	artifact, err := h.backupService.ExportBackup(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+artifact.Filename+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(artifact.Content))
}

// ValidateBackup parses and validates a backup without touching live data.
// The response carries the validation outcome plus preview stats.
func (h *BackupHandler) ValidateBackup(c *gin.Context) {
	var req ValidateBackupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	snapshot, err := h.backupService.ParseBackup(req.Content)
	if err != nil {
		respondWithError(c, err)
		return
	}

	validation := h.backupService.ValidateBackup(snapshot)
	stats := h.backupService.GetBackupStats(snapshot)
	c.JSON(http.StatusOK, gin.H{
		"validation": validation,
		"stats":      stats,
	})
}

// ImportBackup runs the full import pipeline.
func (h *BackupHandler) ImportBackup(c *gin.Context) {
	var req ImportBackupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, validation, err := h.backupService.ImportBackup(c.Request.Context(), req.Content, backup.Options{
		Policy:         backup.Policy(req.Policy),
		SkipDuplicates: req.SkipDuplicates,
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == apperrors.ErrBackupInvalid.Code {
			c.JSON(appErr.StatusCode, gin.H{
				"error": gin.H{
					"code":    appErr.Code,
					"message": appErr.Message,
				},
				"validation": validation,
			})
			return
		}
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result":     result,
		"validation": validation,
	})
}

// GetStats returns backup stats for the live dataset.
func (h *BackupHandler) GetStats(c *gin.Context) {
	stats, err := h.backupService.GetLiveStats(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// ImportSpreadsheet imports a legacy xlsx export uploaded as multipart form
// data under the "file" field.
func (h *BackupHandler) ImportSpreadsheet(c *gin.Context) {
	policy := c.DefaultPostForm("policy", string(backup.PolicyMerge))
	if !backup.ValidPolicy(backup.Policy(policy)) {
		respondWithError(c, apperrors.ErrInvalidPolicy)
		return
	}
	skipDuplicates := c.DefaultPostForm("skip_duplicates", "true") == "true"

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "file upload is required"))
		return
	}
	if fileHeader.Size > maxUploadBytes {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "file too large"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	defer func() { _ = file.Close() }()

	snapshot, err := spreadsheet.ParseWorkbook(file)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrSpreadsheetParse, err))
		return
	}

	validation := h.backupService.ValidateBackup(snapshot)
	if !validation.IsValid {
		c.JSON(apperrors.ErrBackupInvalid.StatusCode, gin.H{
			"error": gin.H{
				"code":    apperrors.ErrBackupInvalid.Code,
				"message": apperrors.ErrBackupInvalid.Message,
			},
			"validation": validation,
		})
		return
	}

	result, err := h.backupService.Reconcile(c.Request.Context(), snapshot, backup.Options{
		Policy:         backup.Policy(policy),
		SkipDuplicates: skipDuplicates,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result":     result,
		"validation": validation,
	})
}
