// Package errors provides custom error types for the debtbook API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Lock & authentication errors.
var (
	ErrUnauthorized = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidPIN   = &AppError{Code: "INVALID_PIN", Message: "Invalid PIN", StatusCode: http.StatusUnauthorized}
	ErrPINNotSet    = &AppError{Code: "PIN_NOT_SET", Message: "No PIN has been configured", StatusCode: http.StatusConflict}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Account errors.
var (
	ErrAccountNotFound = &AppError{Code: "ACCOUNT_NOT_FOUND", Message: "Account not found", StatusCode: http.StatusNotFound}
)

// Transaction errors.
var (
	ErrTransactionNotFound    = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInvalidTransactionType = &AppError{Code: "INVALID_TRANSACTION_TYPE", Message: "Transaction type must be debt or credit", StatusCode: http.StatusBadRequest}
)

// Currency errors.
var (
	ErrCurrencyNotFound  = &AppError{Code: "CURRENCY_NOT_FOUND", Message: "Currency not found", StatusCode: http.StatusNotFound}
	ErrDuplicateCurrency = &AppError{Code: "DUPLICATE_CURRENCY", Message: "A currency with this code already exists", StatusCode: http.StatusConflict}
	ErrBuiltInCurrency   = &AppError{Code: "BUILT_IN_CURRENCY", Message: "Built-in currencies cannot be modified", StatusCode: http.StatusConflict}
)

// Backup errors.
var (
	ErrBackupParse      = &AppError{Code: "BACKUP_PARSE_FAILED", Message: "Backup file could not be parsed", StatusCode: http.StatusBadRequest}
	ErrBackupInvalid    = &AppError{Code: "BACKUP_INVALID", Message: "Backup file failed validation", StatusCode: http.StatusUnprocessableEntity}
	ErrInvalidPolicy    = &AppError{Code: "INVALID_POLICY", Message: "Import policy must be replace or merge", StatusCode: http.StatusBadRequest}
	ErrSpreadsheetParse = &AppError{Code: "SPREADSHEET_PARSE_FAILED", Message: "Spreadsheet could not be parsed", StatusCode: http.StatusBadRequest}
)
