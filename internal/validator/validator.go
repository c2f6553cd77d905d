// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"debtbook/internal/backup"
	"debtbook/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("currency_code", validateCurrencyCode)
		_ = v.RegisterValidation("transaction_type", validateTransactionType)
		_ = v.RegisterValidation("theme", validateTheme)
		_ = v.RegisterValidation("backup_policy", validateBackupPolicy)
	}
}

func validateCurrencyCode(fl validator.FieldLevel) bool {
	return models.ValidCurrencyCode(fl.Field().String())
}

func validateTransactionType(fl validator.FieldLevel) bool {
	return models.ValidTransactionType(models.TransactionType(fl.Field().String()))
}

func validateTheme(fl validator.FieldLevel) bool {
	return models.ValidTheme(fl.Field().String())
}

func validateBackupPolicy(fl validator.FieldLevel) bool {
	return backup.ValidPolicy(backup.Policy(fl.Field().String()))
}
