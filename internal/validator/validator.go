// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"sheetdesk/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("user_status", validateUserStatus)
		_ = v.RegisterValidation("audit_action", validateAuditAction)
		_ = v.RegisterValidation("target_type", validateTargetType)
	}
}

func validateUserStatus(fl validator.FieldLevel) bool {
	switch models.UserStatus(fl.Field().String()) {
	case models.UserStatusActive, models.UserStatusInactive, models.UserStatusSuspended:
		return true
	}
	return false
}

func validateAuditAction(fl validator.FieldLevel) bool {
	return models.AuditAction(fl.Field().String()).Valid()
}

func validateTargetType(fl validator.FieldLevel) bool {
	return models.AuditTargetType(fl.Field().String()).Valid()
}
