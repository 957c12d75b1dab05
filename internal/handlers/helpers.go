package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sheetdesk/internal/audit"
	apperrors "sheetdesk/internal/errors"
	"sheetdesk/internal/middleware"
	"sheetdesk/internal/models"
)

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthenticated if not present.
func getUserID(c *gin.Context) (string, error) {
	userID := c.GetString(middleware.UserIDKey)
	if userID == "" {
		return "", apperrors.ErrUnauthenticated
	}
	return userID, nil
}

// toAppError maps any error onto an AppError. Unknown errors become
// ErrInternalServer with the original error kept as the internal cause.
func toAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, logger *zap.SugaredLogger, err error) {
	appErr := toAppError(err)
	if appErr.Internal != nil {
		logger.Errorw("app error",
			"code", appErr.Code,
			"internal", appErr.Internal.Error(),
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)
	}
	c.JSON(appErr.StatusCode, middleware.ErrorBody(appErr))
}

// auditedFunc is a privileged mutation that reports its outcome instead of
// writing the response.
type auditedFunc func(c *gin.Context) audit.Outcome

// audited writes the response described by fn's outcome and hands the same
// outcome to the recorder, which stores an entry only for 2xx outcomes.
func audited(rec *audit.Recorder, logger *zap.SugaredLogger, action models.AuditAction, target models.AuditTargetType, fn auditedFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		out := fn(c)
		if out.Err != nil {
			respondWithError(c, logger, out.Err)
		} else {
			c.JSON(out.Status, out.Body)
		}

		adminID := c.GetString(middleware.UserIDKey)
		if profile := middleware.AdminProfileFrom(c); profile != nil {
			adminID = profile.UserID
		}

		rec.Observe(audit.Invocation{
			AdminID:    adminID,
			Action:     action,
			TargetType: target,
			TargetID:   c.Param("id"),
			IPAddress:  c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
		}, out)
	}
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Message string `json:"message" example:"File not found"`
	Error   string `json:"error" example:"DATASET_NOT_FOUND"`
}

// MessageResponse is returned by operations that only confirm success.
type MessageResponse struct {
	Message string `json:"message"`
}
