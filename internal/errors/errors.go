// Package errors provides custom error types for the sheetdesk API.
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

// Is matches two AppErrors by code, so a wrapped sentinel still satisfies
// errors.Is against the original.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

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

// Authentication & authorization errors.
var (
	ErrUnauthenticated         = &AppError{Code: "UNAUTHENTICATED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidToken            = &AppError{Code: "INVALID_TOKEN", Message: "Invalid or expired token", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials      = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid username or password", StatusCode: http.StatusUnauthorized}
	ErrAccountDisabled         = &AppError{Code: "ACCOUNT_DISABLED", Message: "Account is not active", StatusCode: http.StatusForbidden}
	ErrAdminRequired           = &AppError{Code: "ADMIN_REQUIRED", Message: "Admin access required", StatusCode: http.StatusForbidden}
	ErrInsufficientPermissions = &AppError{Code: "INSUFFICIENT_PERMISSIONS", Message: "Insufficient permissions", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound      = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateUsername = &AppError{Code: "DUPLICATE_USERNAME", Message: "A user with this username already exists", StatusCode: http.StatusConflict}
)

// Upload and dataset errors.
var (
	ErrNoFile            = &AppError{Code: "NO_FILE", Message: "No file uploaded", StatusCode: http.StatusBadRequest}
	ErrUnsupportedFormat = &AppError{Code: "UNSUPPORTED_FORMAT", Message: "Unsupported file format", StatusCode: http.StatusBadRequest}
	ErrPayloadTooLarge   = &AppError{Code: "PAYLOAD_TOO_LARGE", Message: "File exceeds the maximum upload size", StatusCode: http.StatusBadRequest}
	ErrMalformedInput    = &AppError{Code: "MALFORMED_INPUT", Message: "File could not be parsed", StatusCode: http.StatusBadRequest}
	ErrDatasetNotFound   = &AppError{Code: "DATASET_NOT_FOUND", Message: "File not found", StatusCode: http.StatusNotFound}
)
