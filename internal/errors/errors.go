// Package errors provides custom error types for the bankroll API.
// All service-layer errors should use AppError so that clients only ever see a
// stable code and a generic message, never store or driver internals.
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

// Is reports whether target is an AppError carrying the same code, so wrapped
// copies still match their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
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
	ErrUnauthorized    = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrForbidden       = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrInvalidPassword = &AppError{Code: "INVALID_PASSWORD", Message: "Incorrect group password", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// ErrPersistenceFailed is the generic failure surfaced when any write of a
// mutation chain fails. Steps committed before the failure are not undone.
var ErrPersistenceFailed = &AppError{Code: "PERSISTENCE_FAILED", Message: "The operation failed, please try again", StatusCode: http.StatusBadGateway}

// Group errors.
var (
	ErrGroupNotFound = &AppError{Code: "GROUP_NOT_FOUND", Message: "Group not found", StatusCode: http.StatusNotFound}
	ErrInvalidStakes = &AppError{Code: "INVALID_STAKES", Message: "Fixed SB/BB must be numbers greater than zero", StatusCode: http.StatusBadRequest}
)

// Player errors.
var (
	ErrPlayerNotFound = &AppError{Code: "PLAYER_NOT_FOUND", Message: "Player not found", StatusCode: http.StatusNotFound}
	ErrNotAMember     = &AppError{Code: "NOT_A_MEMBER", Message: "You have not joined this group", StatusCode: http.StatusForbidden}
)

// Balance errors.
var (
	ErrBalanceNotFound       = &AppError{Code: "BALANCE_NOT_FOUND", Message: "Balance not found", StatusCode: http.StatusNotFound}
	ErrBalanceAlreadyDeleted = &AppError{Code: "BALANCE_ALREADY_DELETED", Message: "Balance has already been deleted", StatusCode: http.StatusConflict}
	ErrDeleteInProgress      = &AppError{Code: "DELETE_IN_PROGRESS", Message: "This balance is already being deleted", StatusCode: http.StatusConflict}
)
