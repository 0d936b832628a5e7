// Package common defines shared constants and sentinel errors used across
// the service layers. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level error kinds. Every AppError carries one of them.
	ErrorValidation      = errors.New("validation error")
	ErrorConflict        = errors.New("conflict")
	ErrorUnauthorized    = errors.New("unauthorized")
	ErrorInternal        = errors.New("internal error")
	ErrorPayloadTooLarge = errors.New("payload too large")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")

	// Session gate outcomes.
	ErrTokenMissing       = errors.New("token missing")
	ErrUnknownSubject     = errors.New("unknown token subject")
	ErrRefreshTokenReused = errors.New("refresh token reused")
)

// AppError is the typed result of a failed service operation. Kind is one of
// the service-level sentinels above and decides the transport status; Message
// is safe to show to the caller; Cause is kept for errors.Is/As and logs.
type AppError struct {
	Kind    error
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes both the kind and the cause, so errors.Is(err, ErrorUnauthorized)
// and errors.Is(err, ErrTokenExpired) can hold for the same error.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// NewError builds an AppError without a cause.
func NewError(kind error, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// WrapError builds an AppError around cause.
func WrapError(kind error, message string, cause error) *AppError {
	return &AppError{Kind: kind, Message: message, Cause: cause}
}

// AsAppError returns the AppError in err's chain, if any.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
