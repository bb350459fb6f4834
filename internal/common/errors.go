package common

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the machine-distinguishable category of an AppError.
type ErrorKind string

const (
	KindUnauthorized ErrorKind = "UNAUTHORIZED"
	KindForbidden    ErrorKind = "FORBIDDEN"
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindConflict     ErrorKind = "CONFLICT"
	KindInvalidState ErrorKind = "INVALID_STATE"
	KindValidation   ErrorKind = "VALIDATION_ERROR"
)

// AppError carries an error kind alongside a human-readable message so
// handlers can map failures to HTTP responses without string matching.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewUnauthorized(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message}
}

func NewForbidden(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

func NewNotFound(resource string) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

func NewConflict(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

func NewInvalidState(message string) *AppError {
	return &AppError{Kind: KindInvalidState, Message: message}
}

func NewValidation(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

// KindOf returns the kind of err, or "" when err carries no AppError.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// HTTPStatus maps an error kind to its HTTP status code.
func HTTPStatus(kind ErrorKind) int {
	switch kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindInvalidState:
		return http.StatusUnprocessableEntity
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
