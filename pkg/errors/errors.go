package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeUpstream     = "UPSTREAM_ERROR"
	CodeInternal     = "INTERNAL_ERROR"
)

type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest, nil)
}

func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func Forbidden(message string) *AppError {
	return New(CodeForbidden, message, http.StatusForbidden, nil)
}

func NotFound(resource string, err error) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound, err)
}

func Conflict(message string) *AppError {
	return New(CodeConflict, message, http.StatusConflict, nil)
}

// Upstream wraps a failure of the database, cache or feed.
func Upstream(message string, err error) *AppError {
	return New(CodeUpstream, message, http.StatusBadGateway, err)
}

func Internal(message string, err error) *AppError {
	return New(CodeInternal, message, http.StatusInternalServerError, err)
}

// Is reports whether any AppError in err's chain carries code.
func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// As exposes the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// StatusOf maps err to an HTTP status, 500 for anything that is not an AppError.
func StatusOf(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
