// Package errors defines the sentinel errors shared across the service and
// an AppError wrapper that carries an HTTP status code.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrMalformedSnapshot = errors.New("malformed index snapshot")
	ErrSnapshotNotFound  = errors.New("index snapshot not found")
	ErrColumnNotFound    = errors.New("csv column not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNoIndex           = errors.New("no index built")
	ErrInternal          = errors.New("internal error")
)

// AppError wraps a sentinel error with a human-readable message and an
// explicit HTTP status code.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New builds an AppError around a sentinel.
func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Newf is New with printf-style message formatting.
func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// HTTPStatusCode maps an error to the HTTP status it should surface as.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	switch {
	case errors.Is(err, ErrMalformedSnapshot), errors.Is(err, ErrInvalidInput), errors.Is(err, ErrColumnNotFound):
		return http.StatusBadRequest
	case errors.Is(err, ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNoIndex):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
