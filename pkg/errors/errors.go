// Package errors defines the sentinel errors shared across the docsearch
// build and query pipelines, plus an AppError wrapper that carries an HTTP
// status for the search API.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrValidation       = errors.New("frontmatter validation failed")
	ErrDuplicateID      = errors.New("duplicate document id")
	ErrCycleDetected    = errors.New("document graph cycle detected")
	ErrInvalidInput     = errors.New("invalid input")
	ErrSnapshotNotReady = errors.New("index snapshot not ready")
	ErrSnapshotCorrupt  = errors.New("index snapshot corrupt")
	ErrInternal         = errors.New("internal error")
)

// ValidationError reports per-field frontmatter failures for a single source
// file. A failed document fails the whole build.
type ValidationError struct {
	Path   string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return fmt.Sprintf("%s: %s (%s)", ErrValidation.Error(), e.Path, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// DuplicateIDError names both source paths that derived the same document id.
// Duplicates are never merged silently.
type DuplicateIDError struct {
	ID         string
	FirstPath  string
	SecondPath string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("%s: %q derived from both %s and %s",
		ErrDuplicateID.Error(), e.ID, e.FirstPath, e.SecondPath)
}

func (e *DuplicateIDError) Unwrap() error {
	return ErrDuplicateID
}

// CycleDetectedError records the related-document chain that closed a cycle.
// Path-based tree construction cannot cycle, so this is an internal
// consistency failure.
type CycleDetectedError struct {
	Chain []string
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCycleDetected.Error(), strings.Join(e.Chain, " -> "))
}

func (e *CycleDetectedError) Unwrap() error {
	return ErrCycleDetected
}

// AppError couples a sentinel error with an HTTP status and message.
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

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, ErrSnapshotNotReady):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
