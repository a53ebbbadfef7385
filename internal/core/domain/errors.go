package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error raised by the core wraps exactly one of these,
// so callers classify failures with errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrInvalidState = errors.New("invalid state")
	ErrUnauthorized = errors.New("not authorized")
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("concurrency conflict")
)

// Ledger errors
var (
	ErrInsufficientStock = fmt.Errorf("%w: insufficient stock", ErrValidation)
)

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func invalidStatef(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

// NotFound builds an ErrNotFound for the given entity and id.
func NotFound(entity, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, entity, id)
}

// Unauthorized builds an ErrUnauthorized with a reason.
func Unauthorized(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, fmt.Sprintf(format, args...))
}

// Conflict builds an ErrConflict for the given entity and id.
func Conflict(entity, id string) error {
	return fmt.Errorf("%w: %s %s was modified concurrently", ErrConflict, entity, id)
}

// IsRetryable reports whether the orchestration layer may retry err.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}
