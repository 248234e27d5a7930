package matching

import (
	"errors"
	"fmt"
)

var (
	ErrValidationFailed    = errors.New("validation failed")
	ErrLocationRequired    = errors.New("location required")
	ErrSelfTarget          = errors.New("cannot target yourself")
	ErrTargetNotFound      = errors.New("target user not found")
	ErrInvalidAction       = errors.New("invalid action")
	ErrPersistenceConflict = errors.New("concurrent update on match record")
	ErrRetriesExhausted    = errors.New("match update retries exhausted")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
