package audit

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the audit or audit item does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState means the requested transition is not permitted
	// from the current audit or item status.
	ErrInvalidState = errors.New("invalid state")
	// ErrConflict means a concurrent writer won the race for the same row.
	ErrConflict = errors.New("conflict")
)

// ValidationError reports malformed or out-of-range input. The target
// row is left untouched and the caller may retry immediately.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func invalidInput(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
