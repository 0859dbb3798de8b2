package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("already exists")
	ErrUnauthorized      = errors.New("not authorized")
	ErrForbidden         = errors.New("forbidden")
	ErrEmptyFile         = errors.New("file has no rows")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// ValidationError reports a request or file that cannot be processed as given.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	if e.Value == nil {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// Invalid builds a ValidationError without a rejected value.
func Invalid(field, message string) error {
	return ValidationError{Field: field, Message: message}
}

// NotFound wraps ErrNotFound with the kind of thing that was missing.
func NotFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
