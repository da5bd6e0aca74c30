package service

import (
	"errors"
	"fmt"
)

var (
	// ErrAccessDenied is returned when the acting user is not allowed to
	// perform the operation on the target project.
	ErrAccessDenied = errors.New("access denied")

	// ErrValidation marks request payloads that fail validation. Wrap it
	// with context: fmt.Errorf("%w: title is required", ErrValidation).
	ErrValidation = errors.New("validation failed")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}
