package calendar

import (
	"errors"
	"fmt"
)

var (
	// ErrLocked is returned when an operation targets a CITA appointment.
	ErrLocked = errors.New("las CITAS no pueden ser modificadas una vez programadas")

	// ErrNotFound is returned when the addressed contact, visit or absence is missing.
	ErrNotFound = errors.New("event not found")

	// ErrConfirmationRequired is returned by Trash when the caller has not confirmed.
	ErrConfirmationRequired = errors.New("¿seguro que deseas eliminar este evento del calendario?")
)

// ValidationError reports a rejected input before any state was touched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid builds a *ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func invalid(field, format string, args ...any) error {
	return Invalid(field, format, args...)
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
