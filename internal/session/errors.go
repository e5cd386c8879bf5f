package session

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ValidationError indicates a malformed identity was passed to SignIn.
type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// newValidationError converts validator errors into a ValidationError naming the first failing field.
func newValidationError(err error) *ValidationError {
	if validationErrors, ok := err.(validator.ValidationErrors); ok && len(validationErrors) > 0 {
		ve := validationErrors[0]
		return &ValidationError{Field: ve.Field(), Message: ve.Tag(), Cause: err}
	}
	return &ValidationError{Field: "identity", Message: err.Error(), Cause: err}
}
