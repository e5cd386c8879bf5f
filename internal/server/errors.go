// Package server provides the auth gateway's HTTP API.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// ErrUnknownProvider indicates a sign-in provider that is not supported or not configured
type ErrUnknownProvider struct {
	Provider string
}

func (e *ErrUnknownProvider) Error() string {
	return fmt.Sprintf("unknown provider: %s", e.Provider)
}

// ErrInvalidToken indicates a provider ID token failed verification
type ErrInvalidToken struct {
	Provider string
	Cause    error
}

func (e *ErrInvalidToken) Error() string {
	return fmt.Sprintf("invalid %s id token", e.Provider)
}

func (e *ErrInvalidToken) Unwrap() error {
	return e.Cause
}

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrUserNotFound indicates user was not found
type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		unknownProvider *ErrUnknownProvider
		invalidToken    *ErrInvalidToken
		emailExists     *ErrEmailAlreadyExists
		invalidCreds    *ErrInvalidCredentials
		notFound        *ErrUserNotFound
		validation      *ErrValidation
	)
	switch {
	case errors.As(err, &unknownProvider), errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &invalidToken), errors.As(err, &invalidCreds):
		return http.StatusUnauthorized
	case errors.As(err, &emailExists):
		return http.StatusConflict
	case errors.As(err, &validation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
