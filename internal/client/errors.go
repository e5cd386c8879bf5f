package client

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingToken is returned when a credential carries no gateway token to verify.
	ErrMissingToken = errors.New("credential has no gateway token")
	// ErrCredentialExpired is returned when a credential's token has expired.
	ErrCredentialExpired = errors.New("credential has expired")
)

// APIError is a non-2xx response from the gateway.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway returned status %d", e.Status)
	}
	return fmt.Sprintf("gateway returned status %d: %s", e.Status, e.Message)
}

// Error represents a failure to reach the gateway or decode its response.
type Error struct {
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
