package helpers

import (
	"errors"
	"fmt"
	"net/http"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type PropBackendError struct {
	Message string
	Cause   error
}

func (e *PropBackendError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *PropBackendError) Unwrap() error {
	return e.Cause
}

// The request-path taxonomy:
//   ConfigurationError  server-side secret missing, fatal to the request only
//   AuthError           bad credentials or shared secret
//   ValidationError     required field missing
//   PersistenceError    snapshot read/write failure, logged and swallowed
type ConfigurationError struct{ PropBackendError }
type AuthError struct{ PropBackendError }
type ValidationError struct{ PropBackendError }
type PersistenceError struct{ PropBackendError }

// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

func NewConfigurationError(message string) *ConfigurationError {
	return &ConfigurationError{PropBackendError{Message: message}}
}

func NewAuthError(message string) *AuthError {
	return &AuthError{PropBackendError{Message: message}}
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{PropBackendError{Message: message}}
}

func NewPersistenceError(message string, cause error) *PersistenceError {
	return &PersistenceError{PropBackendError{Message: message, Cause: cause}}
}

// -----------------------------------------------------------------------------
// HTTP Mapping
// -----------------------------------------------------------------------------

// HTTPStatus maps a taxonomy error to the response code the EA contract
// expects. Anything unrecognized is a server error.
func HTTPStatus(err error) int {
	var authErr *AuthError
	var valErr *ValidationError

	switch {
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.As(err, &valErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
