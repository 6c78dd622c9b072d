package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a referenced entity as absent or in the wrong state
// for a hard-requirement path. Wrap it with context via fmt.Errorf("%w").
var ErrNotFound = errors.New("not found")

// NotFoundError builds a wrapped not-found error for an entity kind and id.
func NotFoundError(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// ValidationError indicates malformed or incomplete input. Webhook and API
// handlers map it to HTTP 400 before any side effects run.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a validation error with the given message.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// AuthError indicates a missing or failed signature/API key check.
// The webhook handler maps it to HTTP 401 and stops all processing.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// NewAuthError creates an auth error with the given message.
func NewAuthError(message string) *AuthError {
	return &AuthError{Message: message}
}

// IsAuth reports whether err is an AuthError.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// UpstreamError indicates a failed call to an external collaborator
// (model, chat, or call provider).
type UpstreamError struct {
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError wraps a provider failure.
func NewUpstreamError(provider string, err error) *UpstreamError {
	return &UpstreamError{Provider: provider, Err: err}
}
