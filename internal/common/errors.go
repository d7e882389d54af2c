// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Input errors.
	ErrValidation = errors.New("validation failed")
	ErrInvariant  = errors.New("calculation invariant violated")

	// Estimation errors.
	ErrTransport         = errors.New("transport failure")
	ErrMalformedResponse = errors.New("malformed response")
	ErrMissingField      = errors.New("missing field")
	ErrInvalidEnumValue  = errors.New("invalid enum value")
	ErrOutOfRange        = errors.New("value out of range")

	// Exchange rate errors.
	ErrRateUnavailable = errors.New("exchange rate unavailable")

	// Scenario errors.
	ErrNotFound = errors.New("not found")
	ErrCapacity = errors.New("capacity reached")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}

// IsContractViolation reports whether err means the service answered but broke the response contract.
func IsContractViolation(err error) bool {
	return errors.Is(err, ErrMalformedResponse) ||
		errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidEnumValue) ||
		errors.Is(err, ErrOutOfRange)
}

// Kind returns a short stable name for the classified error, or "error" when unclassified.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "ValidationError"
	case errors.Is(err, ErrTransport):
		return "TransportFailure"
	case errors.Is(err, ErrMalformedResponse):
		return "MalformedResponse"
	case errors.Is(err, ErrMissingField):
		return "MissingField"
	case errors.Is(err, ErrInvalidEnumValue):
		return "InvalidEnumValue"
	case errors.Is(err, ErrOutOfRange):
		return "OutOfRange"
	case errors.Is(err, ErrRateUnavailable):
		return "RateUnavailable"
	default:
		return "error"
	}
}
