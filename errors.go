package subwave

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// Existence errors
	ErrNotFound      = errors.New("subwave: not found")
	ErrAlreadyExists = errors.New("subwave: already exists")

	// Validation errors
	ErrInvalidPrice       = errors.New("subwave: invalid price: must be greater than 0")
	ErrInvalidInterval    = errors.New("subwave: invalid interval: must be greater than 0 days")
	ErrProductNameTooLong = errors.New("subwave: product name too long: max 50 bytes")
	ErrInvalidReference   = errors.New("subwave: record does not belong to the referenced merchant")
	ErrZeroAddress        = errors.New("subwave: principal address is zero")

	// State errors
	ErrSubscriptionInactive        = errors.New("subwave: subscription is not active")
	ErrSubscriptionAlreadyCanceled = errors.New("subwave: subscription already canceled")

	// Authorization errors
	ErrUnauthorized = errors.New("subwave: unauthorized access")

	// Arithmetic errors
	ErrMathOverflow = errors.New("subwave: math overflow")

	// Collaborator errors
	ErrPaymentFailed        = errors.New("subwave: payment failed")
	ErrGatewayNotConfigured = errors.New("subwave: payment gateway not configured")

	// Store errors
	ErrStoreClosed = errors.New("subwave: store is closed")
	ErrStoreBusy   = errors.New("subwave: record is locked by another operation")
)

// ValidationError names the field that failed validation.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("subwave: validation failed for %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation returns true if the error is a rejected input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidPrice) ||
		errors.Is(err, ErrInvalidInterval) ||
		errors.Is(err, ErrProductNameTooLong) ||
		errors.Is(err, ErrInvalidReference) ||
		errors.Is(err, ErrZeroAddress)
}

// IsState returns true if the operation is not valid for the record's state.
func IsState(err error) bool {
	return errors.Is(err, ErrSubscriptionInactive) ||
		errors.Is(err, ErrSubscriptionAlreadyCanceled)
}

// IsRetryable returns true if the error is temporary and the caller may retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreBusy) ||
		errors.Is(err, ErrPaymentFailed)
}
