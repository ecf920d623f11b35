package common

import (
	"errors"
	"fmt"
)

// ValidationError marks input the caller must fix. It is rejected at the
// boundary and never reaches a store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TransientStoreError wraps a store failure that is expected to clear on
// its own (timeout, temporary unavailability). Pollers report it and keep
// going; senders surface it as a retryable failure.
type TransientStoreError struct {
	Op  string
	Err error
}

func (e *TransientStoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *TransientStoreError) Unwrap() error { return e.Err }

// IsTransientStore reports whether err is (or wraps) a TransientStoreError.
func IsTransientStore(err error) bool {
	var te *TransientStoreError
	return errors.As(err, &te)
}

// ErrConnectionLost is surfaced when a long-lived stream drops. Clients
// treat it as a cue to reconnect, never as fatal.
var ErrConnectionLost = errors.New("connection lost")

// ErrNotFound is returned for lookups that matched nothing.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller lacks permission for the
// operation (e.g. non-admin announcement writes).
var ErrForbidden = errors.New("forbidden")

// ErrUnauthorized is returned when no valid identity accompanies the request.
var ErrUnauthorized = errors.New("unauthorized")
