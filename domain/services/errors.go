package services

import (
	"errors"
	"fmt"
)

// Closed set of business outcomes. Handlers and callers match these with
// errors.Is; anything else crossing the service boundary is a StoreError.
var (
	// ErrValidation covers malformed input: missing ids, empty names, oversized names.
	ErrValidation = errors.New("invalid input")

	// ErrQuotaExceeded is returned before any side effect when the user is at
	// or over max_photos.
	ErrQuotaExceeded = errors.New("photo quota exceeded")

	// ErrNotFound covers an absent photo, face, or user. Cascade deletes on an
	// already-removed id return this and perform no further mutation.
	ErrNotFound = errors.New("not found")

	// ErrAccountInactive is returned for mutating calls on suspended or
	// deleted accounts.
	ErrAccountInactive = errors.New("account is not active")
)

// StoreError is the single opaque failure reported when a relational, vector,
// or object store call failed. The operation name carries enough context for
// reconciliation; the wrapped error never leaks store identity to API callers.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store failure during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError wraps err as a StoreError unless it already is one or is a
// business outcome from the set above.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrQuotaExceeded) ||
		errors.Is(err, ErrNotFound) || errors.Is(err, ErrAccountInactive) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
