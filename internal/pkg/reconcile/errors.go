package reconcile

import "errors"

var (
	// ErrNotFound means no ledger row exists for the user.
	ErrNotFound = errors.New("subscription not found")
	// ErrNotActive means the operation requires an active subscription.
	ErrNotActive = errors.New("subscription is not active")
	// ErrInvalidRange means a numeric input is outside its allowed range.
	ErrInvalidRange = errors.New("value out of allowed range")
	// ErrSignatureMismatch means payment verification failed. It is always
	// fatal to the verify operation.
	ErrSignatureMismatch = errors.New("payment signature mismatch")
)
