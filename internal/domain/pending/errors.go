package pending

import "errors"

var (
	// ErrInvalidAmount is returned when credit amount is <= 0
	ErrInvalidAmount = errors.New("invalid credit amount: must be greater than 0")

	// ErrDuplicateEntry is returned by the repository when a pending
	// entry for the same (purchase, subscriber) pair already exists.
	// The service treats it as success.
	ErrDuplicateEntry = errors.New("pending credit already recorded for this purchase")

	// ErrSubscriberNotFound is returned when the subscriber doesn't exist
	ErrSubscriberNotFound = errors.New("subscriber not found")

	ErrInternal = errors.New("internal error")
)
