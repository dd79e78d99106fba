package redemption

import "errors"

var (
	ErrInvalidAmount      = errors.New("invalid amount: must be greater than 0")
	ErrInsufficientCredit = errors.New("insufficient credit balance")
	ErrSubscriberNotFound = errors.New("subscriber not found")
	ErrInternal           = errors.New("internal error")
)
