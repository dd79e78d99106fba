package purchase

import "errors"

var (
	ErrInvalidAmount = errors.New("invalid amount: must be greater than 0")
	ErrInvalidMobile = errors.New("invalid mobile number")
	ErrUnknownBranch = errors.New("unknown branch or sales center")
	ErrNotFound      = errors.New("purchase not found")
	ErrInternal      = errors.New("internal error")
)
