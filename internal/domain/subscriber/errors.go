package subscriber

import "errors"

var (
	ErrNotFound      = errors.New("subscriber not found")
	ErrInvalidMobile = errors.New("invalid mobile number")
	ErrInvalidCode   = errors.New("invalid or expired verification code")
	ErrInternal      = errors.New("internal error")
)
