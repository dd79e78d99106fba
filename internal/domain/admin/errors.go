package admin

import "errors"

var (
	ErrNotFound           = errors.New("admin not found")
	ErrInvalidCredentials = errors.New("invalid mobile or password")
	ErrMobileExists       = errors.New("admin with this mobile already exists")
	ErrInternal           = errors.New("internal error")
)
