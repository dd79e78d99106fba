package reversal

import "errors"

var (
	ErrNotFound         = errors.New("transaction not found")
	ErrAlreadyReversed  = errors.New("transaction already reversed")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnknownKind      = errors.New("unknown transaction kind")
	ErrInternal         = errors.New("internal error")
)
