package services

import "errors"

// Domain error kinds. Handlers translate these into HTTP statuses; batch
// operations collect them per item instead of aborting.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation failed")
)
