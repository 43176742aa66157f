package service

import "errors"

// Sentinel errors handlers map onto HTTP statuses. Services return these
// (possibly wrapped) so callers can branch with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidTargetType = errors.New("invalid target type")
)
