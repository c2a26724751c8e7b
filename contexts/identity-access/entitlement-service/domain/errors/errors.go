package errors

import "errors"

var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrUnknownOperation  = errors.New("unknown operation")
	ErrLookupFailed      = errors.New("entitlement lookup failed")
)
