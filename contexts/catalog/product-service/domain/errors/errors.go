package errors

import "errors"

var (
	ErrInvalidProductInput    = errors.New("invalid product input")
	ErrProductNotFound        = errors.New("product not found")
	ErrFileNotFound           = errors.New("product file not found")
	ErrMediaNotFound          = errors.New("media not found")
	ErrForbidden              = errors.New("operation not allowed for actor")
	ErrGatewayRegistration    = errors.New("payment gateway registration failed")
	ErrIdempotencyKeyRequired = errors.New("idempotency key required")
	ErrIdempotencyConflict    = errors.New("idempotency key reused with different request")
)
