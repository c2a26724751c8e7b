package errors

import "errors"

var (
	ErrInvalidRequest         = errors.New("invalid request")
	ErrEmptyCart              = errors.New("cart is empty")
	ErrNoPurchasableProducts  = errors.New("no purchasable products in cart")
	ErrOrderNotFound          = errors.New("order not found")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrPaymentSessionFailed   = errors.New("payment session creation failed")
	ErrSessionNotFound        = errors.New("payment session not found")
	ErrIdempotencyKeyRequired = errors.New("idempotency key required")
	ErrIdempotencyConflict    = errors.New("idempotency key conflict")
)
