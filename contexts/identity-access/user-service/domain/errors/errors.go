package errors

import "errors"

var (
	ErrInvalidUserInput    = errors.New("invalid user input")
	ErrEmailTaken          = errors.New("email already registered")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrVerificationInvalid = errors.New("verification token invalid")
	ErrForbidden           = errors.New("operation not allowed for actor")
)
