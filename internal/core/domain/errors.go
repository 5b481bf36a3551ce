package domain

import "errors"

// Validation errors.
var (
	ErrMissingData      = errors.New("missing data")
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrInvalidRecord    = errors.New("invalid user record")
	ErrInvalidField     = errors.New("invalid lookup field")
)

// Conflict errors.
var (
	ErrEmailInUse    = errors.New("email already in use")
	ErrUsernameInUse = errors.New("username already in use")
)

// Authentication and authorization errors.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidSession  = errors.New("invalid session")
	ErrForbidden       = errors.New("access forbidden")
)
