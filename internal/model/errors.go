package model

import "errors"

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is deactivated")
	ErrEmailNotVerified   = errors.New("email not verified")

	// Access token errors
	ErrMissingToken   = errors.New("missing token")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenExpired   = errors.New("token expired")

	// Verification ledger errors
	ErrTokenNotFound    = errors.New("token not found")
	ErrTokenAlreadyUsed = errors.New("token already used")

	// Finance related errors
	ErrCategoryNotFound    = errors.New("category not found")
	ErrTransactionNotFound = errors.New("transaction not found")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Generic errors
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)
