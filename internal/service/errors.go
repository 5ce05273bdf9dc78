package service

import (
	"errors"
	"fmt"
)

var (
	// ErrUserNotFound means no account exists for the presented email or id.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserDeactivated means the account exists but is disabled.
	ErrUserDeactivated = errors.New("user account is deactivated")
	// ErrInvalidCredentials means the password did not match the stored hash.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRoleMismatch means the requested role differs from the stored one.
	ErrRoleMismatch = errors.New("role does not match account")
	// ErrDuplicateEmail means the email is already registered.
	ErrDuplicateEmail = errors.New("user with this email already exists")
	// ErrWrongTokenType means a token of one kind was presented where the other is required.
	ErrWrongTokenType = errors.New("wrong token type")
)

// ValidationError identifies the registration field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
