package errors

import (
	"errors"
	"fmt"
)

// Kind is the stable, machine-readable category of an authentication error.
type Kind string

const (
	KindValidation         Kind = "validation_error"
	KindConflict           Kind = "conflict"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindAccountLocked      Kind = "account_locked"
	KindAccountDeactivated Kind = "account_deactivated"
	KindRateLimited        Kind = "rate_limited"
	KindTokenExpired       Kind = "token_expired"
	KindTokenInvalid       Kind = "token_invalid"
	KindNotFound           Kind = "not_found"
	KindInternal           Kind = "internal_error"
)

// FieldIssue describes a single invalid input field.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is returned by every operation of the auth core. Two errors are
// considered equal by errors.Is when they share the same Kind.
type Error struct {
	Kind       Kind
	Message    string
	Fields     []FieldIssue
	RetryAfter int

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrTooManyLoginAttempts = &Error{
		Kind:       KindRateLimited,
		Message:    "too many failed login attempts, please wait 15 minutes before trying again",
		RetryAfter: 900,
	}
	ErrInvalidCredentials     = &Error{Kind: KindInvalidCredentials, Message: "email or password is incorrect"}
	ErrInvalidCurrentPassword = &Error{Kind: KindInvalidCredentials, Message: "current password is incorrect"}
	ErrAccountLocked          = &Error{Kind: KindAccountLocked, Message: "account is temporarily locked due to too many failed attempts"}
	ErrAccountDeactivated     = &Error{Kind: KindAccountDeactivated, Message: "this account has been deactivated"}
	ErrEmailAlreadyInUse      = &Error{Kind: KindConflict, Message: "an account with this email already exists"}
	ErrAccountNotFound        = &Error{Kind: KindNotFound, Message: "account not found"}
	ErrTokenExpired           = &Error{Kind: KindTokenExpired, Message: "your session has expired, please login again"}
	ErrTokenInvalid           = &Error{Kind: KindTokenInvalid, Message: "the provided token is invalid"}
	ErrTokenUnverifiable      = &Error{Kind: KindTokenInvalid, Message: "unable to verify your authentication token"}
	ErrTokenAccountInactive   = &Error{Kind: KindTokenInvalid, Message: "account no longer exists or has been deactivated"}
	ErrTokenMissing           = &Error{Kind: KindTokenInvalid, Message: "access token required"}
	ErrInternal               = &Error{Kind: KindInternal, Message: "internal server error"}
)

// NewValidationError builds a validation_error carrying per-field issues.
func NewValidationError(fields ...FieldIssue) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: "please check your input data",
		Fields:  fields,
	}
}

// RateLimited returns a rate_limited error with the given retry hint in seconds.
func RateLimited(retryAfterSeconds int) *Error {
	if retryAfterSeconds == ErrTooManyLoginAttempts.RetryAfter {
		return ErrTooManyLoginAttempts
	}
	return &Error{
		Kind:       KindRateLimited,
		Message:    fmt.Sprintf("too many failed login attempts, please wait %d seconds before trying again", retryAfterSeconds),
		RetryAfter: retryAfterSeconds,
	}
}

// Internal hides cause behind a generic internal_error. The cause stays
// reachable through errors.Unwrap for logging.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: ErrInternal.Message, cause: cause}
}

// As converts err into an *Error. Errors that are not already typed are
// reported as internal_error.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// KindOf returns the Kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	return As(err).Kind
}
