package domain

import "errors"

// Kind is the stable, machine-readable category of a failure.
type Kind string

const (
	KindValidationFailed             Kind = "validation_failed"
	KindDuplicateIdentity            Kind = "duplicate_identity"
	KindInvalidCredentials           Kind = "invalid_credentials"
	KindIdentityNotFound             Kind = "identity_not_found"
	KindResetTokenInvalidOrExpired   Kind = "reset_token_invalid_or_expired"
	KindPasswordConfirmationMismatch Kind = "password_confirmation_mismatch"
	KindOldPasswordIncorrect         Kind = "old_password_incorrect"
	KindUnauthenticated              Kind = "unauthenticated"
	KindTokenExpired                 Kind = "token_expired"
	KindTokenMalformed               Kind = "token_malformed"
	KindForbidden                    Kind = "forbidden"
	KindDeliveryFailed               Kind = "delivery_failed"
	KindStorage                      Kind = "storage_error"
	KindInternal                     Kind = "internal"
)

// Error is a typed failure returned by the core. Two errors match under
// errors.Is when their kinds are equal, so callers compare against the
// sentinels below regardless of the message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// NewError builds a failure of the given kind.
func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// WrapError builds a failure of the given kind that keeps cause for logging.
// The cause is never part of Error().
func WrapError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

var (
	ErrValidationFailed             = NewError(KindValidationFailed, "validation failed")
	ErrDuplicateIdentity            = NewError(KindDuplicateIdentity, "account already exists")
	ErrInvalidCredentials           = NewError(KindInvalidCredentials, "invalid email or password")
	ErrIdentityNotFound             = NewError(KindIdentityNotFound, "user not found")
	ErrResetTokenInvalidOrExpired   = NewError(KindResetTokenInvalidOrExpired, "reset password token is invalid or has expired")
	ErrPasswordConfirmationMismatch = NewError(KindPasswordConfirmationMismatch, "password and confirm password do not match")
	ErrOldPasswordIncorrect         = NewError(KindOldPasswordIncorrect, "old password is incorrect")
	ErrUnauthenticated              = NewError(KindUnauthenticated, "authentication required")
	ErrTokenExpired                 = NewError(KindTokenExpired, "session token has expired")
	ErrTokenMalformed               = NewError(KindTokenMalformed, "session token is malformed")
	ErrForbidden                    = NewError(KindForbidden, "access forbidden")
	ErrDeliveryFailed               = NewError(KindDeliveryFailed, "email delivery failed")
	ErrStorage                      = NewError(KindStorage, "storage unavailable")
)

// ErrNotFound is returned by the credential store when a record does not exist.
// The service translates it into a kind appropriate for the operation.
var ErrNotFound = errors.New("not found")

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage returns the message safe to show to a caller.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return "internal server error"
}
