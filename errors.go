package gateway

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// ErrKeyNotFound is returned by a Store when a key has no value
var ErrKeyNotFound = errors.New("key not found")

// ErrSessionMismatch is returned when the cached user was not derived
// from the currently stored token
var ErrSessionMismatch = errors.New("cached user does not match stored token")

const (
	textCodeUnknownProvider  = "UNKNOWN_AUTH_PROVIDER"
	textCodeStillInitialize  = "AUTH_PROVIDER_INITIALIZING"
	textCodeRefreshUnsupport = "REFRESH_UNSUPPORTED"
	textCodeAuthFailure      = "AUTHENTICATION_FAILED"
	textCodeTokenMalformed   = "TOKEN_MALFORMED"
	textCodeInvalidMessage   = "INVALID_MESSAGE"
	textCodeDuplicateRoute   = "DUPLICATE_PLUGIN_ROUTE"
)

// ErrUnknownProvider is the one non-recoverable configuration fault: there
// is no safe default provider to fall back to.
var ErrUnknownProvider = goerrors.New("unrecognized auth provider", goerrors.CategoryValidation).
	WithTextCode(textCodeUnknownProvider).
	WithCode(goerrors.CodeBadRequest)

// ErrStillInitializing is returned by the pending provider for every
// operation until the real provider has been selected.
var ErrStillInitializing = goerrors.New("auth provider still initializing", goerrors.CategoryOperation).
	WithTextCode(textCodeStillInitialize)

// ErrRefreshUnsupported is returned by providers that have no refresh
// credential (e.g. the OAuth redirect flow).
var ErrRefreshUnsupported = goerrors.New("provider does not support token refresh", goerrors.CategoryOperation).
	WithTextCode(textCodeRefreshUnsupport).
	WithCode(goerrors.CodeBadRequest)

// ErrAuthenticationFailed covers invalid credentials, rejected tokens and
// failed refresh exchanges. Every path that returns it resolves the session
// to a well-defined logged-out state first.
var ErrAuthenticationFailed = goerrors.New("authentication failed", goerrors.CategoryAuth).
	WithTextCode(textCodeAuthFailure).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned when a bearer token cannot be decoded or
// its payload carries no username. Callers treat it as "unusable token,
// force logout", never as a fatal condition.
var ErrTokenMalformed = goerrors.New("unable to decode token payload", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidMessage is returned when a bus envelope fails validation at
// the trust boundary. The message is logged and dropped, never dispatched.
var ErrInvalidMessage = goerrors.New("invalid cross-application message", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidMessage).
	WithCode(goerrors.CodeBadRequest)

// ErrDuplicateRoute is returned when a plugin registers a link that is
// already owned by another registration.
var ErrDuplicateRoute = goerrors.New("duplicate plugin route registration", goerrors.CategoryConflict).
	WithTextCode(textCodeDuplicateRoute).
	WithCode(goerrors.CodeConflict)

// IsAuthFailure checks for an authentication failure regardless of which
// provider produced it.
func IsAuthFailure(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.Category == goerrors.CategoryAuth
	}
	return strings.Contains(err.Error(), "authentication failed")
}

// IsStillInitializing checks for the pending-provider rejection.
func IsStillInitializing(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == textCodeStillInitialize
	}
	return false
}

// IsFatalConfigError reports whether err is the unrecoverable
// unknown-provider configuration fault.
func IsFatalConfigError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == textCodeUnknownProvider
	}
	return false
}
