package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into the categories the HTTP layer knows how to
// map to a status code.
type Kind int

const (
	KindValidation Kind = iota // malformed or missing request fields
	KindAuth                   // missing/invalid/expired token or OTP
	KindNotFound               // unknown account or resource
	KindSignature              // payment signature mismatch
	KindUpstream               // third-party API failure
	KindInternal
)

// Error is the single tagged error type used across services. Message is
// user-safe; the wrapped cause is for server-side logs only.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

func Validation(message string) *Error { return New(KindValidation, message) }
func Auth(message string) *Error       { return New(KindAuth, message) }
func NotFound(message string) *Error   { return New(KindNotFound, message) }
func Signature(message string) *Error  { return New(KindSignature, message) }

// Upstream wraps a third-party failure. The message should read
// "failed to ..." and must not leak upstream internals to the client.
func Upstream(message string, cause error) *Error {
	return Wrap(KindUpstream, message, cause)
}

// KindOf extracts the Kind of err, defaulting to KindInternal for errors
// that did not come from this package.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// UserMessage returns the client-facing message for err.
func UserMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "internal server error"
}

// HTTPStatus maps an error kind to its response status.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindSignature:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
