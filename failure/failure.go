// Package failure holds the error taxonomy shared by the identity client, the record store and the notifier.
// Steps read only the Kind and retryability of an error, never the raw transport error.
package failure

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is a closed set of failure classes.
type Kind string

const (
	// ClientError is a 4xx answer of the identity provider or a constraint violation of the store. Terminal.
	ClientError Kind = "ClientError"
	// ServerError is a 5xx (or otherwise unexpected) answer of the identity provider.
	ServerError Kind = "ServerError"
	// NetworkError happens when no response was received at all.
	NetworkError Kind = "NetworkError"
	// SetupError happens when a bearer token could not be obtained.
	SetupError Kind = "SetupError"
	// RequestSetupError happens when a request could not be built before sending.
	RequestSetupError Kind = "RequestSetupError"
	// RecordNotFound is returned when a store update or read targets a key that does not exist. Terminal.
	RecordNotFound Kind = "RecordNotFound"
	// StoreUnavailable is any transport level failure of the record store.
	StoreUnavailable Kind = "StoreUnavailable"
	// NotificationError is returned by the notifier. Callers treat it as best effort.
	NotificationError Kind = "NotificationError"
)

// Kinds lists every known kind
var Kinds = []Kind{
	ClientError,
	ServerError,
	NetworkError,
	SetupError,
	RequestSetupError,
	RecordNotFound,
	StoreUnavailable,
	NotificationError,
}

func (k Kind) String() string {
	return string(k)
}

// Retryable reports whether an operation failed with this kind may succeed when repeated unchanged.
func (k Kind) Retryable() bool {
	switch k {
	case ClientError, RecordNotFound:
		return false
	default:
		return true
	}
}

// Error is a classified failure. It is transient and never persisted.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
	cause      error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}

	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.cause)
}

// Retryable reports whether the error is worth retrying.
func (e *Error) Retryable() bool {
	return e.Kind.Retryable()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Cause keeps compatibility with github.com/pkg/errors.Cause
func (e *Error) Cause() error {
	return e.cause
}

// New creates an error of the given kind without a cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err with kind.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: err}
}

// Wrapf classifies err with kind and a formatted message.
func Wrapf(err error, kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: err}
}

// WithStatusCode attaches the http status code the error was produced from.
func (e *Error) WithStatusCode(code int) *Error {
	e.StatusCode = code
	return e
}

// As extracts a classified error from the chain.
func As(err error) (*Error, bool) {
	var fErr *Error
	if errors.As(err, &fErr) {
		return fErr, true
	}

	return nil, false
}

// KindOf returns the kind of the first classified error in the chain.
func KindOf(err error) (Kind, bool) {
	if fErr, ok := As(err); ok {
		return fErr.Kind, true
	}

	return "", false
}

// Is reports whether err carries a classified error of kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsRetryable treats unclassified errors as retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if fErr, ok := As(err); ok {
		return fErr.Retryable()
	}

	return true
}
