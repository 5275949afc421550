package saga

import (
	"github.com/pkg/errors"
)

var (
	// ErrAlreadyInFlight is returned when an instance with the same id is running
	ErrAlreadyInFlight = errors.New("saga instance with the same id is already in flight")
	// ErrCanceled is returned by ExecuteStep once a cancel request was observed
	ErrCanceled = errors.New("saga instance was canceled")
)

// ApplicationError is the only error shape the runner inspects: Type is matched against
// RetryPolicy.NonRetryableErrorTypes and NonRetryable stops retries right away.
type ApplicationError struct {
	Type         string
	NonRetryable bool
	Message      string
	cause        error
}

func NewApplicationError(message, errType string, nonRetryable bool, cause error) *ApplicationError {
	return &ApplicationError{Type: errType, NonRetryable: nonRetryable, Message: message, cause: cause}
}

func (e *ApplicationError) Error() string {
	return e.Message
}

func (e *ApplicationError) Unwrap() error {
	return e.cause
}

func AsApplicationError(err error) (*ApplicationError, bool) {
	var appErr *ApplicationError
	if errors.As(err, &appErr) {
		return appErr, true
	}

	return nil, false
}
