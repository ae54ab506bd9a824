package chat

import (
	"errors"
	"strings"
)

var (
	ErrEmptyMessage      = errors.New("message is empty")
	ErrTurnInFlight      = errors.New("a turn is already in progress")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrNoRecognizer      = errors.New("speech recognition unavailable")
)

// ValidationError rejects a turn before any side effect. Reason is one of the
// sentinel errors above; Err carries the underlying cause when there is one.
type ValidationError struct {
	Reason error
	Err    error
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Reason.Error())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Err}
}

func rejected(reason, cause error) *ValidationError {
	return &ValidationError{Reason: reason, Err: cause}
}
