package provider

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindInvalidInput Kind = "invalid_input"
	KindAuth         Kind = "auth_error"
	KindNetwork      Kind = "network_error"
	KindProvider     Kind = "provider_error"
)

// Sentinels usable with errors.Is against any *Error of the same kind.
var (
	ErrInvalidInput = &Error{Kind: KindInvalidInput}
	ErrAuth         = &Error{Kind: KindAuth}
	ErrNetwork      = &Error{Kind: KindNetwork}
	ErrProvider     = &Error{Kind: KindProvider}
)

// Error is a classified failure from a Gateway or the boundary that feeds it.
type Error struct {
	Kind Kind
	// Op names the failing operation, e.g. "freebusy.query".
	Op string
	// StatusCode is the provider HTTP status when known.
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Kind, so errors.Is(err, ErrAuth) works
// regardless of the operation or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Retryable reports whether repeating the call may succeed.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindNetwork:
		return true
	case KindProvider:
		return e.StatusCode == 429 || e.StatusCode >= 500
	default:
		return false
	}
}

// InvalidInput builds a KindInvalidInput error.
func InvalidInput(format string, args ...any) error {
	return &Error{Kind: KindInvalidInput, Err: fmt.Errorf(format, args...)}
}

// Wrap classifies err under kind for operation op. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindProvider for unclassified failures.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindProvider
}

// IsRetryable reports whether err carries a retryable classification.
func IsRetryable(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	return false
}
