// Package errs defines the error kinds the service layer reports and the
// HTTP layer maps onto status codes.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation policy.
type Kind int

const (
	// KindValidation marks a bad or missing request field. Recoverable, 400.
	KindValidation Kind = iota + 1
	// KindNotFound marks an unknown entity id. Recoverable, 404.
	KindNotFound
	// KindConflict marks a uniqueness or state-machine violation. 409.
	KindConflict
	// KindConsistency marks a ledger adjustment that could not be applied.
	// Fatal to the request; the triggering write must be rolled back.
	KindConsistency
)

// Error is a kinded error with a caller-facing message and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Validation builds a validation error.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// NotFound builds a not-found error for the named resource.
func NotFound(resource string) error {
	return &Error{Kind: KindNotFound, Msg: resource + " not found"}
}

// Conflict builds a conflict error.
func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// Consistency builds a consistency error wrapping its cause.
func Consistency(msg string, cause error) error {
	return &Error{Kind: KindConsistency, Msg: msg, Err: cause}
}

// KindOf extracts the kind of err, or 0 when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsConflict reports whether err is a conflict error.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }
