// Package derrors provides coded domain errors shared by services and
// transport layers. Import it under the dErrors alias.
//
// Services construct errors with New or Wrap and a Code; the HTTP layer maps
// codes to status lines in one place. Callers branch on conditions with
// HasCode or errors.Is against exported error values, never by matching
// message text.
package derrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for caller branching and HTTP mapping.
type Code string

const (
	// CodeValidation: malformed input rejected before any state change.
	CodeValidation Code = "validation"
	// CodeInvalidInput: a value failed parsing at a trust boundary.
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest: the request shape itself is unusable.
	CodeBadRequest Code = "bad_request"
	// CodeUnauthorized: caller identity missing or unproven.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden: caller identified but lacks the required capability.
	CodeForbidden Code = "forbidden"
	// CodeNotFound: referenced entity does not exist.
	CodeNotFound Code = "not_found"
	// CodeConflict: operation clashes with current state (already registered,
	// already voted, already executed, window violations).
	CodeConflict Code = "conflict"
	// CodeInternal: infrastructure failure; details are not exposed to callers.
	CodeInternal Code = "internal_error"
)

// Error is a domain error carrying a Code. It wraps an optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is supports errors.Is against exported error values: two domain errors
// match when code and message agree.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap annotates a cause with a domain code and message. A nil cause yields nil.
func Wrap(cause error, code Code, message string) error {
	if cause == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: cause}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// unclassified errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Is re-exports errors.Is so callers importing this package under a short
// alias do not also need the stdlib errors import.
func Is(err, target error) bool { return errors.Is(err, target) }
