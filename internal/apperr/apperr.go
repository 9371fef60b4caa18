// Package apperr defines the error taxonomy shared by the service and HTTP
// layers. Every client-visible failure carries a stable machine-readable kind
// alongside a safe human-readable message.
package apperr

import "errors"

// Kind classifies an error for clients. The string values double as the
// error codes in HTTP responses.
type Kind string

const (
	KindValidation Kind = "VALIDATION_ERROR"  // bad type/size, no retry
	KindPermission Kind = "PERMISSION_DENIED" // authorization failure, no retry
	KindNotFound   Kind = "NOT_FOUND"         // unknown id or name
	KindStorage    Kind = "STORAGE_ERROR"     // object store unreachable, retryable
	KindParse      Kind = "PARSE_ERROR"       // malformed file content
)

// Error is the single error type crossing the service boundary.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two *Error values by kind, so callers can compare against a
// bare kind sentinel without caring about messages.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }
func Permission(msg string) *Error { return &Error{Kind: KindPermission, Message: msg} }
func NotFound(msg string) *Error   { return &Error{Kind: KindNotFound, Message: msg} }

func Storage(msg string, err error) *Error { return &Error{Kind: KindStorage, Message: msg, Err: err} }
func Parse(msg string, err error) *Error   { return &Error{Kind: KindParse, Message: msg, Err: err} }

// KindOf extracts the kind from an error chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// MessageOf returns the safe message from an error chain, or "" when the
// error is not an *Error.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
