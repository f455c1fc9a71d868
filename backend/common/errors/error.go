// Package errors holds the error taxonomy shared by the service layer and
// the HTTP error handler.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for status mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindCapacity
	KindAuth
	KindNotFound
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindCapacity:
		return "capacity"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// FieldViolation describes one rejected request field.
type FieldViolation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

// Error is a classified, coded error.
type Error struct {
	Kind Kind
	Code int
	Msg  string
	Data any
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindInternal {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode returns the stable numeric code.
func (e *Error) ErrorCode() int {
	return e.Code
}

// Status maps the kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindCapacity:
		return http.StatusUnprocessableEntity
	case KindConflict:
		return http.StatusConflict
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// New creates an error of the given kind.
func New(kind Kind, code int, msg string) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg}
}

// Wrap attaches a cause to a new classified error.
func Wrap(err error, kind Kind, code int, msg string) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg, Err: err}
}

func Validation(code int, msg string, violations []FieldViolation) *Error {
	return &Error{Kind: KindValidation, Code: code, Msg: msg, Data: violations}
}

func Conflict(code int, msg string) *Error {
	return New(KindConflict, code, msg)
}

func Capacity(code int, msg string) *Error {
	return New(KindCapacity, code, msg)
}

func Auth(code int, msg string) *Error {
	return New(KindAuth, code, msg)
}

func NotFound(code int, msg string) *Error {
	return New(KindNotFound, code, msg)
}

func Forbidden(code int, msg string) *Error {
	return New(KindForbidden, code, msg)
}

// Internal wraps an unexpected failure. The cause is logged but never sent
// to the client.
func Internal(code int, msg string, err error) *Error {
	return Wrap(err, KindInternal, code, msg)
}

// As extracts an *Error from the chain.
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}
