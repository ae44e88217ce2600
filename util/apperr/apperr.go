// Package apperr carries the error kinds shared by services and controllers.
package apperr

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeInvalidState Code = "INVALID_STATE"
	CodeBadInput     Code = "BAD_INPUT"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
)

type Error struct {
	code Code
	msg  string
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Code() Code    { return e.code }

// Is matches any *Error carrying the same code, so callers can write
// errors.Is(err, apperr.ErrConflict).
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.code == e.code && (t.msg == "" || t.msg == e.msg)
	}
	return false
}

var (
	ErrNotFound     = &Error{code: CodeNotFound}
	ErrConflict     = &Error{code: CodeConflict}
	ErrInvalidState = &Error{code: CodeInvalidState}
	ErrBadInput     = &Error{code: CodeBadInput}
)

func New(c Code, format string, args ...any) error {
	return &Error{code: c, msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error { return New(CodeNotFound, format, args...) }
func Conflict(format string, args ...any) error { return New(CodeConflict, format, args...) }
func InvalidState(format string, args ...any) error {
	return New(CodeInvalidState, format, args...)
}
func BadInput(format string, args ...any) error  { return New(CodeBadInput, format, args...) }
func Forbidden(format string, args ...any) error { return New(CodeForbidden, format, args...) }
func Unauthorized(format string, args ...any) error {
	return New(CodeUnauthorized, format, args...)
}

// CodeOf extracts the code of the first *Error in the chain, or "".
func CodeOf(err error) Code {
	var ce interface{ Code() Code }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}
