// Package qerr carries stable error categories across service and transport
// boundaries.
package qerr

import (
	"errors"
	"fmt"
)

// Code represents a stable error category that callers can switch on.
type Code string

const (
	CodeUnknown          Code = "unknown"
	CodeInvalidToken     Code = "invalid_token"
	CodeTokenExpired     Code = "token_expired"
	CodeUserNotFound     Code = "user_not_found"
	CodeInvalidInput     Code = "invalid_input"
	CodeTooManyEntries   Code = "too_many_entries"
	CodeStoreUnavailable Code = "store_unavailable"
	CodeNotFound         Code = "not_found"
	CodeConflict         Code = "conflict"
	CodeUpstream         Code = "upstream"
	CodeUnauthorized     Code = "unauthorized"
)

// Error is a simple value type that carries a Code plus the underlying error.
type Error struct {
	Code Code
	err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.err == nil {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// New wraps an error with the provided code. If err is nil a nil is returned.
func New(code Code, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, err: err}
}

// Newf builds a coded error from a format string.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, err: fmt.Errorf(format, args...)}
}

// CodeOf returns the outermost code in err's chain, or CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode helps callers compare codes without type assertions.
func IsCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

// HasCode reports whether err already carries a code.
func HasCode(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// Message returns err's text without the code prefix of its outermost
// coded error, for showing to clients.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.err != nil {
		return e.err.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
