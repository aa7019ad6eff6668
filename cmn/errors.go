// Package cmn holds the engine-wide error taxonomy, following the
// teacher's own cmn package: a home for cross-cutting types that don't
// belong to any single component.
package cmn

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code is the engine's own error space, distinct from application error
// codes that travel inside Result.ErrorCode.
type Code int32

const (
	CodeOK Code = iota
	CodeBadConnection
	CodeBadRequest
	CodeBadSession
	CodeDuplicatedSession
	CodeConnectionTimeout
	CodeUnknown
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeBadConnection:
		return "bad_connection"
	case CodeBadRequest:
		return "bad_request"
	case CodeBadSession:
		return "bad_session"
	case CodeDuplicatedSession:
		return "duplicated_session"
	case CodeConnectionTimeout:
		return "connection_time_out"
	default:
		return "unknown"
	}
}

// Error is the engine's one error type; every sentinel below is an *Error
// so callers can switch on Code after an errors.Cause unwrap.
type Error struct {
	Code Code
	msg  string
}

func (e *Error) Error() string {
	if e.msg == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.msg)
}

func NewError(code Code, format string, a ...any) *Error {
	return &Error{Code: code, msg: fmt.Sprintf(format, a...)}
}

var (
	ErrBadConnection     = &Error{Code: CodeBadConnection}
	ErrBadRequest        = &Error{Code: CodeBadRequest}
	ErrBadSession        = &Error{Code: CodeBadSession}
	ErrDuplicatedSession = &Error{Code: CodeDuplicatedSession}
	ErrConnectionTimeout = &Error{Code: CodeConnectionTimeout}
	ErrUnknown           = &Error{Code: CodeUnknown}
	// ErrShuttingDown cancels outstanding sync promises on SyncManager.Clear;
	// there's no dedicated code for this, so it rides CodeUnknown.
	ErrShuttingDown = &Error{Code: CodeUnknown, msg: "engine quitting"}
)

// CodeOf extracts the engine Code carried by err, walking through any
// github.com/pkg/errors wrapping; non-*Error causes report CodeUnknown.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// Wrap annotates err with a message while preserving CodeOf(err): the
// annotation is for logs, the sentinel survives for control flow.
func Wrap(err error, format string, a ...any) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, format, a...)
}
