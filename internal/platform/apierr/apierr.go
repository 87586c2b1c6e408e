package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the one failure type services return. Handlers never inspect
// anything beyond Status, Code and Fields; the wrapped cause is for logs.
type Error struct {
	Status int
	Code   string
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) WithField(field, message string) *Error {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = message
	return e
}

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func NotFound(format string, args ...any) *Error {
	return New(http.StatusNotFound, "not_found", fmt.Errorf(format, args...))
}

func Conflict(format string, args ...any) *Error {
	return New(http.StatusConflict, "conflict", fmt.Errorf(format, args...))
}

func Unauthorized(format string, args ...any) *Error {
	return New(http.StatusUnauthorized, "unauthorized", fmt.Errorf(format, args...))
}

func Forbidden(format string, args ...any) *Error {
	return New(http.StatusForbidden, "forbidden", fmt.Errorf(format, args...))
}

func InvalidRequest(fields map[string]string) *Error {
	return &Error{
		Status: http.StatusBadRequest,
		Code:   "invalid_request",
		Fields: fields,
		Err:    fmt.Errorf("request validation failed"),
	}
}

func Internal(err error) *Error {
	return New(http.StatusInternalServerError, "internal", err)
}

// From passes typed errors through and wraps anything else as internal, so
// unanticipated failures surface generically instead of leaking details.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}
