// Package fault defines the error taxonomy shared by the three ledger
// components and the transports in front of them.
package fault

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind string

const (
	Malformed   Kind = "malformed_arguments"
	NotFound    Kind = "not_found"
	Denied      Kind = "authorization_denied"
	Duplicate   Kind = "duplicate"
	NoCandidate Kind = "no_eligible_candidate"
	Downstream  Kind = "downstream_failure"
	Internal    Kind = "internal"
)

// Error is a classified failure with a human-readable message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil && e.Msg == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match against another *Error by Kind, so that
// errors.Is(err, fault.ErrDenied) works for any denial.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrMalformed   = &Error{Kind: Malformed}
	ErrNotFound    = &Error{Kind: NotFound}
	ErrDenied      = &Error{Kind: Denied}
	ErrDuplicate   = &Error{Kind: Duplicate}
	ErrNoCandidate = &Error{Kind: NoCandidate}
	ErrDownstream  = &Error{Kind: Downstream}
)

func newf(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

func Malformedf(format string, args ...any) *Error   { return newf(Malformed, format, args...) }
func NotFoundf(format string, args ...any) *Error    { return newf(NotFound, format, args...) }
func Deniedf(format string, args ...any) *Error      { return newf(Denied, format, args...) }
func Duplicatef(format string, args ...any) *Error   { return newf(Duplicate, format, args...) }
func NoCandidatef(format string, args ...any) *Error { return newf(NoCandidate, format, args...) }

// Wrap returns a downstream failure reporting that a nested call into
// component failed with err.
func Wrap(component string, err error) *Error {
	return &Error{Kind: Downstream, Msg: component + " call failed", Err: err}
}

// KindOf returns the Kind of the outermost *Error in err's chain, or
// Internal when err carries no classification.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Internal
}

// HTTPStatus maps a Kind to the status code returned by the HTTP surface.
func HTTPStatus(k Kind) int {
	switch k {
	case Malformed:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Denied:
		return http.StatusForbidden
	case Duplicate:
		return http.StatusConflict
	case NoCandidate:
		return http.StatusUnprocessableEntity
	case Downstream:
		return http.StatusFailedDependency
	default:
		return http.StatusInternalServerError
	}
}
