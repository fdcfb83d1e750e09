// Package server carries the error taxonomy shared by the service and HTTP
// layers. Core packages return plain errors; the service wraps them with a
// kind, and the HTTP layer maps kinds to status codes.
package server

import (
	"errors"
	"fmt"
)

type ErrorKind uint8

const (
	ErrInternalServerError ErrorKind = iota + 1
	ErrNotFound
	ErrBadRequest
	// ErrInvalidSelection: start == end, or an unknown node id, rejected
	// before any graph mutation.
	ErrInvalidSelection
	// ErrNoSuchEdge: virtual-node insertion on an edge that does not exist.
	ErrNoSuchEdge
	// ErrUnreachable: no path exists between two required points.
	ErrUnreachable
	// ErrBlocked: paths exist topologically but all are impassable.
	ErrBlocked
)

type Error struct {
	orig error
	msg  string
	kind ErrorKind
}

func (e *Error) Error() string {
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.orig
}

func (e *Error) Kind() ErrorKind {
	return e.kind
}

func WrapErrorf(orig error, kind ErrorKind, format string, a ...interface{}) error {
	return &Error{
		orig: orig,
		kind: kind,
		msg:  fmt.Sprintf(format, a...),
	}
}

func NewErrorf(kind ErrorKind, format string, a ...interface{}) error {
	return WrapErrorf(nil, kind, format, a...)
}

// KindOf extracts the kind of a wrapped error, defaulting to internal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return ErrInternalServerError
}
