package connector

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Errors returned by this package match one of these with errors.Is.
var (
	// ErrNotSupported is the not supported error.
	ErrNotSupported = errors.New("not supported")

	// ErrConfiguration is returned when a connection descriptor cannot be built.
	ErrConfiguration = errors.New("configuration error")

	// ErrConnection is returned when the native driver refuses to connect.
	ErrConnection = errors.New("database open error")

	// ErrNotConnected is returned by every operation invoked before Connect or after Disconnect.
	ErrNotConnected = errors.New("database not connected")

	// ErrQuery wraps native prepare and execute failures.
	ErrQuery = errors.New("query error")

	// ErrInvalidArgument is the invalid argument error.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrArgumentMismatch is the wrong number of arguments error.
	ErrArgumentMismatch = errors.New("wrong number of arguments")

	// ErrValueTooLong is returned by strict literal helpers.
	ErrValueTooLong = errors.New("value too long")
)

// Error carries the failing operation, the native error code and message, and
// the kind it should be matched against.
type Error struct {
	Kind error
	Op   string
	Code string
	Msg  string
	Err  error
}

func newError(kind error, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Code != "" {
		fmt.Fprintf(&b, " [%s]", e.Code)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is reports whether target is the kind of e.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Diagnostic renders the native code and message only, as "code - message".
func (e *Error) Diagnostic() string {
	msg := e.Msg
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Code == "" {
		return msg
	}
	return e.Code + " - " + msg
}
