// Package mecerr implements the discriminated failure taxonomy the engine
// surfaces to callers instead of bare error strings.
package mecerr

import (
	"errors"
	"fmt"
)

// Kind identifies which recovery path a caller should take.
type Kind int

const (
	// InvalidArg is raised by range/move/change calls with bad or
	// overlapping inputs. The caller retries with new values.
	InvalidArg Kind = iota
	// NotFound is raised by a lookup of an unknown clip/event/overlap id.
	NotFound
	// AlreadyExists is raised by createNew over an existing directory or a
	// duplicate event id.
	AlreadyExists
	// FileInvalid is raised when a project file cannot be read.
	FileInvalid
	// ParseFailed is raised when a project file cannot be parsed.
	ParseFailed
	// DecodeFailed is raised when the decoder returns a non-AGAIN,
	// non-EOF error.
	DecodeFailed
	// SeekFailed is raised when the demuxer seek returns a negative code.
	SeekFailed
	// NotOpened is raised when an API is used on a project that has not
	// been opened.
	NotOpened
	// TLInvalid is raised when the timeline is in an invalid state for
	// the requested operation.
	TLInvalid
)

func (k Kind) String() string {
	switch k {
	case InvalidArg:
		return "INVALID_ARG"
	case NotFound:
		return "NOT_FOUND"
	case AlreadyExists:
		return "ALREADY_EXISTS"
	case FileInvalid:
		return "FILE_INVALID"
	case ParseFailed:
		return "PARSE_FAILED"
	case DecodeFailed:
		return "DECODE_FAILED"
	case SeekFailed:
		return "SEEK_FAILED"
	case NotOpened:
		return "NOT_OPENED"
	case TLInvalid:
		return "TL_INVALID"
	default:
		return "UNKNOWN"
	}
}

// Error is the concrete error type returned by every engine mutation.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an Error of the given kind with a message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf constructs an Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap constructs an Error of the given kind wrapping an underlying cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
