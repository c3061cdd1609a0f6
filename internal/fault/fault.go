package fault

import (
	"errors"
	"fmt"
)

// Kind classifies an error that crosses the IPC boundary. Content only ever
// sees the message string, so the Kind is always the message prefix.
type Kind string

const (
	TrustViolation   Kind = "TrustViolation"
	Validation       Kind = "ValidationError"
	DuplicateTrust   Kind = "DuplicateTrustError"
	Mismatch         Kind = "MismatchError"
	NoTrust          Kind = "NoTrustError"
	NotFound         Kind = "NotFoundError"
	LabelExhausted   Kind = "LabelExhausted"
	VaultUnavailable Kind = "VaultUnavailable"
	Runtime          Kind = "RuntimeError"
	FS               Kind = "FsError"
)

// Error implements the error interface so a bare Kind can be used as an
// errors.Is target.
func (k Kind) Error() string { return string(k) }

// Error is a caller-attributable failure. None of these are retried and
// none are fatal to the host process.
type Error struct {
	Kind Kind
	Code string // platform error code such as ENOENT, FS errors only
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Code, e.Msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error or a bare Kind with the same kind.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Kind:
		return e.Kind == t
	case *Error:
		return e.Kind == t.Kind
	}
	return false
}

// New returns an *Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap returns an *Error of the given kind that wraps err.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// WithCode returns an *Error whose message is "<Kind>: <code>: <err>", so
// the code survives transports that keep only the message string.
func WithCode(kind Kind, code string, err error) *Error {
	return &Error{Kind: kind, Code: code, Msg: err.Error(), Err: err}
}

// CodeOf returns the Code of the first *Error in err's chain.
func CodeOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
