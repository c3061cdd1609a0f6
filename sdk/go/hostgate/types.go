package hostgate

import (
	"errors"
	"strings"
)

// Error kinds reported by the host.
const (
	KindTrustViolation   = "TrustViolation"
	KindValidation       = "ValidationError"
	KindDuplicateTrust   = "DuplicateTrustError"
	KindMismatch         = "MismatchError"
	KindNoTrust          = "NoTrustError"
	KindNotFound         = "NotFoundError"
	KindLabelExhausted   = "LabelExhausted"
	KindVaultUnavailable = "VaultUnavailable"
	KindRuntime          = "RuntimeError"
	KindFS               = "FsError"
)

// Event is a process event pushed by the host.
type Event struct {
	Kind     string `json:"event"`
	Instance int    `json:"instanceId"`
	Data     string `json:"data,omitempty"`
	Code     *int   `json:"code,omitempty"`
	Signal   string `json:"signal,omitempty"`
	Message  string `json:"message,omitempty"`
}

// CallError is a failed call. The host only sends "<Kind>: message";
// filesystem failures put the platform code after the kind.
type CallError struct {
	Op      string
	Kind    string
	Code    string // ENOENT, EEXIST and so on, FsError only
	Message string
}

func (e *CallError) Error() string {
	if e.Kind == "" {
		return "hostgate " + e.Op + ": " + e.Message
	}
	if e.Code != "" {
		return "hostgate " + e.Op + ": " + e.Kind + ": " + e.Code + ": " + e.Message
	}
	return "hostgate " + e.Op + ": " + e.Kind + ": " + e.Message
}

func parseCallError(op, msg string) *CallError {
	kind, rest, ok := strings.Cut(msg, ": ")
	if !ok || strings.ContainsAny(kind, " \t") {
		return &CallError{Op: op, Message: msg}
	}
	ce := &CallError{Op: op, Kind: kind, Message: rest}
	if kind == KindFS {
		if code, msg, ok := strings.Cut(rest, ": "); ok && !strings.ContainsAny(code, " \t") {
			ce.Code, ce.Message = code, msg
		}
	}
	return ce
}

// CodeOf returns the platform error code of a failed filesystem call.
func CodeOf(err error) string {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// IsKind reports whether err is a CallError of the given kind.
func IsKind(err error, kind string) bool {
	var ce *CallError
	return errors.As(err, &ce) && ce.Kind == kind
}
