package ipc

import (
	"bytes"
	"encoding/json"

	"github.com/ppiankov/hostgate/internal/fault"
)

// Decode maps an operation name and its positional JSON arguments to a
// Request. Unknown operations, wrong arity and wrongly typed arguments are
// ValidationErrors.
func Decode(op string, args []json.RawMessage) (Request, error) {
	d := decoder{op: op, args: args}

	switch Op(op) {
	case OpEstablishTrustKey:
		var r EstablishTrustKey
		d.arity(2, 2)
		d.required(0, "key", &r.Key)
		d.required(1, "iv", &r.IV)
		return r, d.err
	case OpRemoveTrustKey:
		var r RemoveTrustKey
		d.arity(2, 2)
		d.required(0, "key", &r.Key)
		d.required(1, "iv", &r.IV)
		return r, d.err
	case OpStoreCredential:
		var r StoreCredential
		d.arity(1, 2)
		d.required(0, "scope", &r.Scope)
		d.optional(1, "secret", &r.Secret)
		return r, d.err
	case OpGetCredential:
		var r GetCredential
		d.arity(1, 1)
		d.required(0, "scope", &r.Scope)
		return r, d.err
	case OpDeleteCredential:
		var r DeleteCredential
		d.arity(1, 1)
		d.required(0, "scope", &r.Scope)
		return r, d.err
	case OpCreateWindow:
		var r CreateWindow
		d.arity(1, 2)
		d.required(0, "url", &r.URL)
		d.optional(1, "options", &r.Options)
		return r, d.err
	case OpCloseWindow:
		d.arity(0, 0)
		return CloseWindow{}, d.err
	case OpCloseWindowByLabel:
		var r CloseWindowByLabel
		d.arity(1, 1)
		d.required(0, "label", &r.Label)
		return r, d.err
	case OpGetWindowLabels:
		d.arity(0, 0)
		return GetWindowLabels{}, d.err
	case OpGetCurrentWindowLabel:
		d.arity(0, 0)
		return GetCurrentWindowLabel{}, d.err
	case OpFocusWindow:
		d.arity(0, 0)
		return FocusWindow{}, d.err
	case OpSpawnProcess:
		var r SpawnProcess
		d.arity(1, 2)
		d.required(0, "command", &r.Command)
		d.optional(1, "args", &r.Args)
		return r, d.err
	case OpWriteToProcess:
		var r WriteToProcess
		d.arity(2, 2)
		d.required(0, "instanceId", &r.Instance)
		d.required(1, "data", &r.Data)
		return r, d.err
	case OpReadClipboard:
		d.arity(0, 0)
		return ReadClipboard{}, d.err
	case OpWriteClipboard:
		var r WriteClipboard
		d.arity(1, 1)
		d.required(0, "text", &r.Text)
		return r, d.err
	case OpOpenExternal:
		var r OpenExternal
		d.arity(1, 1)
		d.required(0, "url", &r.URL)
		return r, d.err
	case OpGetAppName:
		d.arity(0, 0)
		return GetAppName{}, d.err
	case OpGetCLIArgs:
		d.arity(0, 0)
		return GetCLIArgs{}, d.err
	case OpQuitApp:
		var r QuitApp
		d.arity(0, 1)
		d.optional(0, "exitCode", &r.ExitCode)
		return r, d.err
	case OpConsoleLog:
		var r ConsoleLog
		d.arity(1, 1)
		d.required(0, "message", &r.Message)
		return r, d.err
	}
	if req, ok := decodeFile(&d); ok {
		return req, d.err
	}
	return nil, fault.New(fault.Validation, "unknown operation %q", op)
}

// decoder records the first error and turns later steps into no-ops.
type decoder struct {
	op   string
	args []json.RawMessage
	err  error
}

func (d *decoder) arity(lo, hi int) {
	if d.err != nil {
		return
	}
	if n := len(d.args); n < lo || n > hi {
		if lo == hi {
			d.err = fault.New(fault.Validation, "%s expects %d argument(s), got %d", d.op, lo, n)
		} else {
			d.err = fault.New(fault.Validation, "%s expects %d to %d arguments, got %d", d.op, lo, hi, n)
		}
	}
}

func (d *decoder) required(i int, name string, dst any) {
	if d.err != nil {
		return
	}
	if i >= len(d.args) || isNull(d.args[i]) {
		d.err = fault.New(fault.Validation, "%s: %s is required", d.op, name)
		return
	}
	d.unmarshal(i, name, dst)
}

func (d *decoder) optional(i int, name string, dst any) {
	if d.err != nil || i >= len(d.args) || isNull(d.args[i]) {
		return
	}
	d.unmarshal(i, name, dst)
}

func (d *decoder) unmarshal(i int, name string, dst any) {
	dec := json.NewDecoder(bytes.NewReader(d.args[i]))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		d.err = fault.Wrap(fault.Validation, err, "%s: invalid %s", d.op, name)
	}
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
