// Package host is the composition root of the trusted IPC boundary. It owns
// the trust registry, window labels, trust sessions, credential vault and
// process supervisor, and serializes every call and lifecycle event on one
// mutex so each mutation completes within a single turn. Filesystem I/O is
// the exception: it is admitted inside a turn and performed after it.
package host

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/ppiankov/hostgate/internal/audit"
	"github.com/ppiankov/hostgate/internal/config"
	"github.com/ppiankov/hostgate/internal/fault"
	"github.com/ppiankov/hostgate/internal/files"
	"github.com/ppiankov/hostgate/internal/gate"
	"github.com/ppiankov/hostgate/internal/ipc"
	"github.com/ppiankov/hostgate/internal/model"
	"github.com/ppiankov/hostgate/internal/origin"
	"github.com/ppiankov/hostgate/internal/proc"
	"github.com/ppiankov/hostgate/internal/session"
	"github.com/ppiankov/hostgate/internal/trust"
	"github.com/ppiankov/hostgate/internal/vault"
	"github.com/ppiankov/hostgate/internal/window"
)

// WindowSpec is what the runtime needs to open a window.
type WindowSpec struct {
	ipc.WindowOptions
	X         *int `json:"x,omitempty"`
	Y         *int `json:"y,omitempty"`
	Maximized bool `json:"isMaximized,omitempty"`
}

// Runtime is the desktop shell that owns the actual windows. Implementations
// must report lifecycle events asynchronously: calling back into the Host
// from inside a Runtime method deadlocks.
type Runtime interface {
	OpenWindow(label, url string, spec WindowSpec) (model.ContextID, error)
	CloseWindow(id model.ContextID) error
	FocusWindow(id model.ContextID) error
	ReadClipboard() (string, error)
	WriteClipboard(text string) error
	OpenExternal(url string) error
	Quit(exitCode int) error
}

// EventSink receives process events for a context. Detach is called when the
// context is destroyed; later events for it must be dropped.
type EventSink interface {
	proc.Sink
	Detach(id model.ContextID)
}

// Auditor records security-relevant decisions. Record is called from
// concurrent filesystem calls and must be safe for concurrent use.
type Auditor interface {
	Record(entry audit.AuditEntry) error
}

// Options configures a Host. Config and Runtime are required.
type Options struct {
	Config     *config.Config
	ConfigHash string
	Runtime    Runtime
	Backend    vault.Backend // nil means no secure store on this platform
	Audit      Auditor
	Events     EventSink
	State      *window.StateStore
	CLIArgs    []string
	Logger     *slog.Logger
}

// Host routes IPC requests from content contexts to capabilities.
type Host struct {
	mu sync.Mutex

	cfg        *config.Config
	configHash string
	runtime    Runtime
	auditor    Auditor
	events     EventSink
	state      *window.StateStore
	cliArgs    []string
	logger     *slog.Logger

	registry *trust.Registry
	windows  *window.Manager
	sessions *session.Manager
	vault    *vault.Vault
	gate     *gate.Gate
	procs    *proc.Supervisor
	dirs     files.Dirs
}

// New wires a Host from opts.
func New(opts Options) (*Host, error) {
	if opts.Config == nil {
		return nil, fault.New(fault.Validation, "host: config is required")
	}
	if opts.Runtime == nil {
		return nil, fault.New(fault.Validation, "host: runtime is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := &Host{
		cfg:        opts.Config,
		configHash: opts.ConfigHash,
		runtime:    opts.Runtime,
		auditor:    opts.Audit,
		events:     opts.Events,
		state:      opts.State,
		cliArgs:    append([]string(nil), opts.CLIArgs...),
		logger:     logger.With("component", "host"),
	}

	eval := origin.NewEvaluator(opts.Config.TrustedDomains, opts.Config.Stage)
	h.registry = trust.NewRegistry(eval)
	h.windows = window.NewManager()
	h.sessions = session.NewManager(h.registry)
	h.vault = vault.New(opts.Backend, opts.Config.CredentialPrefix, h.sessions)
	h.gate = gate.New(h.registry)
	h.procs = proc.NewSupervisor(proc.SinkFunc(h.emit), logger)
	h.dirs = files.NewDirs(opts.Config.Identifier)
	return h, nil
}

// Invoke gates, decodes and dispatches a wire call. The gate runs before
// decoding so untrusted callers learn nothing about argument validation.
func (h *Host) Invoke(id model.ContextID, op string, args []json.RawMessage) (any, error) {
	h.mu.Lock()
	if err := h.admit(id, op); err != nil {
		h.mu.Unlock()
		return nil, err
	}
	req, err := ipc.Decode(op, args)
	if err != nil {
		h.mu.Unlock()
		return nil, err
	}
	return h.route(id, req)
}

// Call gates and dispatches an already decoded request.
func (h *Host) Call(id model.ContextID, req ipc.Request) (any, error) {
	h.mu.Lock()
	if err := h.admit(id, string(req.Op())); err != nil {
		h.mu.Unlock()
		return nil, err
	}
	return h.route(id, req)
}

// route is entered holding h.mu and releases it. Filesystem requests run
// after the lock is dropped so slow disks never stall the event loop.
func (h *Host) route(id model.ContextID, req ipc.Request) (any, error) {
	if fr, ok := req.(ipc.FileRequest); ok {
		from := h.registry.Origin(id)
		h.mu.Unlock()
		return h.fileOp(id, from, fr)
	}
	defer h.mu.Unlock()
	return h.dispatch(id, req)
}

func (h *Host) admit(id model.ContextID, op string) error {
	if err := h.gate.AssertTrusted(id); err != nil {
		h.logger.Warn("ipc denied", "context", id, "op", op, "origin", h.registry.Origin(id))
		h.record(id, op, "", audit.DecisionDeny, err)
		return err
	}
	return nil
}

// Shutdown terminates spawned processes. It returns the number of processes
// that did not exit in time.
func (h *Host) Shutdown() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.procs.TerminateAll(proc.DefaultTerminateTimeout)
}

// Config returns the configuration the host was built with.
func (h *Host) Config() *config.Config { return h.cfg }

// Vault exposes the credential vault for operator tooling.
func (h *Host) Vault() *vault.Vault { return h.vault }

func (h *Host) emit(owner model.ContextID, ev proc.Event) {
	if h.events != nil {
		h.events.Emit(owner, ev)
	}
}

// record writes an audit entry. Audit failures are logged, never surfaced to
// content.
func (h *Host) record(id model.ContextID, op, scope, decision string, err error) {
	if h.auditor == nil {
		return
	}
	h.recordFrom(id, h.registry.Origin(id), op, scope, decision, err)
}

// recordFrom is record with the origin already resolved. It does not need
// h.mu.
func (h *Host) recordFrom(id model.ContextID, from, op, scope, decision string, err error) {
	if h.auditor == nil {
		return
	}
	entry := audit.AuditEntry{
		ContextID:  uint64(id),
		Origin:     from,
		Op:         op,
		Scope:      scope,
		Decision:   decision,
		ConfigHash: h.configHash,
	}
	if err != nil {
		entry.Reason = string(fault.KindOf(err))
		if entry.Reason == "" {
			entry.Reason = "internal"
		}
	}
	if aerr := h.auditor.Record(entry); aerr != nil {
		h.logger.Error("audit record failed", "op", op, "error", aerr)
	}
}

func (h *Host) outcome(id model.ContextID, op ipc.Op, scope string, err error) {
	decision := audit.DecisionAllow
	if err != nil {
		decision = audit.DecisionError
	}
	h.record(id, string(op), scope, decision, err)
}
