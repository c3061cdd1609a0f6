package bridge

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ppiankov/hostgate/internal/fault"
	"github.com/ppiankov/hostgate/internal/host"
	"github.com/ppiankov/hostgate/internal/model"
)

// DefaultReplyTimeout bounds how long a host command waits for the shell.
const DefaultReplyTimeout = 10 * time.Second

var (
	errShellGone     = errors.New("shell disconnected")
	errShellReplaced = errors.New("shell replaced by a new connection")
)

type shellReply struct {
	result json.RawMessage
	err    string
}

// ShellRuntime implements host.Runtime by forwarding commands to the
// desktop shell connected on the shell channel.
type ShellRuntime struct {
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	seq     uint64
	pending map[string]chan shellReply

	writeMu sync.Mutex
}

var _ host.Runtime = (*ShellRuntime)(nil)

// NewShellRuntime returns a ShellRuntime with no shell attached yet.
func NewShellRuntime(timeout time.Duration, logger *slog.Logger) *ShellRuntime {
	if timeout <= 0 {
		timeout = DefaultReplyTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ShellRuntime{
		timeout: timeout,
		logger:  logger.With("component", "shell"),
		pending: make(map[string]chan shellReply),
	}
}

// Connected reports whether a shell is attached.
func (r *ShellRuntime) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn != nil
}

func (r *ShellRuntime) OpenWindow(label, url string, spec host.WindowSpec) (model.ContextID, error) {
	var out struct {
		Context model.ContextID `json:"context"`
	}
	args := struct {
		Label string          `json:"label"`
		URL   string          `json:"url"`
		Spec  host.WindowSpec `json:"options"`
	}{label, url, spec}
	if err := r.call("openWindow", args, &out); err != nil {
		return 0, err
	}
	if out.Context == 0 {
		return 0, fault.New(fault.Runtime, "shell returned no context for window %s", label)
	}
	return out.Context, nil
}

func (r *ShellRuntime) CloseWindow(id model.ContextID) error {
	return r.call("closeWindow", map[string]model.ContextID{"context": id}, nil)
}

func (r *ShellRuntime) FocusWindow(id model.ContextID) error {
	return r.call("focusWindow", map[string]model.ContextID{"context": id}, nil)
}

func (r *ShellRuntime) ReadClipboard() (string, error) {
	var text string
	err := r.call("readClipboard", nil, &text)
	return text, err
}

func (r *ShellRuntime) WriteClipboard(text string) error {
	return r.call("writeClipboard", map[string]string{"text": text}, nil)
}

func (r *ShellRuntime) OpenExternal(url string) error {
	return r.call("openExternal", map[string]string{"url": url}, nil)
}

func (r *ShellRuntime) Quit(exitCode int) error {
	return r.call("quit", map[string]int{"exitCode": exitCode}, nil)
}

// call sends a command and waits for the correlated reply.
func (r *ShellRuntime) call(op string, args any, out any) error {
	r.mu.Lock()
	conn := r.conn
	if conn == nil {
		r.mu.Unlock()
		return fault.New(fault.Runtime, "%s: shell not connected", op)
	}
	r.seq++
	id := "h" + strconv.FormatUint(r.seq, 10)
	ch := make(chan shellReply, 1)
	r.pending[id] = ch
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.pending, id)
		r.mu.Unlock()
	}()

	if err := r.write(conn, shellFrame{ID: id, Op: op, Args: args}); err != nil {
		return fault.Wrap(fault.Runtime, err, "%s: send to shell", op)
	}

	select {
	case reply := <-ch:
		if reply.err != "" {
			return fault.New(fault.Runtime, "%s: %s", op, reply.err)
		}
		if out != nil && len(reply.result) > 0 {
			if err := json.Unmarshal(reply.result, out); err != nil {
				return fault.Wrap(fault.Runtime, err, "%s: bad reply", op)
			}
		}
		return nil
	case <-time.After(r.timeout):
		return fault.New(fault.Runtime, "%s: shell did not reply within %s", op, r.timeout)
	}
}

func (r *ShellRuntime) write(conn *websocket.Conn, f shellFrame) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(f)
}

// attach makes conn the current shell. A previous shell is closed and its
// pending commands fail immediately; every pending command was sent to it.
func (r *ShellRuntime) attach(conn *websocket.Conn) {
	r.mu.Lock()
	old := r.conn
	r.conn = conn
	var pending map[string]chan shellReply
	if old != nil {
		pending = r.pending
		r.pending = make(map[string]chan shellReply)
	}
	r.mu.Unlock()

	if old != nil {
		old.Close()
		for _, ch := range pending {
			ch <- shellReply{err: errShellReplaced.Error()}
		}
		r.logger.Warn("shell replaced", "failed_commands", len(pending))
	}
	r.logger.Info("shell attached", "remote", conn.RemoteAddr().String())
}

// detach forgets conn if it is still current and fails its pending commands.
func (r *ShellRuntime) detach(conn *websocket.Conn) {
	r.mu.Lock()
	if r.conn != conn {
		r.mu.Unlock()
		return
	}
	r.conn = nil
	pending := r.pending
	r.pending = make(map[string]chan shellReply)
	r.mu.Unlock()

	for _, ch := range pending {
		ch <- shellReply{err: errShellGone.Error()}
	}
	r.logger.Warn("shell detached", "failed_commands", len(pending))
}

// resolve delivers a shell reply to the waiting command, if any.
func (r *ShellRuntime) resolve(f shellFrame) {
	r.mu.Lock()
	ch, ok := r.pending[f.ID]
	delete(r.pending, f.ID)
	r.mu.Unlock()
	if !ok {
		r.logger.Debug("reply for unknown command", "id", f.ID)
		return
	}
	ch <- shellReply{result: f.Result, err: f.Error}
}

// eventQueue is an unbounded FIFO of shell lifecycle events. The shell
// reader pushes without blocking; one goroutine applies them in order.
type eventQueue struct {
	mu     sync.Mutex
	items  []shellFrame
	signal chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{signal: make(chan struct{}, 1)}
}

func (q *eventQueue) push(f shellFrame) {
	q.mu.Lock()
	q.items = append(q.items, f)
	q.mu.Unlock()
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *eventQueue) drain() []shellFrame {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}
