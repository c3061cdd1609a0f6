package proc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/hostgate/internal/model"
)

// DefaultTerminateTimeout bounds how long shutdown waits for each process.
const DefaultTerminateTimeout = time.Second

// stdinQueueSize is how many writes may wait for a child that is not
// reading its stdin.
const stdinQueueSize = 64

// ErrStdinFull is returned by Write when the child has stopped draining
// its stdin and the queue is full. The data is dropped.
var ErrStdinFull = errors.New("stdin queue full")

// EventKind is the wire name of a process event.
type EventKind string

const (
	Stdout EventKind = "process-stdout"
	Stderr EventKind = "process-stderr"
	Closed EventKind = "process-close"
	Failed EventKind = "process-error"
)

// Event is streamed to the context that spawned the process.
type Event struct {
	Kind     EventKind `json:"event"`
	Instance int       `json:"instanceId"`
	Data     string    `json:"data,omitempty"`
	Code     *int      `json:"code,omitempty"`
	Signal   string    `json:"signal,omitempty"`
	Message  string    `json:"message,omitempty"`
}

// Sink delivers events to a content context. Events for a context that is
// gone are dropped by the sink.
type Sink interface {
	Emit(owner model.ContextID, ev Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(owner model.ContextID, ev Event)

func (f SinkFunc) Emit(owner model.ContextID, ev Event) { f(owner, ev) }

type instance struct {
	owner  model.ContextID
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	writes chan string
	done   chan struct{}
}

// writeLoop feeds queued writes to stdin. It is the only goroutine that
// touches the pipe, so a child that never reads blocks only this loop.
func (inst *instance) writeLoop(id int, logger *slog.Logger) {
	for {
		select {
		case <-inst.done:
			return
		case data := <-inst.writes:
			if _, err := io.WriteString(inst.stdin, data); err != nil {
				logger.Debug("stdin write failed", "instance", id, "error", err)
				return
			}
		}
	}
}

// Supervisor runs child processes on behalf of content contexts.
type Supervisor struct {
	mu     sync.Mutex
	next   int
	procs  map[int]*instance
	sink   Sink
	logger *slog.Logger
}

// NewSupervisor creates a Supervisor delivering events to sink.
func NewSupervisor(sink Sink, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		procs:  make(map[int]*instance),
		sink:   sink,
		logger: logger.With("component", "proc"),
	}
}

// Spawn starts command for owner and returns its instance id. Stdout is
// streamed line by line, stderr per chunk, then a close event.
func (s *Supervisor) Spawn(owner model.ContextID, command string, args []string) (int, error) {
	if command == "" {
		return 0, fmt.Errorf("command must not be empty")
	}

	cmd := exec.Command(command, args...)
	setProcAttr(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return 0, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 0, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return 0, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start %s: %w", command, err)
	}

	inst := &instance{
		owner:  owner,
		cmd:    cmd,
		stdin:  stdin,
		writes: make(chan string, stdinQueueSize),
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	s.next++
	id := s.next
	s.procs[id] = inst
	s.mu.Unlock()

	s.logger.Info("spawned", "instance", id, "command", command, "args", args, "owner", owner)

	go inst.writeLoop(id, s.logger)

	var readers sync.WaitGroup
	readers.Add(2)
	go func() {
		defer readers.Done()
		s.readLines(owner, id, stdout)
	}()
	go func() {
		defer readers.Done()
		buf := make([]byte, 32*1024)
		for {
			n, err := stderr.Read(buf)
			if n > 0 {
				s.emit(owner, Event{Kind: Stderr, Instance: id, Data: string(buf[:n])})
			}
			if err != nil {
				return
			}
		}
	}()

	go func() {
		readers.Wait()
		err := cmd.Wait()
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			s.emit(owner, Event{Kind: Failed, Instance: id, Message: err.Error()})
		} else {
			code, signal := exitStatus(cmd)
			s.emit(owner, Event{Kind: Closed, Instance: id, Code: code, Signal: signal})
			if code != nil {
				s.logger.Info("exited", "instance", id, "code", *code)
			} else {
				s.logger.Info("exited", "instance", id, "signal", signal)
			}
		}

		s.mu.Lock()
		delete(s.procs, id)
		s.mu.Unlock()
		close(inst.done)
	}()

	return id, nil
}

// readLines emits stdout one line at a time without the trailing newline.
// Lines have no length limit; a final line without a newline is emitted at
// EOF.
func (s *Supervisor) readLines(owner model.ContextID, id int, r io.Reader) {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			if line != "" {
				s.emit(owner, Event{Kind: Stdout, Instance: id, Data: line})
			}
			return
		}
		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
		s.emit(owner, Event{Kind: Stdout, Instance: id, Data: line})
	}
}

// Write queues data for the stdin of a live instance and returns without
// waiting for the child to read it. Unknown or finished instances are
// ignored. A full queue drops data and returns ErrStdinFull.
func (s *Supervisor) Write(instanceID int, data string) error {
	s.mu.Lock()
	inst, ok := s.procs[instanceID]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	select {
	case <-inst.done:
		return nil
	default:
	}
	select {
	case inst.writes <- data:
		return nil
	default:
		return fmt.Errorf("write to instance %d: %w", instanceID, ErrStdinFull)
	}
}

// Live returns the number of running instances.
func (s *Supervisor) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.procs)
}

// TerminateAll asks every live process to terminate, waiting up to timeout
// for each to confirm. Processes that do not exit in time are left behind
// rather than blocking shutdown. Returns the number left behind.
func (s *Supervisor) TerminateAll(timeout time.Duration) int {
	if timeout <= 0 {
		timeout = DefaultTerminateTimeout
	}

	s.mu.Lock()
	live := make(map[int]*instance, len(s.procs))
	for id, inst := range s.procs {
		live[id] = inst
	}
	s.mu.Unlock()

	stragglers := 0
	for id, inst := range live {
		select {
		case <-inst.done:
			continue
		default:
		}
		if err := terminate(inst.cmd); err != nil {
			s.logger.Debug("terminate signal failed", "instance", id, "error", err)
		}
		select {
		case <-inst.done:
		case <-time.After(timeout):
			stragglers++
			s.logger.Warn("process did not exit in time", "instance", id, "timeout", timeout)
		}
	}
	return stragglers
}

func (s *Supervisor) emit(owner model.ContextID, ev Event) {
	if s.sink != nil {
		s.sink.Emit(owner, ev)
	}
}
