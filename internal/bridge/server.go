// Package bridge carries IPC between the host and the outside world over
// websockets: one channel per content context and one control channel for
// the desktop shell.
package bridge

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ppiankov/hostgate/internal/model"
	"github.com/ppiankov/hostgate/internal/proc"
	"github.com/ppiankov/hostgate/internal/window"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Content connections authenticate with a single-use token and the
	// shell with its secret, so the Origin header adds nothing.
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// Target is the host as seen by the bridge.
type Target interface {
	Invoke(id model.ContextID, op string, args []json.RawMessage) (any, error)
	Loaded(id model.ContextID, url string)
	Navigated(id model.ContextID, url string)
	Destroyed(id model.ContextID)
	Bounds(id model.ContextID, b window.Bounds)
}

// Options configures a Server.
type Options struct {
	Shell       *ShellRuntime
	ShellSecret string
	Logger      *slog.Logger

	// OnShellAttach runs on its own goroutine each time a shell connects.
	OnShellAttach func()

	// AssetsDir is served under /asset/. Empty disables the route.
	AssetsDir string
}

// Server is the HTTP surface of the bridge. It also implements
// host.EventSink, routing process events to the owning content connection.
type Server struct {
	shell    *ShellRuntime
	secret   string
	onAttach func()
	assets   string
	logger   *slog.Logger
	router   chi.Router
	events   *eventQueue

	mu     sync.Mutex
	target Target
	tokens map[string]model.ContextID
	conns  map[model.ContextID]*contentConn

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer builds the router. Attach must be called before serving.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	shell := opts.Shell
	if shell == nil {
		shell = NewShellRuntime(0, logger)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		shell:    shell,
		secret:   opts.ShellSecret,
		onAttach: opts.OnShellAttach,
		assets:   opts.AssetsDir,
		logger:   logger.With("component", "bridge"),
		events:   newEventQueue(),
		tokens:   make(map[string]model.ContextID),
		conns:    make(map[model.ContextID]*contentConn),
		ctx:      ctx,
		cancel:   cancel,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Get("/ipc", s.handleContent)
	r.Get("/shell", s.handleShell)
	if opts.AssetsDir != "" {
		r.Get("/asset/*", s.handleAsset)
	}
	s.router = r
	return s
}

// Attach sets the host that calls and lifecycle events are routed to and
// starts applying shell events.
func (s *Server) Attach(t Target) {
	s.mu.Lock()
	s.target = t
	s.mu.Unlock()
	go s.applyEvents()
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Shell returns the runtime backed by the shell channel.
func (s *Server) Shell() *ShellRuntime { return s.shell }

// Close stops event application and drops every content connection.
func (s *Server) Close() {
	s.cancel()
	s.mu.Lock()
	conns := s.conns
	s.conns = make(map[model.ContextID]*contentConn)
	s.tokens = make(map[string]model.ContextID)
	s.mu.Unlock()
	for _, c := range conns {
		c.close()
	}
}

// Bind mints a single-use token that attaches one content connection to id.
func (s *Server) Bind(id model.ContextID) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = id
	s.mu.Unlock()
	return token
}

func (s *Server) redeem(token string) (model.ContextID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.tokens[token]
	if ok {
		delete(s.tokens, token)
	}
	return id, ok
}

// Emit delivers a process event to the owner's connection. Events for a
// context without a connection are dropped.
func (s *Server) Emit(owner model.ContextID, ev proc.Event) {
	s.mu.Lock()
	c := s.conns[owner]
	s.mu.Unlock()
	if c == nil {
		return
	}
	c.push(ev)
}

// Detach drops id's connection and any unredeemed tokens for it.
func (s *Server) Detach(id model.ContextID) {
	s.mu.Lock()
	c := s.conns[id]
	delete(s.conns, id)
	for token, owner := range s.tokens {
		if owner == id {
			delete(s.tokens, token)
		}
	}
	s.mu.Unlock()
	if c != nil {
		c.close()
	}
}

func (s *Server) currentTarget() Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	conns := len(s.conns)
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":      "ok",
		"shell":       s.shell.Connected(),
		"connections": conns,
	})
}

func (s *Server) handleShell(w http.ResponseWriter, r *http.Request) {
	if !s.authorizedShell(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.shell.attach(conn)
	defer s.shell.detach(conn)
	if s.onAttach != nil {
		go s.onAttach()
	}

	for {
		var f shellFrame
		if err := conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("shell read failed", "error", err)
			}
			return
		}
		switch {
		case f.Event != "":
			s.events.push(f)
		case f.Op == "bind":
			s.replyBind(conn, f)
		case f.ID != "":
			s.shell.resolve(f)
		default:
			s.logger.Debug("ignoring shell frame without id or event")
		}
	}
}

func (s *Server) replyBind(conn *websocket.Conn, f shellFrame) {
	reply := shellFrame{ID: f.ID}
	if f.Context == 0 {
		reply.Error = "bind requires a context"
	} else {
		token, _ := json.Marshal(s.Bind(f.Context))
		reply.Result = token
	}
	if err := s.shell.write(conn, reply); err != nil {
		s.logger.Warn("bind reply failed", "context", f.Context, "error", err)
	}
}

// authorizedShell checks the bearer secret. With no secret configured the
// shell channel is closed.
func (s *Server) authorizedShell(r *http.Request) bool {
	if s.secret == "" {
		return false
	}
	got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.secret)) == 1
}

// applyEvents hands shell lifecycle events to the host in arrival order.
// It runs apart from the shell reader so a host call waiting on a shell
// reply never blocks behind an event that needs the host.
func (s *Server) applyEvents() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.events.signal:
		}
		t := s.currentTarget()
		for _, f := range s.events.drain() {
			if t == nil {
				continue
			}
			switch f.Event {
			case eventLoaded:
				t.Loaded(f.Context, f.URL)
			case eventNavigated:
				t.Navigated(f.Context, f.URL)
			case eventDestroyed:
				t.Destroyed(f.Context)
			case eventBounds:
				if f.Bounds != nil {
					t.Bounds(f.Context, *f.Bounds)
				}
			default:
				s.logger.Debug("unknown shell event", "event", f.Event)
			}
		}
	}
}
