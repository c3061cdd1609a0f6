package bridge

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ppiankov/hostgate/internal/fault"
	"github.com/ppiankov/hostgate/internal/model"
)

// contentConn is the websocket of one content context.
type contentConn struct {
	id   model.ContextID
	conn *websocket.Conn
	send chan any
	done chan struct{}
	once sync.Once
}

func newContentConn(id model.ContextID, conn *websocket.Conn) *contentConn {
	return &contentConn{
		id:   id,
		conn: conn,
		send: make(chan any, 64),
		done: make(chan struct{}),
	}
}

// push queues v for the writer. It blocks while the queue is full, which
// slows a chatty child process down instead of dropping its output.
func (c *contentConn) push(v any) {
	select {
	case c.send <- v:
	case <-c.done:
	}
}

func (c *contentConn) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *contentConn) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.close()

	for {
		select {
		case <-c.done:
			return
		case v := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteJSON(v); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		http.Error(w, "token is required", http.StatusBadRequest)
		return
	}
	target := s.currentTarget()
	if target == nil {
		http.Error(w, "host not ready", http.StatusServiceUnavailable)
		return
	}
	id, ok := s.redeem(token)
	if !ok {
		http.Error(w, "unknown or used token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := newContentConn(id, conn)

	s.mu.Lock()
	old := s.conns[id]
	s.conns[id] = c
	s.mu.Unlock()
	if old != nil {
		old.close()
	}
	s.logger.Debug("content attached", "context", id)

	defer func() {
		c.close()
		s.mu.Lock()
		if s.conns[id] == c {
			delete(s.conns, id)
		}
		s.mu.Unlock()
	}()

	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go c.writeLoop()

	for {
		var f callFrame
		if err := conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("content read failed", "context", id, "error", err)
			}
			return
		}
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return
		}
		if f.Op == "" {
			c.push(errorFrame{ID: f.ID, Error: fault.New(fault.Validation, "op is required").Error()})
			continue
		}

		result, err := target.Invoke(id, f.Op, f.Args)
		if err != nil {
			c.push(errorFrame{ID: f.ID, Error: err.Error()})
			continue
		}
		c.push(resultFrame{ID: f.ID, Result: result})
	}
}
