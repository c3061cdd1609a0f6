package hostgate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// ErrClosed is returned by calls on a closed or disconnected Client.
var ErrClosed = errors.New("hostgate: connection closed")

type reply struct {
	result json.RawMessage
	err    *string
}

type inbound struct {
	ID     *int64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
	Event  string          `json:"event"`
}

// Client is one content connection. Safe for concurrent use; calls are
// answered in the order the host processes them.
type Client struct {
	cfg  clientConfig
	conn *websocket.Conn

	writeMu sync.Mutex

	mu      sync.Mutex
	next    int64
	pending map[int64]chan reply
	err     error

	events  chan Event
	dropped atomic.Int64
	done    chan struct{}

	sessMu  sync.Mutex
	session *trustSession
}

// Dial connects to the content endpoint with a single-use attach token.
func Dial(ctx context.Context, endpoint, token string, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("hostgate: invalid endpoint: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, resp, err := cfg.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("hostgate: dial failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("hostgate: dial: %w", err)
	}

	c := &Client{
		cfg:     cfg,
		conn:    conn,
		pending: make(map[int64]chan reply),
		events:  make(chan Event, cfg.eventBuffer),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Events returns process events pushed by the host. The channel is closed
// when the connection ends.
func (c *Client) Events() <-chan Event { return c.events }

// Dropped returns how many events were discarded because Events was not
// drained fast enough.
func (c *Client) Dropped() int64 { return c.dropped.Load() }

// Close closes the connection.
func (c *Client) Close() error {
	c.writeMu.Lock()
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.writeMu.Unlock()
	err := c.conn.Close()
	<-c.done
	return err
}

// Call invokes op with positional args and returns the raw JSON result.
// Host-side failures are *CallError.
func (c *Client) Call(ctx context.Context, op string, args ...any) (json.RawMessage, error) {
	raw := make([]json.RawMessage, len(args))
	for i, a := range args {
		b, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("hostgate %s: marshal arg %d: %w", op, i, err)
		}
		raw[i] = b
	}

	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return nil, err
	}
	c.next++
	id := c.next
	ch := make(chan reply, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	c.writeMu.Lock()
	err := c.conn.WriteJSON(map[string]any{"id": id, "op": op, "args": raw})
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("hostgate %s: send: %w", op, err)
	}

	if _, ok := ctx.Deadline(); !ok && c.cfg.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.callTimeout)
		defer cancel()
	}

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, parseCallError(op, *r.err)
		}
		return r.result, nil
	case <-c.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, fmt.Errorf("hostgate %s: %w", op, ctx.Err())
	}
}

// CallInto invokes op and decodes the result into out.
func (c *Client) CallInto(ctx context.Context, out any, op string, args ...any) error {
	res, err := c.Call(ctx, op, args...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(res, out); err != nil {
		return fmt.Errorf("hostgate %s: decode result: %w", op, err)
	}
	return nil
}

func (c *Client) readLoop() {
	defer close(c.done)
	defer close(c.events)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.fail(ErrClosed)
			return
		}
		var in inbound
		if err := json.Unmarshal(data, &in); err != nil {
			continue
		}
		if in.Event != "" {
			var ev Event
			if err := json.Unmarshal(data, &ev); err == nil {
				select {
				case c.events <- ev:
				default:
					c.dropped.Add(1)
				}
			}
			continue
		}
		if in.ID == nil {
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[*in.ID]
		c.mu.Unlock()
		if ok {
			ch <- reply{result: in.Result, err: in.Error}
		}
	}
}

func (c *Client) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		c.err = err
	}
}
