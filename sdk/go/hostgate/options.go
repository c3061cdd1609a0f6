package hostgate

import (
	"time"

	"github.com/gorilla/websocket"
)

// Option configures a Client at dial time.
type Option func(*clientConfig)

type clientConfig struct {
	dialer      *websocket.Dialer
	callTimeout time.Duration
	eventBuffer int
}

func defaultConfig() clientConfig {
	return clientConfig{
		dialer:      websocket.DefaultDialer,
		callTimeout: 30 * time.Second,
		eventBuffer: 256,
	}
}

// WithDialer sets the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *clientConfig) { c.dialer = d }
}

// WithCallTimeout bounds calls whose context has no deadline.
func WithCallTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.callTimeout = d }
}

// WithEventBuffer sets how many process events are buffered before new
// ones are dropped.
func WithEventBuffer(n int) Option {
	return func(c *clientConfig) { c.eventBuffer = n }
}
