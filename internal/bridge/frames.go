package bridge

import (
	"encoding/json"

	"github.com/ppiankov/hostgate/internal/model"
	"github.com/ppiankov/hostgate/internal/window"
)

// callFrame is a content request: {"id","op","args"}.
type callFrame struct {
	ID   json.RawMessage   `json:"id"`
	Op   string            `json:"op"`
	Args []json.RawMessage `json:"args"`
}

type resultFrame struct {
	ID     json.RawMessage `json:"id"`
	Result any             `json:"result"`
}

// errorFrame carries only the message string; content never sees anything
// richer than "<Kind>: message".
type errorFrame struct {
	ID    json.RawMessage `json:"id"`
	Error string          `json:"error"`
}

// Shell lifecycle event names.
const (
	eventLoaded    = "loaded"
	eventNavigated = "navigated"
	eventDestroyed = "destroyed"
	eventBounds    = "bounds"
)

// shellFrame is every message on the shell channel. Host commands carry
// ID+Op+Args, shell replies carry ID+Result or ID+Error, shell lifecycle
// events carry Event+Context, and a shell "bind" request carries
// ID+Op+Context.
type shellFrame struct {
	ID      string          `json:"id,omitempty"`
	Op      string          `json:"op,omitempty"`
	Args    any             `json:"args,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
	Event   string          `json:"event,omitempty"`
	Context model.ContextID `json:"context,omitempty"`
	URL     string          `json:"url,omitempty"`
	Bounds  *window.Bounds  `json:"bounds,omitempty"`
}
