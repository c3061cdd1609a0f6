package gate

import (
	"github.com/ppiankov/hostgate/internal/fault"
	"github.com/ppiankov/hostgate/internal/model"
)

// TrustSource answers whether a context is currently trusted.
type TrustSource interface {
	IsTrusted(id model.ContextID) bool
	Origin(id model.ContextID) string
}

// Gate is the single authorization checkpoint for privileged operations.
type Gate struct {
	trust TrustSource
}

// New creates a Gate backed by the trust registry.
func New(trust TrustSource) *Gate {
	return &Gate{trust: trust}
}

// AssertTrusted must be the first statement of every privileged operation.
// It is a map lookup; trust is evaluated once per navigation, not per call.
func (g *Gate) AssertTrusted(id model.ContextID) error {
	if g == nil || g.trust == nil {
		return fault.New(fault.TrustViolation, "blocked IPC: no trust registry")
	}
	if !g.trust.IsTrusted(id) {
		return fault.New(fault.TrustViolation, "blocked IPC from untrusted origin: %s", g.trust.Origin(id))
	}
	return nil
}
