package session

import (
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/ppiankov/hostgate/internal/fault"
	"github.com/ppiankov/hostgate/internal/model"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32
	// IVSize is the AES-GCM nonce length in bytes.
	IVSize = 12
)

// Session is the symmetric key and nonce a trusted context shares with the
// host to receive secrets. Sessions are never persisted.
type Session struct {
	Key           [KeySize]byte
	IV            [IVSize]byte
	EstablishedAt time.Time
}

// TrustSource answers whether a context is currently trusted.
type TrustSource interface {
	IsTrusted(id model.ContextID) bool
}

// Manager holds at most one Session per context.
// Not safe for concurrent use; the host serializes access.
type Manager struct {
	trust    TrustSource
	sessions map[model.ContextID]*Session
}

// NewManager creates a Manager. Establish also refuses contexts that trust
// reports as untrusted; a nil trust skips that check.
func NewManager(trust TrustSource) *Manager {
	return &Manager{
		trust:    trust,
		sessions: make(map[model.ContextID]*Session),
	}
}

// ParseKey decodes a 64-hex-character AES-256 key.
func ParseKey(keyHex string) ([KeySize]byte, error) {
	var out [KeySize]byte
	if err := decodeHex(keyHex, out[:]); err != nil {
		return out, fault.New(fault.Validation, "invalid AES key: must be %d hex characters", KeySize*2)
	}
	return out, nil
}

// ParseIV decodes a 24-hex-character GCM nonce.
func ParseIV(ivHex string) ([IVSize]byte, error) {
	var out [IVSize]byte
	if err := decodeHex(ivHex, out[:]); err != nil {
		return out, fault.New(fault.Validation, "invalid IV: must be %d hex characters", IVSize*2)
	}
	return out, nil
}

func decodeHex(s string, dst []byte) error {
	if len(s) != len(dst)*2 {
		return hex.ErrLength
	}
	_, err := hex.Decode(dst, []byte(s))
	return err
}

// Establish binds a key and iv to id. A second establishment on the same
// context is refused, never silently replaced: a later script must not be
// able to swap a legitimate key.
func (m *Manager) Establish(id model.ContextID, keyHex, ivHex string) error {
	if m.trust != nil && !m.trust.IsTrusted(id) {
		return fault.New(fault.TrustViolation, "trust session requested by untrusted context %s", id)
	}
	key, err := ParseKey(keyHex)
	if err != nil {
		return err
	}
	iv, err := ParseIV(ivHex)
	if err != nil {
		return err
	}
	if _, exists := m.sessions[id]; exists {
		return fault.New(fault.DuplicateTrust, "trust already established for this window")
	}
	m.sessions[id] = &Session{Key: key, IV: iv, EstablishedAt: time.Now().UTC()}
	return nil
}

// Remove tears down the session for id. The caller must present the exact
// key and iv it established with.
func (m *Manager) Remove(id model.ContextID, keyHex, ivHex string) error {
	s, ok := m.sessions[id]
	if !ok {
		return fault.New(fault.NoTrust, "no trust established for this window")
	}
	key, kerr := ParseKey(keyHex)
	iv, ierr := ParseIV(ivHex)
	if kerr != nil || ierr != nil ||
		subtle.ConstantTimeCompare(key[:], s.Key[:]) != 1 ||
		subtle.ConstantTimeCompare(iv[:], s.IV[:]) != 1 {
		return fault.New(fault.Mismatch, "provided key and IV do not match")
	}
	delete(m.sessions, id)
	return nil
}

// Destroy drops the session for id unconditionally. Used on navigation and
// on context destruction. Returns true if a session existed.
func (m *Manager) Destroy(id model.ContextID) bool {
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// Lookup returns a copy of the active session for id.
func (m *Manager) Lookup(id model.ContextID) (Session, bool) {
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Active reports whether id has an established session.
func (m *Manager) Active(id model.ContextID) bool {
	_, ok := m.sessions[id]
	return ok
}

// Len returns the number of active sessions.
func (m *Manager) Len() int {
	return len(m.sessions)
}
