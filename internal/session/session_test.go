package session

import (
	"strings"
	"testing"

	"github.com/ppiankov/hostgate/internal/fault"
	"github.com/ppiankov/hostgate/internal/model"
)

const (
	testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
	testIV  = "a0a1a2a3a4a5a6a7a8a9aaab"
	otherIV = "b0b1b2b3b4b5b6b7b8b9babb"
)

type trustAll map[model.ContextID]bool

func (t trustAll) IsTrusted(id model.ContextID) bool { return t[id] }

func newManager() *Manager {
	return NewManager(trustAll{1: true, 2: true})
}

func TestEstablishThenDuplicate(t *testing.T) {
	m := newManager()
	if err := m.Establish(1, testKey, testIV); err != nil {
		t.Fatalf("first establish: %v", err)
	}
	err := m.Establish(1, testKey, otherIV)
	if !fault.Is(err, fault.DuplicateTrust) {
		t.Fatalf("expected DuplicateTrustError, got %v", err)
	}
	s, _ := m.Lookup(1)
	if s.IV[0] != 0xa0 {
		t.Error("duplicate establish must leave the original session unchanged")
	}
}

func TestEstablishValidation(t *testing.T) {
	tests := []struct {
		name    string
		key, iv string
	}{
		{"short key", testKey[:62], testIV},
		{"long key", testKey + "00", testIV},
		{"non-hex key", strings.Repeat("zz", 32), testIV},
		{"short iv", testKey, testIV[:22]},
		{"non-hex iv", testKey, strings.Repeat("g", 24)},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		m := newManager()
		err := m.Establish(1, tt.key, tt.iv)
		if !fault.Is(err, fault.Validation) {
			t.Errorf("%s: expected ValidationError, got %v", tt.name, err)
		}
		if m.Active(1) {
			t.Errorf("%s: session must not be created", tt.name)
		}
	}
}

func TestEstablishAcceptsUppercaseHex(t *testing.T) {
	m := newManager()
	if err := m.Establish(1, strings.ToUpper(testKey), strings.ToUpper(testIV)); err != nil {
		t.Fatal(err)
	}
	if err := m.Remove(1, testKey, testIV); err != nil {
		t.Fatalf("expected byte-equal lowercase pair to match: %v", err)
	}
}

func TestEstablishUntrustedContext(t *testing.T) {
	m := newManager()
	err := m.Establish(9, testKey, testIV)
	if !fault.Is(err, fault.TrustViolation) {
		t.Fatalf("expected TrustViolation, got %v", err)
	}
}

func TestRemoveMismatch(t *testing.T) {
	m := newManager()
	m.Establish(1, testKey, testIV)

	if err := m.Remove(1, testKey, otherIV); !fault.Is(err, fault.Mismatch) {
		t.Fatalf("expected MismatchError, got %v", err)
	}
	if err := m.Remove(1, "garbage", testIV); !fault.Is(err, fault.Mismatch) {
		t.Fatalf("expected MismatchError for malformed key, got %v", err)
	}
	if !m.Active(1) {
		t.Error("mismatched remove must not tear down the session")
	}
}

func TestRemoveMatchThenEstablishAgain(t *testing.T) {
	m := newManager()
	m.Establish(1, testKey, testIV)
	if err := m.Remove(1, testKey, testIV); err != nil {
		t.Fatal(err)
	}
	if m.Active(1) {
		t.Fatal("expected no session after remove")
	}
	if err := m.Establish(1, testKey, otherIV); err != nil {
		t.Fatalf("expected re-establish after remove: %v", err)
	}
}

func TestRemoveWithoutSession(t *testing.T) {
	m := newManager()
	if err := m.Remove(1, testKey, testIV); !fault.Is(err, fault.NoTrust) {
		t.Fatalf("expected NoTrustError, got %v", err)
	}
}

func TestDestroyIsUnconditional(t *testing.T) {
	m := newManager()
	m.Establish(1, testKey, testIV)
	m.Establish(2, testKey, testIV)
	if !m.Destroy(1) {
		t.Error("expected Destroy to report a dropped session")
	}
	if m.Destroy(1) {
		t.Error("second Destroy should be a no-op")
	}
	if m.Active(1) || !m.Active(2) {
		t.Error("Destroy must only affect its own context")
	}
	if m.Len() != 1 {
		t.Errorf("expected 1 session, got %d", m.Len())
	}
}
