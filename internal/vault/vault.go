// Package vault mediates access to secrets held in the platform secure
// store. Secrets leave the vault only encrypted under the calling context's
// trust session; plaintext never crosses the IPC boundary.
package vault

import (
	"errors"
	"os"
	"os/user"
	"strings"

	"github.com/ppiankov/hostgate/internal/fault"
	"github.com/ppiankov/hostgate/internal/model"
	"github.com/ppiankov/hostgate/internal/session"
)

// envelopeTag prefixes every value the vault writes. Empty secrets become
// the non-empty string "hg1:", which some backends require, and emptiness is
// carried by the tag rather than by a reserved secret value.
const envelopeTag = "hg1:"

// SessionSource returns the active trust session of a context.
type SessionSource interface {
	Lookup(id model.ContextID) (session.Session, bool)
}

// Vault stores and reveals credentials.
type Vault struct {
	backend  Backend
	prefix   string
	account  string
	sessions SessionSource
}

// New creates a Vault. A nil backend yields a vault whose every operation
// fails with VaultUnavailable.
func New(backend Backend, prefix string, sessions SessionSource) *Vault {
	return &Vault{
		backend:  backend,
		prefix:   prefix,
		account:  CurrentAccount(),
		sessions: sessions,
	}
}

// CurrentAccount is the OS account secrets are addressed by.
func CurrentAccount() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "user"
}

// Account returns the account this vault addresses.
func (v *Vault) Account() string { return v.account }

// Service returns the secure-store service name for scope.
func (v *Vault) Service(scope string) string { return v.prefix + scope }

// Store writes secret under scope. A nil or empty secret is stored as an
// empty credential. No trust session is required, only origin trust, which
// the IPC gate has already checked.
func (v *Vault) Store(scope string, secret *string) error {
	if err := v.ready(scope); err != nil {
		return err
	}
	val := ""
	if secret != nil {
		val = *secret
	}
	if err := v.backend.Set(v.Service(scope), v.account, envelopeTag+val); err != nil {
		if errors.Is(err, ErrTooBig) {
			return fault.Wrap(fault.Validation, err, "credential for scope %q rejected", scope)
		}
		return fault.Wrap(fault.VaultUnavailable, err, "secure store write failed")
	}
	return nil
}

// Get returns the credential for scope sealed under id's trust session as
// hex(ciphertext || tag). found is false when no credential exists.
func (v *Vault) Get(id model.ContextID, scope string) (ciphertext string, found bool, err error) {
	if err := v.ready(scope); err != nil {
		return "", false, err
	}
	if v.sessions == nil {
		return "", false, fault.New(fault.NoTrust, "credentials cannot be read without trust sessions")
	}
	sess, ok := v.sessions.Lookup(id)
	if !ok {
		return "", false, fault.New(fault.NoTrust, "trust must be established before credentials can be read")
	}
	raw, err := v.backend.Get(v.Service(scope), v.account)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", false, nil
		}
		return "", false, fault.Wrap(fault.VaultUnavailable, err, "secure store read failed")
	}
	ct, err := Seal(sess.Key, sess.IV, []byte(unwrap(raw)))
	if err != nil {
		return "", false, err
	}
	return ct, true, nil
}

// Delete removes the credential for scope. Deleting an absent credential is
// an error so callers can detect drift.
func (v *Vault) Delete(scope string) error {
	if err := v.ready(scope); err != nil {
		return err
	}
	if err := v.backend.Delete(v.Service(scope), v.account); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fault.New(fault.NotFound, "no credential stored for scope %q", scope)
		}
		return fault.Wrap(fault.VaultUnavailable, err, "secure store delete failed")
	}
	return nil
}

// Probe checks that the backend answers at all.
func (v *Vault) Probe() error {
	if v == nil || v.backend == nil {
		return fault.New(fault.VaultUnavailable, "no secure store available on this platform")
	}
	_, err := v.backend.Get(v.prefix+"__probe__", v.account)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fault.Wrap(fault.VaultUnavailable, err, "secure store not reachable")
	}
	return nil
}

func (v *Vault) ready(scope string) error {
	if v == nil || v.backend == nil {
		return fault.New(fault.VaultUnavailable, "no secure store available on this platform")
	}
	if scope == "" {
		return fault.New(fault.Validation, "credential scope must not be empty")
	}
	return nil
}

// unwrap strips the envelope. Values written before the envelope existed
// are returned as-is.
func unwrap(raw string) string {
	return strings.TrimPrefix(raw, envelopeTag)
}
