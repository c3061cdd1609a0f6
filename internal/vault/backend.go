package vault

import (
	"errors"
	"sync"

	"github.com/zalando/go-keyring"
)

// ErrNotFound is returned by a Backend when no secret exists.
var ErrNotFound = errors.New("secret not found")

// ErrTooBig is returned by a Backend that cannot hold the secret.
var ErrTooBig = errors.New("secret too large for secure store")

// Backend is the platform secure store. Entries are addressed by service
// name and OS account.
type Backend interface {
	Set(service, account, secret string) error
	Get(service, account string) (string, error)
	Delete(service, account string) error
}

// KeyringBackend stores secrets in the OS keychain: Keychain on macOS,
// the Secret Service (libsecret) on Linux, Credential Manager on Windows.
type KeyringBackend struct{}

func (KeyringBackend) Set(service, account, secret string) error {
	return mapKeyringErr(keyring.Set(service, account, secret))
}

func (KeyringBackend) Get(service, account string) (string, error) {
	s, err := keyring.Get(service, account)
	return s, mapKeyringErr(err)
}

func (KeyringBackend) Delete(service, account string) error {
	return mapKeyringErr(keyring.Delete(service, account))
}

func mapKeyringErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, keyring.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, keyring.ErrSetDataTooBig):
		return ErrTooBig
	}
	return err
}

// MemoryBackend keeps secrets in process memory. For tests and dev runs on
// machines without a secure store.
type MemoryBackend struct {
	mu      sync.Mutex
	secrets map[string]string
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{secrets: make(map[string]string)}
}

func (m *MemoryBackend) Set(service, account, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[service+"\x00"+account] = secret
	return nil
}

func (m *MemoryBackend) Get(service, account string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.secrets[service+"\x00"+account]
	if !ok {
		return "", ErrNotFound
	}
	return s, nil
}

func (m *MemoryBackend) Delete(service, account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := service + "\x00" + account
	if _, ok := m.secrets[key]; !ok {
		return ErrNotFound
	}
	delete(m.secrets, key)
	return nil
}
