package hostgate

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/ppiankov/hostgate/internal/session"
	"github.com/ppiankov/hostgate/internal/vault"
)

type trustSession struct {
	key [session.KeySize]byte
	iv  [session.IVSize]byte
}

// EstablishTrust generates a fresh key and IV and registers them with the
// host. The host accepts this once per page load.
func (c *Client) EstablishTrust(ctx context.Context) error {
	var s trustSession
	if _, err := rand.Read(s.key[:]); err != nil {
		return fmt.Errorf("hostgate: generate key: %w", err)
	}
	if _, err := rand.Read(s.iv[:]); err != nil {
		return fmt.Errorf("hostgate: generate iv: %w", err)
	}
	if _, err := c.Call(ctx, "establishTrustKey", hex.EncodeToString(s.key[:]), hex.EncodeToString(s.iv[:])); err != nil {
		return err
	}
	c.sessMu.Lock()
	c.session = &s
	c.sessMu.Unlock()
	return nil
}

// RemoveTrust ends the session established by EstablishTrust.
func (c *Client) RemoveTrust(ctx context.Context) error {
	s := c.currentSession()
	if s == nil {
		return &CallError{Op: "removeTrustKey", Kind: KindNoTrust, Message: "no trust session held by this client"}
	}
	if _, err := c.Call(ctx, "removeTrustKey", hex.EncodeToString(s.key[:]), hex.EncodeToString(s.iv[:])); err != nil {
		return err
	}
	c.sessMu.Lock()
	c.session = nil
	c.sessMu.Unlock()
	return nil
}

// StoreCredential saves secret under scope. An empty secret is stored as an
// empty credential, distinct from no credential.
func (c *Client) StoreCredential(ctx context.Context, scope, secret string) error {
	_, err := c.Call(ctx, "storeCredential", scope, secret)
	return err
}

// GetCredential fetches and decrypts the credential for scope. found is
// false when nothing is stored.
func (c *Client) GetCredential(ctx context.Context, scope string) (secret string, found bool, err error) {
	s := c.currentSession()
	if s == nil {
		return "", false, &CallError{Op: "getCredential", Kind: KindNoTrust, Message: "no trust session held by this client"}
	}
	res, err := c.Call(ctx, "getCredential", scope)
	if err != nil {
		return "", false, err
	}
	var sealed *string
	if err := json.Unmarshal(res, &sealed); err != nil {
		return "", false, fmt.Errorf("hostgate getCredential: decode result: %w", err)
	}
	if sealed == nil {
		return "", false, nil
	}
	pt, err := vault.Open(s.key, s.iv, *sealed)
	if err != nil {
		return "", false, fmt.Errorf("hostgate getCredential: %w", err)
	}
	return string(pt), true, nil
}

// DeleteCredential removes the credential for scope.
func (c *Client) DeleteCredential(ctx context.Context, scope string) error {
	_, err := c.Call(ctx, "deleteCredential", scope)
	return err
}

func (c *Client) currentSession() *trustSession {
	c.sessMu.Lock()
	defer c.sessMu.Unlock()
	return c.session
}
