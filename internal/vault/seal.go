package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"fmt"

	"github.com/ppiankov/hostgate/internal/fault"
	"github.com/ppiankov/hostgate/internal/session"
)

// TagSize is the GCM authentication tag length appended to every sealed
// credential.
const TagSize = 16

// Seal encrypts plaintext with AES-256-GCM and returns hex(ciphertext || tag).
func Seal(key [session.KeySize]byte, iv [session.IVSize]byte, plaintext []byte) (string, error) {
	aead, err := newGCM(key)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(aead.Seal(nil, iv[:], plaintext, nil)), nil
}

// Open reverses Seal. It is what a trusted client does with the value
// returned by getCredential.
func Open(key [session.KeySize]byte, iv [session.IVSize]byte, sealedHex string) ([]byte, error) {
	data, err := hex.DecodeString(sealedHex)
	if err != nil {
		return nil, fault.Wrap(fault.Validation, err, "sealed credential is not hex")
	}
	if len(data) < TagSize {
		return nil, fault.New(fault.Validation, "sealed credential shorter than tag")
	}
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, iv[:], data, nil)
	if err != nil {
		return nil, fault.Wrap(fault.Mismatch, err, "credential authentication failed")
	}
	return pt, nil
}

func newGCM(key [session.KeySize]byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("aes: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return aead, nil
}
