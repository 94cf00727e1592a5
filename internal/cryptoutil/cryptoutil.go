// Package cryptoutil seals small values at rest with AES-256-GCM.
package cryptoutil

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Sealer encrypts and decrypts values bound to a context string (the additional data).
// A value sealed under one context does not open under another.
type Sealer interface {
	Seal(plaintext []byte, context string) ([]byte, error)
	Open(sealed []byte, context string) ([]byte, error)
}

const (
	// Versioned prefix so the key or algorithm can rotate without rewriting stored data.
	sealPrefixV1 = "v1:"
	noopPrefix   = "noop:"
)

// ErrUnsealed is returned when a value does not carry a known seal prefix.
var ErrUnsealed = errors.New("value is not sealed")

// AESGCM implements Sealer using AES-256-GCM with a random 12-byte nonce.
type AESGCM struct {
	aead cipher.AEAD
}

var _ Sealer = (*AESGCM)(nil)

// NewAESGCM constructs an AESGCM sealer. Key must be 32 bytes.
func NewAESGCM(key []byte) (*AESGCM, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("aes-gcm key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &AESGCM{aead: aead}, nil
}

// KeyFromPassphrase derives a 32-byte key from an operator-supplied string. A value that
// decodes as 32 bytes of hex is used verbatim; anything else is hashed with SHA-256.
func KeyFromPassphrase(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("encryption key is empty")
	}
	if raw, err := hex.DecodeString(s); err == nil && len(raw) == 32 {
		return raw, nil
	}
	sum := sha256.Sum256([]byte(s))
	return sum[:], nil
}

// Seal returns "v1:" + base64(nonce || ciphertext).
func (e *AESGCM) Seal(plaintext []byte, context string) ([]byte, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("read nonce: %w", err)
	}
	ct := e.aead.Seal(nonce, nonce, plaintext, []byte(context))
	out := make([]byte, 0, len(sealPrefixV1)+base64.StdEncoding.EncodedLen(len(ct)))
	out = append(out, sealPrefixV1...)
	return base64.StdEncoding.AppendEncode(out, ct), nil
}

// Open reverses Seal. Values written by Noop are accepted so a store can be upgraded
// to encryption without losing the current session.
func (e *AESGCM) Open(sealed []byte, context string) ([]byte, error) {
	s := string(sealed)
	if strings.HasPrefix(s, noopPrefix) {
		return Noop{}.Open(sealed, context)
	}
	if !strings.HasPrefix(s, sealPrefixV1) {
		return nil, ErrUnsealed
	}
	data, err := base64.StdEncoding.DecodeString(s[len(sealPrefixV1):])
	if err != nil {
		return nil, fmt.Errorf("decode sealed value: %w", err)
	}
	n := e.aead.NonceSize()
	if len(data) < n {
		return nil, errors.New("sealed value too short")
	}
	pt, err := e.aead.Open(nil, data[:n], data[n:], []byte(context))
	if err != nil {
		return nil, fmt.Errorf("open sealed value: %w", err)
	}
	return pt, nil
}

// Noop stores plaintext behind a marker prefix. Used when no key is configured.
type Noop struct{}

var _ Sealer = Noop{}

// Seal implements Sealer.
func (Noop) Seal(plaintext []byte, _ string) ([]byte, error) {
	out := []byte(noopPrefix)
	return base64.StdEncoding.AppendEncode(out, plaintext), nil
}

// Open implements Sealer.
func (Noop) Open(sealed []byte, _ string) ([]byte, error) {
	s := string(sealed)
	if !strings.HasPrefix(s, noopPrefix) {
		return nil, ErrUnsealed
	}
	return base64.StdEncoding.DecodeString(s[len(noopPrefix):])
}
