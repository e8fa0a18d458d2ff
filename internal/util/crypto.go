package util

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/pbkdf2"
)

// ErrSealedValue is returned when a sealed value cannot be opened.
var ErrSealedValue = errors.New("util: invalid sealed value")

// CryptoRandomBytes generates cryptographically secure random bytes
func CryptoRandomBytes(length int64) ([]byte, error) {
	buf := make([]byte, length)
	_, err := rand.Read(buf)
	return buf, err
}

// CryptoRandomString generates a random hex string of the given length.
// Used for OAuth state nonces and record ids.
func CryptoRandomString(length int) (string, error) {
	bytes, err := CryptoRandomBytes(int64((length + 1) / 2))
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes)[:length], nil
}

// Sealer encrypts provider tokens before they are written to the database.
type Sealer struct {
	key []byte
}

// NewSealer derives a 256-bit XChaCha20-Poly1305 key from secret and salt.
func NewSealer(secret, salt string) (*Sealer, error) {
	if secret == "" {
		return nil, errors.New("sealer secret is required")
	}
	key := pbkdf2.Key([]byte(secret), []byte(salt), 10000, chacha20poly1305.KeySize, sha256.New)
	return &Sealer{key: key}, nil
}

// Seal encrypts plaintext and returns base64(nonce || ciphertext).
// Empty input seals to empty output.
func (s *Sealer) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}
	nonce, err := CryptoRandomBytes(chacha20poly1305.NonceSizeX)
	if err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	out := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawStdEncoding.EncodeToString(out), nil
}

// Open reverses Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	raw, err := base64.RawStdEncoding.DecodeString(sealed)
	if err != nil || len(raw) < chacha20poly1305.NonceSizeX {
		return "", ErrSealedValue
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}
	nonce, ciphertext := raw[:chacha20poly1305.NonceSizeX], raw[chacha20poly1305.NonceSizeX:]
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrSealedValue
	}
	return string(plain), nil
}
