package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"

	"github.com/MKhiriev/chat-guard/internal/logger"
)

// appKeySalt is the fixed application salt for deriving the field-encryption
// key from the configured secret. It is not itself a secret: its only job is
// to keep the derived key distinct from any other Argon2id use of the same
// passphrase.
var appKeySalt = []byte("chat-guard-field-key-v1")

// aeadCipher is the primary [Cipher] implementation: AES-256-GCM with the
// key derived from the configured secret via Argon2id.
//
// Ciphertext layout: base64(nonce ‖ sealed), the nonce prepended so that
// Decrypt can locate it without extra framing.
type aeadCipher struct {
	aead cipher.AEAD
}

// NewCipher constructs the authenticated [Cipher] for the given secret key
// string.
//
// The 256-bit AES key is derived with Argon2id using the OWASP-recommended
// parameters (1 iteration, 64 MiB, 4 threads) and the fixed [appKeySalt].
// Returns an error if the AEAD construction fails; callers are expected to
// degrade to [NewFallbackCipher] in that case.
func NewCipher(key string) (Cipher, error) {
	derived := argon2.IDKey([]byte(key), appKeySalt, 1, 64*1024, 4, 32)

	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, fmt.Errorf("error creating AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("error creating GCM: %w", err)
	}

	return &aeadCipher{aead: aead}, nil
}

// NewCipherSuite returns the best available [Cipher] for the configured key.
//
// The authenticated AES-256-GCM path is preferred. When its construction
// fails, or when forceFallback is set, the reversible obfuscation path is
// selected instead and a warning is logged — the degradation is recovered
// locally and never surfaced to callers.
func NewCipherSuite(key string, forceFallback bool, log *logger.Logger) Cipher {
	if forceFallback {
		log.Warn().Msg("fallback obfuscation cipher forced by configuration; not suitable for production secrecy")
		return NewFallbackCipher(key)
	}

	c, err := NewCipher(key)
	if err != nil {
		log.Warn().Err(err).Msg("authenticated cipher unavailable, falling back to obfuscation cipher")
		return NewFallbackCipher(key)
	}

	return c
}

// Encrypt implements [Cipher]. A fresh random nonce is read from the OS
// CSPRNG for every call, so encrypting the same plaintext twice yields
// different ciphertexts.
func (c *aeadCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("error reading nonce: %w", err)
	}

	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(append(nonce, sealed...)), nil
}

// Decrypt implements [Cipher]. It splits the nonce off the decoded blob and
// opens the remainder; authentication failure (wrong key, tampering) is
// returned as an error.
func (c *aeadCipher) Decrypt(ciphertext string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("error decoding ciphertext: %w", err)
	}

	nonceSize := c.aead.NonceSize()
	if len(blob) < nonceSize {
		return "", errors.New("ciphertext shorter than nonce")
	}

	opened, err := c.aead.Open(nil, blob[:nonceSize], blob[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("error opening ciphertext: %w", err)
	}

	return string(opened), nil
}

// fallbackCipher is the development-only degradation path: a repeating-key
// XOR followed by base64. It is reversible obfuscation, not encryption, and
// must never be relied upon for real secrecy guarantees.
type fallbackCipher struct {
	key []byte
}

// fallbackKeyDefault keys the obfuscation path when no secret is
// configured. An empty key would make the repeating-key XOR divide by
// zero, so the constructor substitutes this instead of panicking.
const fallbackKeyDefault = "chat-guard-fallback-key"

// NewFallbackCipher constructs the obfuscation [Cipher] for environments
// where the authenticated cipher is unavailable. An empty key is replaced
// with [fallbackKeyDefault].
func NewFallbackCipher(key string) Cipher {
	if key == "" {
		key = fallbackKeyDefault
	}

	return &fallbackCipher{key: []byte(key)}
}

// Encrypt implements [Cipher] via repeating-key XOR.
func (c *fallbackCipher) Encrypt(plaintext string) (string, error) {
	return base64.StdEncoding.EncodeToString(c.xor([]byte(plaintext))), nil
}

// Decrypt implements [Cipher]. XOR is its own inverse.
func (c *fallbackCipher) Decrypt(ciphertext string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("error decoding ciphertext: %w", err)
	}

	return string(c.xor(decoded)), nil
}

func (c *fallbackCipher) xor(data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ c.key[i%len(c.key)]
	}
	return out
}
