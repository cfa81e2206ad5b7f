package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"time"
)

// RandomHex reads n random bytes from the OS CSPRNG and returns them
// hex-encoded (2n characters). Used for session ids and issued API keys.
func RandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("error reading random bytes: %w", err)
	}

	return hex.EncodeToString(b), nil
}

// NewAnonymousID generates an anonymous subject identifier of the form
// anon_<unix-ms>_<random>.
//
// The id is a correlation key for rate limiting and quota tracking before a
// full session exists. It is not cryptographically unguessable and must
// never be treated as an authorization token.
func NewAnonymousID() string {
	suffix, err := RandomHex(4)
	if err != nil {
		// CSPRNG failure is effectively unreachable; a time-only suffix
		// still yields a usable correlation id.
		suffix = strconv.FormatInt(time.Now().UnixNano()%100000000, 16)
	}

	return fmt.Sprintf("anon_%d_%s", time.Now().UnixMilli(), suffix)
}
