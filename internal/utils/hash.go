package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HashString computes an HMAC-SHA256 signature over the given string
// using the provided hash key and returns the result as a hex-encoded string.
//
// Used to build the deterministic email lookup index: the email itself is
// stored encrypted with a randomized cipher, so equality queries go through
// this keyed digest instead of the ciphertext.
//
// Parameters:
//
//	data    - string to be hashed
//	hashKey - secret key used for the HMAC operation
//
// Returns:
//
//	string - hex-encoded HMAC-SHA256 digest
//
// Example usage:
//
//	index := utils.HashString("alice@example.com", "my-secret-key")
func HashString(data string, hashKey string) string {
	return hex.EncodeToString(hashString([]byte(data), hashKey))
}

// ClientID derives a stable per-client correlation id from the request
// fingerprint components. The digest is unkeyed: the id only has to be
// stable for the same client and distinct between clients, it grants
// nothing.
func ClientID(ipAddress, userAgent string) string {
	digest := sha256.Sum256([]byte(ipAddress + "\n" + userAgent))
	return "client_" + hex.EncodeToString(digest[:16])
}

// hashString computes an HMAC-SHA256 digest over the given byte slice
// using the provided hash key.
//
// This is an internal helper used by HashString.
// A new HMAC instance is created on each call.
func hashString(data []byte, hashKey string) []byte {
	hasher := hmac.New(sha256.New, []byte(hashKey))
	hasher.Write(data)
	return hasher.Sum(nil)
}
