package crypto

//go:generate mockgen -source=interfaces.go -destination=../mock/cipher_mock.go -package=mock

// Cipher protects sensitive text fields (email, issued API key) at rest.
//
// Implementations must guarantee that Decrypt(Encrypt(s)) == s for any
// printable input, and that the output of Encrypt never equals a non-empty
// plaintext input. Ciphertexts are self-contained strings safe to store in
// a document field.
type Cipher interface {
	// Encrypt returns the protected form of plaintext.
	Encrypt(plaintext string) (string, error)

	// Decrypt reverses Encrypt. Fails if the ciphertext was produced by a
	// different key or has been tampered with (authenticated path only).
	Decrypt(ciphertext string) (string, error)
}
