package models

// Identity is the account identity reported by the external identity
// provider after account creation or credential verification.
//
// It is a snapshot of the provider's view of the account; this subsystem
// never mutates provider state except through the provider client itself.
type Identity struct {
	// UID is the provider-assigned stable account identifier.
	UID string `json:"uid"`

	// Email is the plaintext address the identity was authenticated with.
	Email string `json:"email"`

	// EmailVerified is the provider's verification flag. A login whose
	// credentials match but whose identity is unverified is rejected.
	EmailVerified bool `json:"email_verified"`

	// IDToken is the raw provider-issued token for this identity, if any.
	// Used to confirm a live provider session on the fast auth path.
	IDToken string `json:"-"`
}
