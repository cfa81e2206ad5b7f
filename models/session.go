package models

import "time"

// Fingerprint is the client identity captured when a session is created:
// the IP address and the User-Agent string of the request that logged in.
//
// Session validation compares the presented fingerprint against the stored
// one with exact equality on both components.
type Fingerprint struct {
	// IPAddress is the remote client address, without port.
	IPAddress string `json:"ip_address"`

	// UserAgent is the raw User-Agent header value.
	UserAgent string `json:"user_agent"`
}

// Equal reports whether both fingerprint components match exactly.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f.IPAddress == other.IPAddress && f.UserAgent == other.UserAgent
}

// Session represents one active login of a user.
//
// A session grants access only while IsValid is true, the current time is
// before ExpiresAt, and the presented fingerprint matches the stored one.
// Sessions are never physically deleted by this subsystem: expiry is
// logical, and revocation is the single IsValid=false flip.
type Session struct {
	// ID is the unguessable session identifier (16 random bytes,
	// hex-encoded) used as the lookup key and as the session cookie value.
	ID string `json:"id"`

	// UserID is the UID of the owning user.
	UserID string `json:"user_id"`

	// CreatedAt is the session creation time.
	CreatedAt time.Time `json:"created_at"`

	// ExpiresAt is CreatedAt plus the configured session lifetime,
	// fixed at creation. There is no renewal.
	ExpiresAt time.Time `json:"expires_at"`

	// IPAddress and UserAgent form the fingerprint captured at creation.
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`

	// IsValid is set false on logout, on explicit revocation, or on a
	// fingerprint mismatch detected during validation.
	IsValid bool `json:"is_valid"`
}

// Fingerprint returns the fingerprint captured at session creation.
func (s Session) Fingerprint() Fingerprint {
	return Fingerprint{IPAddress: s.IPAddress, UserAgent: s.UserAgent}
}

// Expired reports whether the session has passed its expiry time.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// TableName returns the name of the database table
// associated with the Session model.
func (s Session) TableName() string {
	return "sessions"
}
