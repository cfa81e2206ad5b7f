package models

import "time"

// Role enumerates the access levels a user account can hold.
type Role string

const (
	// RoleUser is the default role assigned at registration.
	RoleUser Role = "user"

	// RoleAdmin marks an administrative account. No additional behaviour is
	// attached to it in this subsystem; enforcement points live elsewhere.
	RoleAdmin Role = "admin"
)

// ChatUsage is the calendar-day usage counter for the metered chat action.
//
// Count is reset to zero exactly once per calendar day, on the first quota
// check after the local date changes; within a day it only grows.
type ChatUsage struct {
	// Count is the number of chat actions recorded since LastReset.
	// Incremented atomically at the storage layer.
	Count int `json:"count"`

	// LastReset is the moment Count was last reset to zero. Its calendar
	// date (local year, month, day) decides whether a reset is due.
	LastReset time.Time `json:"last_reset"`
}

// User represents an account entity of the metered chat service.
// It contains identity attributes, protected-at-rest secrets, and the
// per-day quota state.
//
// Email and APIKey are stored encrypted and are decrypted only in memory
// after retrieval; repositories never see plaintext values of either field.
type User struct {
	// UID is the stable account identifier assigned by the identity
	// provider at registration. Immutable.
	UID string `json:"uid"`

	// Email is the account email address. Encrypted at rest.
	Email string `json:"email"`

	// EmailVerified reports whether the external verification flow has
	// confirmed ownership of Email. Becomes true only via that flow.
	EmailVerified bool `json:"email_verified"`

	// APIKey is an opaque token issued at registration (16 random bytes,
	// hex-encoded). Encrypted at rest and never regenerated on login.
	// Never exposed via JSON.
	APIKey string `json:"-"`

	// CreatedAt is the account creation timestamp, server-assigned.
	CreatedAt time.Time `json:"created_at"`

	// LastLoginAt is set on every successful login. Zero until the first one.
	LastLoginAt time.Time `json:"last_login_at"`

	// UsageLimit is the ceiling on chat actions per calendar day.
	UsageLimit int `json:"usage_limit"`

	// IsActive becomes true once the email is verified. It gates feature
	// access conceptually; the enforcement point is outside this subsystem.
	IsActive bool `json:"is_active"`

	// Role is the account access level.
	Role Role `json:"role"`

	// ChatUsage is the quota state for the metered chat action.
	ChatUsage ChatUsage `json:"chat_usage"`
}

// TableName returns the name of the database table
// associated with the User model.
func (u User) TableName() string {
	return "users"
}
