package service

import (
	"context"

	"github.com/MKhiriev/chat-guard/models"
)

// RateLimitService throttles actions per (subject, endpoint) pair with a
// persisted fixed window.
type RateLimitService interface {
	// CheckRateLimit records one attempt and reports whether it is
	// allowed. Fails closed: on storage errors the action must not
	// proceed, and the error distinguishes a failure from an over-limit
	// rejection.
	CheckRateLimit(ctx context.Context, subject, endpoint string) (bool, error)

	// GetRateLimitInfo reports remaining attempts and the reset time
	// without recording an attempt.
	GetRateLimitInfo(ctx context.Context, subject, endpoint string) (models.RateLimitInfo, error)
}

// QuotaService tracks the per-user daily chat allowance.
type QuotaService interface {
	// CheckChatLimit reports whether the user may start another chat
	// today. Crossing a local calendar-day boundary since the last reset
	// zeroes the counter first. Fails closed on storage errors.
	CheckChatLimit(ctx context.Context, userID string) (bool, error)

	// IncrementChatUsage records one consumed chat action.
	IncrementChatUsage(ctx context.Context, userID string) error

	// RemainingChats reports how many chats the user has left today,
	// never negative, always from a fresh load.
	RemainingChats(ctx context.Context, userID string) (int, error)
}

// AuthService owns accounts, sessions, and email verification.
type AuthService interface {
	// Register creates a provider account and the local user record, and
	// triggers the verification email.
	Register(ctx context.Context, email, password string) (models.User, error)

	// Login authenticates against the provider and opens a session bound
	// to the caller's fingerprint.
	Login(ctx context.Context, email, password string, fp models.Fingerprint) (models.User, models.Session, error)

	// Logout invalidates the current session and clears cached identity.
	Logout(ctx context.Context) error

	// CreateSession opens a session for userID bound to fp.
	CreateSession(ctx context.Context, userID string, fp models.Fingerprint) (models.Session, error)

	// ValidateSession checks existence, validity, expiry, and an exact
	// fingerprint match. Any mismatch permanently revokes the session.
	ValidateSession(ctx context.Context, sessionID string, fp models.Fingerprint) (bool, error)

	// InvalidateSession revokes the session.
	InvalidateSession(ctx context.Context, sessionID string) error

	// SessionOwner returns the stored session for sessionID so the web
	// layer can learn who an already-validated cookie belongs to.
	SessionOwner(ctx context.Context, sessionID string) (models.Session, error)

	// IsAuthenticated reports whether the caller holds a usable session.
	IsAuthenticated(ctx context.Context, sessionID string, fp models.Fingerprint) (bool, error)

	// VerifyEmail consumes an emailed action code and marks the matching
	// user verified and active.
	VerifyEmail(ctx context.Context, code string) (models.User, error)

	// SyncVerification asks the provider whether the uid's email is now
	// verified and reconciles the user record. Returns the provider's
	// verdict. Used by the background verification poller.
	SyncVerification(ctx context.Context, uid string) (bool, error)

	// CurrentUser returns the cached decrypted user, if any. Purely an
	// optimization; callers must work with ok == false.
	CurrentUser() (models.User, bool)
}
