package store

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

import (
	"context"
	"time"

	"github.com/MKhiriev/chat-guard/models"
)

// UserRepository is the data-access layer for the "users" collection.
//
// Email and APIKey values passed in and out are the encrypted
// representations; the service layer owns encryption and decryption.
// EmailHash is the deterministic lookup index for the encrypted email.
type UserRepository interface {
	// CreateUser persists a new user record and returns it with
	// server-assigned fields populated.
	CreateUser(ctx context.Context, user models.User, emailHash string) (models.User, error)

	// GetUser retrieves a user by uid.
	GetUser(ctx context.Context, uid string) (models.User, error)

	// FindUserByEmailHash retrieves a user via the deterministic email index.
	FindUserByEmailHash(ctx context.Context, emailHash string) (models.User, error)

	// UpdateVerification sets the emailVerified and isActive flags.
	UpdateVerification(ctx context.Context, uid string, verified, active bool) error

	// UpdateLastLogin stamps last_login_at with the server clock.
	UpdateLastLogin(ctx context.Context, uid string) error

	// IncrementChatUsage atomically adds one to the persisted chat counter
	// and returns the new count. Must not be implemented as
	// read-modify-write: concurrent increments from the same user are
	// expected and must all be counted.
	IncrementChatUsage(ctx context.Context, uid string) (int, error)

	// ResetChatUsage zeroes the chat counter and stamps the reset time.
	ResetChatUsage(ctx context.Context, uid string, at time.Time) error
}

// SessionRepository is the data-access layer for the "sessions" collection.
// Sessions are never deleted; revocation and expiry are logical.
type SessionRepository interface {
	// CreateSession persists a new session record.
	CreateSession(ctx context.Context, session models.Session) (models.Session, error)

	// GetSession retrieves a session by id.
	GetSession(ctx context.Context, id string) (models.Session, error)

	// InvalidateSession flips is_valid to false for the given session.
	InvalidateSession(ctx context.Context, id string) error

	// SweepExpiredSessions marks every still-valid but expired session of
	// the user as invalid. Returns the number of sessions swept.
	SweepExpiredSessions(ctx context.Context, userID string, now time.Time) (int64, error)
}

// RateLimitRepository is the data-access layer for the "rate_limits"
// collection of fixed-window throttle buckets.
//
// The read-then-write pair (GetWindow + PutWindow/IncrementWindow) is
// intentionally not atomic; the limiter accepts boundary looseness in
// exchange for O(1) state.
type RateLimitRepository interface {
	// GetWindow retrieves the bucket for a (subject, endpoint) pair.
	// Returns ErrWindowNotFound when no bucket exists yet.
	GetWindow(ctx context.Context, subject, endpoint string) (models.RateLimitWindow, error)

	// PutWindow creates or wholly replaces the bucket.
	PutWindow(ctx context.Context, window models.RateLimitWindow) error

	// IncrementWindow adds one to the bucket's counter.
	IncrementWindow(ctx context.Context, subject, endpoint string) error
}

// LocalIdentityCache persists small client-local identity markers (cached
// subject ids, the generated anonymous id) across process restarts.
// It is an optimization, never a source of truth.
type LocalIdentityCache interface {
	// Get returns the cached value for key, or ErrSubjectNotCached.
	Get(ctx context.Context, key string) (string, error)

	// Put stores or replaces the value for key.
	Put(ctx context.Context, key, value string) error

	// Delete removes the value for key. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error
}
