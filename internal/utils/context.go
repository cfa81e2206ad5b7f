// Package utils provides general-purpose helper utilities
// used across different parts of the application.
// Includes tools for working with context, type-safe keys, random
// identifier generation, HTTP response writing, and HTTP client
// initialization.
package utils

import (
	"context"
)

// contextKey is a private type for context keys.
// Using a dedicated type instead of a plain string prevents key collisions
// with other packages that may use string-based keys in the context.
type contextKey string

// String returns the string representation of the context key.
// Implements the fmt.Stringer interface.
func (c contextKey) String() string {
	return string(c)
}

// UserIDCtxKey is the key used to store the authenticated user's UID in the
// context. Used together with GetUserIDFromContext for type-safe retrieval.
//
// Example of writing a value to the context:
//
//	ctx := context.WithValue(ctx, utils.UserIDCtxKey, "uid-123")
var UserIDCtxKey = contextKey("userID")

// SessionIDCtxKey is the key used to store the validated session id in the
// context. Set by the auth middleware so handlers can revoke the exact
// session they were authenticated with.
var SessionIDCtxKey = contextKey("sessionID")

// ClientIDCtxKey is the key used to store the per-client correlation id in
// the context. Set for every request by the web layer so throttle subjects
// stay scoped to the client that made the request, never to the process.
var ClientIDCtxKey = contextKey("clientID")

// GetUserIDFromContext retrieves the user identifier from the context.
//
// Returns the UID and an ok flag:
//   - ok == true  — value is found and has the correct string type
//   - ok == false — value is missing or has an unexpected type
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(string)
	return userID, ok
}

// GetSessionIDFromContext retrieves the session identifier from the context.
func GetSessionIDFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(SessionIDCtxKey).(string)
	return sessionID, ok
}

// GetClientIDFromContext retrieves the per-client correlation id from the
// context.
func GetClientIDFromContext(ctx context.Context) (string, bool) {
	clientID, ok := ctx.Value(ClientIDCtxKey).(string)
	return clientID, ok
}
