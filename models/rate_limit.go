package models

import "time"

// RateLimitWindow is one fixed-window throttle bucket, keyed by
// (subject, endpoint).
//
// While the current time is before WindowEnd the counter only grows and the
// limiter refuses requests once the configured maximum is reached; once
// WindowEnd has passed, the bucket is replaced with a fresh window whose
// count starts at one.
type RateLimitWindow struct {
	// Subject is the key the limit is tracked against: a user UID or an
	// anonymous correlation id.
	Subject string `json:"subject"`

	// Endpoint names the throttled operation (e.g. "register", "login",
	// "verify_email").
	Endpoint string `json:"endpoint"`

	// Count is the number of requests observed in the current window.
	Count int `json:"count"`

	// WindowStart and WindowEnd bound the current window;
	// WindowEnd = WindowStart + window size.
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
}

// TableName returns the name of the database table
// associated with the RateLimitWindow model.
func (w RateLimitWindow) TableName() string {
	return "rate_limits"
}

// RateLimitInfo is the read-only view of a throttle bucket, computed
// without mutating state. Used for display only.
type RateLimitInfo struct {
	// Remaining is the number of requests left in the current window.
	Remaining int `json:"remaining"`

	// ResetTime is when the current window ends and the counter resets.
	ResetTime time.Time `json:"reset_time"`
}
