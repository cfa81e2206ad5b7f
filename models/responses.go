package models

import "time"

// ChatLimitResponse tells the caller whether another metered chat action is
// allowed right now and how many actions remain in the current calendar day.
type ChatLimitResponse struct {
	// Allowed reports whether the next chat action may proceed.
	Allowed bool `json:"allowed"`

	// Remaining is usage_limit minus the recorded count, floored at zero.
	Remaining int `json:"remaining"`
}

// RateLimitInfoResponse is the display-only throttle state for a
// (subject, endpoint) pair.
type RateLimitInfoResponse struct {
	Remaining int       `json:"remaining"`
	ResetTime time.Time `json:"reset_time"`
}

// SessionRequest is the body of POST /session: the cookie-issuing call made
// by the web layer after a successful provider login.
type SessionRequest struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// VerifyEmailRequest is the body of POST /verify-email: starts the
// out-of-band verification poller for the given account.
type VerifyEmailRequest struct {
	UID string `json:"uid"`
}

// CredentialsRequest is the body of registration and login calls.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyCodeRequest is the body of the action-code verification call.
type VerifyCodeRequest struct {
	Code string `json:"code"`
}
