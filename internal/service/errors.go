package service

import "errors"

var (
	// ErrInvalidDataProvided is returned when a required argument (email,
	// password, uid, code) is empty.
	ErrInvalidDataProvided = errors.New("invalid data provided")

	// ErrRateLimited is returned when the fixed-window limiter rejects the
	// action. Distinct from a limiter failure, which surfaces as a wrapped
	// storage error.
	ErrRateLimited = errors.New("too many requests")

	// ErrQuotaExceeded is returned when the daily chat quota is spent.
	ErrQuotaExceeded = errors.New("daily chat limit reached")

	// ErrEmailNotVerified is returned on login when the credentials are
	// right but the email is still unverified. No session is created.
	ErrEmailNotVerified = errors.New("email not verified")

	// ErrInvalidCredentials is returned on login for any credential
	// failure. The message is deliberately uniform so responses do not
	// reveal whether the account exists.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrSessionInvalid covers every session validation failure: missing,
	// revoked, expired, or a fingerprint mismatch.
	ErrSessionInvalid = errors.New("session is not valid")

	// ErrUpstreamUnavailable is returned when the identity provider cannot
	// be reached or answers with an unexpected failure.
	ErrUpstreamUnavailable = errors.New("identity provider unavailable")
)
