package identity

import "errors"

var (
	// ErrAccountAlreadyExists is returned by [Provider.CreateAccount] when
	// the email is already registered upstream.
	ErrAccountAlreadyExists = errors.New("account already exists")

	// ErrBadCredentials is returned by [Provider.Authenticate] when the
	// provider rejects the email+password pair.
	ErrBadCredentials = errors.New("bad credentials")

	// ErrInvalidVerificationCode is returned when an action code is
	// expired, malformed, or already consumed.
	ErrInvalidVerificationCode = errors.New("invalid verification code")

	// ErrAccountNotFound is returned by [Provider.LookupVerified] when the
	// provider has no record of the uid.
	ErrAccountNotFound = errors.New("account not found")

	// ErrProviderUnavailable wraps transport failures and unexpected
	// provider responses.
	ErrProviderUnavailable = errors.New("identity provider unavailable")
)
