package identity

//go:generate mockgen -source=interfaces.go -destination=../mock/identity_mock.go -package=mock

import (
	"context"

	"github.com/MKhiriev/chat-guard/models"
)

// Provider is the upstream account authority. It owns credentials and email
// verification; this service never stores passwords and never mints uids of
// its own for registered accounts.
type Provider interface {
	// CreateAccount registers a new email+password account and returns the
	// provider-assigned identity.
	CreateAccount(ctx context.Context, email, password string) (models.Identity, error)

	// Authenticate exchanges credentials for the account's identity.
	Authenticate(ctx context.Context, email, password string) (models.Identity, error)

	// SendVerification asks the provider to email a verification link to
	// the account behind idToken, redirecting to redirectURL afterwards.
	SendVerification(ctx context.Context, idToken, redirectURL string) error

	// ApplyVerificationCode consumes an emailed action code and returns the
	// email address it verified.
	ApplyVerificationCode(ctx context.Context, code string) (string, error)

	// CheckVerificationCode inspects an action code without consuming it
	// and returns the email address it targets.
	CheckVerificationCode(ctx context.Context, code string) (string, error)

	// LookupVerified reports whether the provider considers the account's
	// email verified. Used by the verification poller.
	LookupVerified(ctx context.Context, uid string) (bool, error)
}
