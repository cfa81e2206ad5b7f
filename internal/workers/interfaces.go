// Package workers provides abstractions for managing and running
// background workers in the application.
// It defines the Worker interface, a Workers aggregate that runs multiple
// workers in a unified way, and the email verification poller.
package workers

import "context"

// Worker is the interface that must be implemented by any background worker.
// It defines a single Run method that starts the worker's execution.
//
// Implementations are expected to return promptly from Run and do their
// work on goroutines bound to ctx; cancelling ctx stops the worker.
type Worker interface {
	Run(ctx context.Context)
}

// VerificationSyncer reconciles a user's email verification state with the
// identity provider. Satisfied by the auth service.
type VerificationSyncer interface {
	SyncVerification(ctx context.Context, uid string) (bool, error)
}
