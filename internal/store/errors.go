package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrUserAlreadyExists is returned when an attempt to create a user
	// fails because a record with the same uid or email index already
	// exists in the document store.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrUserNotFound is returned when a query expected to match exactly one
	// user record produces an empty result set.
	ErrUserNotFound = errors.New("user was not found")

	// ErrSessionNotFound is returned when a session lookup by id matches no
	// record. Sessions are never physically deleted, so this means the id
	// was never issued by this deployment.
	ErrSessionNotFound = errors.New("session was not found")

	// ErrWindowNotFound is returned when no throttle bucket exists yet for
	// a (subject, endpoint) pair. The limiter treats this as "create a
	// fresh window", not as a failure.
	ErrWindowNotFound = errors.New("rate limit window was not found")

	// ErrSubjectNotCached is returned by the local identifier cache when no
	// value is stored under the requested key.
	ErrSubjectNotCached = errors.New("subject id is not cached locally")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails (e.g. invalid argument count or unsupported type).
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	// ErrScanningRow is returned when scanning column values from a single
	// result row into a destination struct fails.
	ErrScanningRow = errors.New("failed to scan row")
)
