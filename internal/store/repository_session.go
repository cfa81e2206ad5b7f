package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"

	"github.com/MKhiriev/chat-guard/internal/logger"
	"github.com/MKhiriev/chat-guard/models"
)

// sessionRepository is the PostgreSQL-backed implementation of
// [SessionRepository]. Sessions are append-plus-flag records: creation
// inserts, revocation and expiry flip is_valid, nothing is ever deleted.
type sessionRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewSessionRepository constructs a [SessionRepository] backed by the
// provided database connection and logger.
func NewSessionRepository(db *DB, logger *logger.Logger) SessionRepository {
	logger.Debug().Msg("creating session repository")
	return &sessionRepository{
		db:     db,
		logger: logger,
	}
}

// CreateSession persists a new session record and returns it as stored.
//
// Error handling:
//   - PostgreSQL unique_violation (23505) on the session id → wrapped;
//     ids carry 128 bits of randomness, a collision signals a broken
//     generator rather than a retryable condition.
//   - Any other driver-level error → wrapped as "unexpected DB error".
func (r *sessionRepository) CreateSession(ctx context.Context, session models.Session) (models.Session, error) {
	log := logger.FromContext(ctx)

	row := r.db.QueryRowContext(ctx, createSession,
		session.ID, session.UserID, session.CreatedAt, session.ExpiresAt,
		session.IPAddress, session.UserAgent, session.IsValid)

	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*sessionRepository.CreateSession").Msg("error: row is nil")

		switch postgresError(err) {
		case pgerrcode.UniqueViolation:
			return models.Session{}, fmt.Errorf("duplicate session id: %w", err)
		default:
			return models.Session{}, fmt.Errorf("unexpected DB error: %w", err)
		}
	}

	created, err := scanSession(row)
	if err != nil {
		log.Err(err).Str("func", "*sessionRepository.CreateSession").Msg("error: scanning error")
		return models.Session{}, err
	}

	return created, nil
}

// GetSession retrieves a session record by id.
//
// Error handling:
//   - No matching row → [ErrSessionNotFound].
//   - Any other driver-level error → wrapped in [ErrExecutingQuery].
func (r *sessionRepository) GetSession(ctx context.Context, id string) (models.Session, error) {
	log := logger.FromContext(ctx)

	row := r.db.QueryRowContext(ctx, getSessionByID, id)
	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*sessionRepository.GetSession").Msg("error: row is nil")
		return models.Session{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	found, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, ErrSessionNotFound
		}
		log.Err(err).Str("func", "*sessionRepository.GetSession").Msg("error: scanning error")
		return models.Session{}, err
	}

	return found, nil
}

// InvalidateSession flips is_valid to false for the given session id.
// Invalidating an already-invalid session is a no-op, not an error;
// revocation must stay idempotent so double logouts cannot fail.
func (r *sessionRepository) InvalidateSession(ctx context.Context, id string) error {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, invalidateSession, id)
	if err != nil {
		log.Err(err).Str("func", "*sessionRepository.InvalidateSession").Msg("error executing update")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrSessionNotFound
	}

	return nil
}

// SweepExpiredSessions marks every still-valid but expired session of the
// user as invalid and returns the number of sessions swept.
func (r *sessionRepository) SweepExpiredSessions(ctx context.Context, userID string, now time.Time) (int64, error) {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, sweepExpiredSessions, userID, now)
	if err != nil {
		log.Err(err).Str("func", "*sessionRepository.SweepExpiredSessions").Msg("error executing update")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	swept, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return swept, nil
}

// scanSession scans one full session row in the canonical column order
// shared by every session query.
func scanSession(row *sql.Row) (models.Session, error) {
	var session models.Session
	err := row.Scan(
		&session.ID, &session.UserID, &session.CreatedAt, &session.ExpiresAt,
		&session.IPAddress, &session.UserAgent, &session.IsValid,
	)
	if err != nil {
		return models.Session{}, err
	}

	return session, nil
}
