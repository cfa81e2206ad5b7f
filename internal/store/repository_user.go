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

// userRepository is the PostgreSQL-backed implementation of [UserRepository].
// It handles account creation, lookup, verification sync, and the atomic
// chat-usage counter against the "users" table.
//
// All methods obtain a context-scoped logger via [logger.FromContext] for
// structured, request-level tracing of database interactions.
type userRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewUserRepository constructs a [UserRepository] backed by the provided
// database connection and logger.
func NewUserRepository(db *DB, logger *logger.Logger) UserRepository {
	logger.Debug().Msg("creating user repository")
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

// CreateUser persists a new user record and returns the fully populated
// [models.User] with server-assigned fields (CreatedAt, zeroed ChatUsage).
//
// emailHash is the deterministic lookup index of the plaintext email; the
// email column itself holds the encrypted value the caller supplied.
//
// Error handling:
//   - PostgreSQL unique_violation (23505) → [ErrUserAlreadyExists].
//   - Any other driver-level error → wrapped as "unexpected DB error".
//   - Scan failure → returned directly.
func (r *userRepository) CreateUser(ctx context.Context, user models.User, emailHash string) (models.User, error) {
	log := logger.FromContext(ctx)

	row := r.db.QueryRowContext(ctx, createUser,
		user.UID, user.Email, emailHash, user.EmailVerified, user.APIKey,
		user.UsageLimit, user.IsActive, user.Role)

	// create user in db
	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*userRepository.CreateUser").Msg("error: row is nil")

		switch postgresError(err) {
		case pgerrcode.UniqueViolation:
			return models.User{}, ErrUserAlreadyExists
		default:
			return models.User{}, fmt.Errorf("unexpected DB error: %w", err)
		}
	}

	created, err := scanUser(row)
	if err != nil {
		log.Err(err).Str("func", "*userRepository.CreateUser").Msg("error: scanning error")
		return models.User{}, err
	}

	return created, nil
}

// GetUser retrieves a user record by uid.
//
// Error handling:
//   - No matching row → [ErrUserNotFound].
//   - Any other driver-level error → wrapped in [ErrExecutingQuery].
func (r *userRepository) GetUser(ctx context.Context, uid string) (models.User, error) {
	log := logger.FromContext(ctx)

	row := r.db.QueryRowContext(ctx, getUserByUID, uid)
	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*userRepository.GetUser").Msg("error: row is nil")
		return models.User{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	found, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		log.Err(err).Str("func", "*userRepository.GetUser").Msg("error: scanning error")
		return models.User{}, err
	}

	return found, nil
}

// FindUserByEmailHash retrieves a user via the deterministic email index.
// The encrypted email column is never queried directly: its cipher is
// randomized, so equality lookups go through the keyed digest instead.
func (r *userRepository) FindUserByEmailHash(ctx context.Context, emailHash string) (models.User, error) {
	log := logger.FromContext(ctx)

	row := r.db.QueryRowContext(ctx, findUserByEmailHash, emailHash)
	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*userRepository.FindUserByEmailHash").Msg("error: row is nil")
		return models.User{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	found, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		log.Err(err).Str("func", "*userRepository.FindUserByEmailHash").Msg("error: scanning error")
		return models.User{}, err
	}

	return found, nil
}

// UpdateVerification sets the emailVerified and isActive flags on the user
// record. Used when the identity provider reports a verification that the
// persisted record does not yet reflect.
func (r *userRepository) UpdateVerification(ctx context.Context, uid string, verified, active bool) error {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, updateUserVerification, uid, verified, active)
	if err != nil {
		log.Err(err).Str("func", "*userRepository.UpdateVerification").Msg("error executing update")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return requireAffectedUser(result)
}

// UpdateLastLogin stamps last_login_at with the database server clock.
func (r *userRepository) UpdateLastLogin(ctx context.Context, uid string) error {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, updateUserLastLogin, uid)
	if err != nil {
		log.Err(err).Str("func", "*userRepository.UpdateLastLogin").Msg("error executing update")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return requireAffectedUser(result)
}

// IncrementChatUsage atomically adds one to the persisted chat counter and
// returns the new count. The addition happens inside the UPDATE statement,
// so concurrent chat requests from the same user cannot race into an
// under-count.
func (r *userRepository) IncrementChatUsage(ctx context.Context, uid string) (int, error) {
	log := logger.FromContext(ctx)

	var count int
	row := r.db.QueryRowContext(ctx, incrementChatUsage, uid)
	if err := row.Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		log.Err(err).Str("func", "*userRepository.IncrementChatUsage").Msg("error: scanning error")
		return 0, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return count, nil
}

// ResetChatUsage zeroes the chat counter and records the reset moment.
func (r *userRepository) ResetChatUsage(ctx context.Context, uid string, at time.Time) error {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, resetChatUsage, uid, at)
	if err != nil {
		log.Err(err).Str("func", "*userRepository.ResetChatUsage").Msg("error executing update")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return requireAffectedUser(result)
}

// scanUser scans one full user row in the canonical column order shared by
// every user query.
func scanUser(row *sql.Row) (models.User, error) {
	var user models.User
	err := row.Scan(
		&user.UID, &user.Email, &user.EmailVerified, &user.APIKey,
		&user.CreatedAt, &user.LastLoginAt, &user.UsageLimit,
		&user.IsActive, &user.Role,
		&user.ChatUsage.Count, &user.ChatUsage.LastReset,
	)
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}

// requireAffectedUser converts a zero-rows-affected update into
// [ErrUserNotFound] so callers can distinguish a missing account from a
// transport failure.
func requireAffectedUser(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}

	return nil
}
