package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/chat-guard/internal/logger"
	"github.com/MKhiriev/chat-guard/models"
)

// rateLimitRepository is the PostgreSQL-backed implementation of
// [RateLimitRepository]. One row per (subject, endpoint) bucket; a new
// window overwrites the previous one in place.
type rateLimitRepository struct {
	logger  *logger.Logger
	db      *DB
	builder sq.StatementBuilderType
}

// NewRateLimitRepository constructs a [RateLimitRepository] backed by the
// provided database connection and logger.
func NewRateLimitRepository(db *DB, logger *logger.Logger) RateLimitRepository {
	logger.Debug().Msg("creating rate limit repository")
	return &rateLimitRepository{
		db:      db,
		logger:  logger,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// GetWindow retrieves the throttle bucket for a (subject, endpoint) pair.
// Returns [ErrWindowNotFound] when no bucket exists yet.
func (r *rateLimitRepository) GetWindow(ctx context.Context, subject, endpoint string) (models.RateLimitWindow, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Select("subject", "endpoint", "count", "window_start", "window_end").
		From("rate_limits").
		Where(sq.Eq{"subject": subject}).
		Where(sq.Eq{"endpoint": endpoint}).
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "*rateLimitRepository.GetWindow").Msg("error building query")
		return models.RateLimitWindow{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var window models.RateLimitWindow
	row := r.db.QueryRowContext(ctx, query, args...)
	err = row.Scan(&window.Subject, &window.Endpoint, &window.Count, &window.WindowStart, &window.WindowEnd)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.RateLimitWindow{}, ErrWindowNotFound
		}
		log.Err(err).Str("func", "*rateLimitRepository.GetWindow").Msg("error: scanning error")
		return models.RateLimitWindow{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return window, nil
}

// PutWindow creates or wholly replaces the bucket. Replacement resets the
// counter and boundaries in one statement, so a fresh window can never be
// observed with a stale count.
func (r *rateLimitRepository) PutWindow(ctx context.Context, window models.RateLimitWindow) error {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Insert("rate_limits").
		Columns("subject", "endpoint", "count", "window_start", "window_end").
		Values(window.Subject, window.Endpoint, window.Count, window.WindowStart, window.WindowEnd).
		Suffix(`ON CONFLICT (subject, endpoint) DO UPDATE
    SET count = EXCLUDED.count, window_start = EXCLUDED.window_start, window_end = EXCLUDED.window_end`).
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "*rateLimitRepository.PutWindow").Msg("error building query")
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).Str("func", "*rateLimitRepository.PutWindow").Msg("error executing upsert")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// IncrementWindow adds one to the bucket's counter. Incrementing a missing
// bucket returns [ErrWindowNotFound]; callers seed the bucket with
// PutWindow first.
func (r *rateLimitRepository) IncrementWindow(ctx context.Context, subject, endpoint string) error {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Update("rate_limits").
		Set("count", sq.Expr("count + 1")).
		Where(sq.Eq{"subject": subject}).
		Where(sq.Eq{"endpoint": endpoint}).
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "*rateLimitRepository.IncrementWindow").Msg("error building query")
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "*rateLimitRepository.IncrementWindow").Msg("error executing update")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrWindowNotFound
	}

	return nil
}
