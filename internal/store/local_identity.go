package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/MKhiriev/chat-guard/internal/logger"
)

// Well-known entry kinds stored in the local identity cache. The resolver
// namespaces each kind under a per-client correlation id, so one row exists
// per (kind, client), never one per process.
const (
	CacheKeyUserID      = "user_id"
	CacheKeyAnonymousID = "anonymous_id"
)

const localIdentitySchema = `CREATE TABLE IF NOT EXISTS identity_cache (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);`

// localIdentityCache is a SQLite-backed implementation of
// [LocalIdentityCache]. A single small file survives process restarts and
// lets the resolver hand out the same anonymous id across runs.
type localIdentityCache struct {
	logger *logger.Logger
	db     *sql.DB
}

// NewLocalIdentityCache opens (or creates) the SQLite file at path and
// ensures the cache table exists.
func NewLocalIdentityCache(path string, logger *logger.Logger) (LocalIdentityCache, error) {
	logger.Debug().Str("path", path).Msg("opening local identity cache")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open local identity cache: %w", err)
	}

	// serialize all access; the cache is tiny and contention-free
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(localIdentitySchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init local identity cache schema: %w", err)
	}

	return &localIdentityCache{db: db, logger: logger}, nil
}

// Get returns the cached value for key, or [ErrSubjectNotCached].
func (c *localIdentityCache) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := c.db.QueryRowContext(ctx, `SELECT value FROM identity_cache WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrSubjectNotCached
		}
		return "", fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return value, nil
}

// Put stores or replaces the value for key.
func (c *localIdentityCache) Put(ctx context.Context, key, value string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO identity_cache (key, value) VALUES (?, ?)
    ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// Delete removes the value for key. Deleting a missing key is not an error.
func (c *localIdentityCache) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM identity_cache WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}
