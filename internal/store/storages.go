package store

import (
	"github.com/MKhiriev/chat-guard/internal/logger"
)

// Storages bundles every repository the service layer depends on.
type Storages struct {
	UserRepository      UserRepository
	SessionRepository   SessionRepository
	RateLimitRepository RateLimitRepository
	LocalIdentityCache  LocalIdentityCache
}

// NewStorages wires all PostgreSQL repositories onto the shared connection
// and opens the SQLite identity cache at cachePath.
func NewStorages(db *DB, cachePath string, logger *logger.Logger) (*Storages, error) {
	cache, err := NewLocalIdentityCache(cachePath, logger)
	if err != nil {
		return nil, err
	}

	return &Storages{
		UserRepository:      NewUserRepository(db, logger),
		SessionRepository:   NewSessionRepository(db, logger),
		RateLimitRepository: NewRateLimitRepository(db, logger),
		LocalIdentityCache:  cache,
	}, nil
}
