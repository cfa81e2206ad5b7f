package service

import (
	"github.com/MKhiriev/chat-guard/internal/config"
	"github.com/MKhiriev/chat-guard/internal/crypto"
	"github.com/MKhiriev/chat-guard/internal/identity"
	"github.com/MKhiriev/chat-guard/internal/logger"
	"github.com/MKhiriev/chat-guard/internal/metrics"
	"github.com/MKhiriev/chat-guard/internal/store"
)

type Services struct {
	RateLimitService RateLimitService
	QuotaService     QuotaService
	AuthService      AuthService

	// Resolver maps requests onto throttle subjects; the web layer uses it
	// for the limiter info endpoint.
	Resolver *identity.Resolver
}

// NewServices wires the service layer: the cipher suite, the subject
// resolver, and the shared session cache are built here and threaded
// through the services that need them.
func NewServices(storages *store.Storages, provider identity.Provider, m *metrics.Metrics, cfg config.StructuredConfig, logger *logger.Logger) *Services {
	cipher := crypto.NewCipherSuite(cfg.App.EncryptionKey, cfg.App.ForceFallbackCipher, logger)
	resolver := identity.NewResolver(storages.LocalIdentityCache, logger)
	cache := newSessionCache()

	rateLimitService := NewRateLimitService(storages.RateLimitRepository, cfg.RateLimit, m, logger)

	return &Services{
		Resolver:         resolver,
		RateLimitService: rateLimitService,
		QuotaService:     NewQuotaService(storages.UserRepository, cache, cfg.Quota, m, logger),
		AuthService: NewAuthService(
			storages.UserRepository,
			storages.SessionRepository,
			provider,
			resolver,
			rateLimitService,
			cipher,
			cache,
			cfg,
			logger,
		),
	}
}
