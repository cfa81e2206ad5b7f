package http

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MKhiriev/chat-guard/internal/config"
	"github.com/MKhiriev/chat-guard/internal/logger"
	"github.com/MKhiriev/chat-guard/internal/service"
	"github.com/MKhiriev/chat-guard/internal/workers"
)

type Handler struct {
	services *service.Services
	poller   *workers.VerificationPoller

	// registry backs the /metrics endpoint.
	registry *prometheus.Registry

	// sessionDuration bounds cookie lifetimes to the session lifetime.
	sessionDuration time.Duration

	// secureCookies marks issued cookies Secure; on in production.
	secureCookies bool

	logger *logger.Logger
}

func NewHandler(services *service.Services, poller *workers.VerificationPoller, registry *prometheus.Registry, cfg config.StructuredConfig, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		services:        services,
		poller:          poller,
		registry:        registry,
		sessionDuration: cfg.App.SessionDuration,
		secureCookies:   cfg.IsProduction(),
		logger:          logger,
	}
}
