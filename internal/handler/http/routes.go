package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)
	router.Use(h.withClientID)

	// cookie surface consumed by the web layer
	router.Group(func(r chi.Router) {
		r.Post("/session", h.createSession)
		r.Delete("/session", h.deleteSession)
		r.Post("/verify-email", h.startVerificationPolling)
	})

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Post("/api/auth/register", h.register)
		r.Post("/api/auth/login", h.login)
		r.Post("/api/auth/verify", h.verifyEmail)
		r.Get("/api/rate-limit", h.rateLimitInfo)
	})

	// routes behind a validated session cookie
	router.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Post("/api/auth/logout", h.logout)
		r.Get("/api/chat/limit", h.chatLimit)
		r.Post("/api/chat/usage", h.recordChatUsage)
	})

	router.Method("GET", "/metrics", promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{}))

	return router
}
