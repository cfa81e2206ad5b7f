// Package http implements the HTTP transport layer of the application.
// It provides middleware, route handlers, and request/response utilities
// for the REST API. Session authentication, logging, and tracing concerns
// are all handled at this layer before requests are forwarded to the
// service layer.
package http

import (
	"context"
	"net/http"

	"github.com/MKhiriev/chat-guard/internal/logger"
	"github.com/MKhiriev/chat-guard/internal/utils"
)

// auth is an HTTP middleware that enforces cookie-based session
// authentication.
//
// It reads the session id from the HttpOnly session cookie, validates it
// via [service.AuthService.ValidateSession] together with the caller's
// fingerprint (client IP and User-Agent), and — on success — stores the
// session owner's user id and the session id in the request context under
// [utils.UserIDCtxKey] and [utils.SessionIDCtxKey].
//
// The middleware rejects requests with HTTP 401 Unauthorized when the
// cookie is absent or the session fails validation (missing, revoked,
// expired, or presented with the wrong fingerprint — the last of those
// also permanently revokes the session). Validation failures are never
// 5xx: a storage failure during validation is logged and answered 401, so
// a flaky database does not leak whether a session exists.
func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)
		ctx := r.Context()

		cookie, err := r.Cookie(sessionCookie)
		if err != nil || cookie.Value == "" {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		valid, err := h.services.AuthService.ValidateSession(ctx, cookie.Value, fingerprintFromRequest(r))
		if err != nil {
			log.Err(err).Msg("session validation errored")
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		if !valid {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		session, err := h.services.AuthService.SessionOwner(ctx, cookie.Value)
		if err != nil {
			log.Err(err).Msg("session owner lookup failed")
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		// Store the session owner's id in the context so downstream
		// handlers can retrieve it without re-validating the cookie.
		ctx = context.WithValue(ctx, utils.UserIDCtxKey, session.UserID)
		ctx = context.WithValue(ctx, utils.SessionIDCtxKey, session.ID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
