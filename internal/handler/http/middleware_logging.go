package http

import (
	"net/http"
	"time"

	"github.com/MKhiriev/chat-guard/internal/logger"
)

// withLogging emits one structured access-log line per request: method,
// URI, response status, body size, and wall time. The status and size come
// from the [responseWriter] decorator; the URI is captured before the
// handler runs because downstream code may rewrite the request.
func (h *Handler) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		start := time.Now()
		uri := r.RequestURI
		method := r.Method

		lw := &responseWriter{ResponseWriter: w}
		next.ServeHTTP(lw, r)

		log.Info().
			Str("uri", uri).
			Str("method", method).
			Int("status", lw.status).
			Dur("duration", time.Since(start)).
			Int("size", lw.size).
			Send()
	})
}
