package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// traceIDHeader carries the request correlation id. An incoming value is
// trusted and echoed back; absent one, a fresh UUID is minted so every
// throttle or quota decision in the logs can be tied to its request.
const traceIDHeader = "X-Trace-ID"

// withTraceID stamps the request with a trace id and hangs a child logger
// carrying that id in the request context. Downstream handlers and services
// pick the logger up via [logger.FromRequest] / [logger.FromContext].
func (h *Handler) withTraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(traceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		l := h.logger.GetChildLogger()
		l.UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("trace_id", traceID)
		})

		w.Header().Set(traceIDHeader, traceID)
		next.ServeHTTP(w, r.WithContext(l.WithContext(r.Context())))
	})
}
