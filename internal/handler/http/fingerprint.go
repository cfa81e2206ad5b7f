package http

import (
	"context"
	"net/http"

	"github.com/MKhiriev/chat-guard/internal/utils"
	"github.com/MKhiriev/chat-guard/models"
)

// fingerprintFromRequest captures the client identity a session is bound
// to. Unresolvable components become "unknown" rather than empty so they
// still participate in the exact-match check.
func fingerprintFromRequest(r *http.Request) models.Fingerprint {
	userAgent := r.UserAgent()
	if userAgent == "" {
		userAgent = "unknown"
	}

	return models.Fingerprint{
		IPAddress: utils.ClientIP(r),
		UserAgent: userAgent,
	}
}

// withClientID derives a per-client correlation id from the request
// fingerprint and stores it in the context. The resolver scopes its cached
// throttle subjects by this id, so distinct clients never collapse onto one
// subject.
func (h *Handler) withClientID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fp := fingerprintFromRequest(r)
		clientID := utils.ClientID(fp.IPAddress, fp.UserAgent)

		ctx := context.WithValue(r.Context(), utils.ClientIDCtxKey, clientID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
