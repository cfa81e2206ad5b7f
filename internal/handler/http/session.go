package http

import (
	"encoding/json"
	"net/http"

	"github.com/MKhiriev/chat-guard/internal/logger"
	"github.com/MKhiriev/chat-guard/internal/utils"
	"github.com/MKhiriev/chat-guard/models"
)

// createSession handles POST /session: the cookie-issuing call the web
// layer makes after a successful provider login. It opens a
// fingerprint-bound session for the given uid and sets both session
// cookies.
func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}
	if req.UID == "" {
		http.Error(w, "uid is required", http.StatusBadRequest)
		return
	}

	session, err := h.services.AuthService.CreateSession(ctx, req.UID, fingerprintFromRequest(r))
	if err != nil {
		log.Err(err).Msg("session creation failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.setSessionCookies(w, session.ID)
	utils.WriteJSON(w, map[string]bool{"success": true}, http.StatusOK)
}

// deleteSession handles DELETE /session. Revocation is idempotent: a
// missing or already-revoked session still clears the cookies and answers
// 200.
func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		if err := h.services.AuthService.InvalidateSession(ctx, cookie.Value); err != nil {
			log.Err(err).Msg("session invalidation failed")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	}

	h.clearSessionCookies(w)
	utils.WriteJSON(w, map[string]bool{"success": true}, http.StatusOK)
}

// startVerificationPolling handles POST /verify-email: registers the uid
// with the background poller that syncs the provider's verification verdict
// into the user record. Re-posting a uid already being watched is a no-op.
func (h *Handler) startVerificationPolling(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	var req models.VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}
	if req.UID == "" {
		http.Error(w, "uid is required", http.StatusBadRequest)
		return
	}

	started := h.poller.StartPolling(req.UID)
	if !started {
		log.Debug().Str("uid", req.UID).Msg("verification polling already in flight")
	}

	utils.WriteJSON(w, map[string]bool{"success": true}, http.StatusOK)
}
