package http

import (
	"net/http"
	"time"
)

// Cookie names of the session surface.
//
// sessionCookie carries the opaque session id and stays HttpOnly.
// loggedInCookie is a client-readable marker the web UI uses to branch
// before making any call; it carries no secret and grants nothing.
const (
	sessionCookie  = "auth_session"
	loggedInCookie = "logged_in"
)

// setSessionCookies issues both cookies for the given session id, expiring
// with the session.
func (h *Handler) setSessionCookies(w http.ResponseWriter, sessionID string) {
	maxAge := int(h.sessionDuration / time.Second)

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     loggedInCookie,
		Value:    "true",
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: false,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookies expires both cookies immediately.
func (h *Handler) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{sessionCookie, loggedInCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: name == sessionCookie,
			Secure:   h.secureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
