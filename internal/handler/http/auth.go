package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MKhiriev/chat-guard/internal/logger"
	"github.com/MKhiriev/chat-guard/internal/service"
	"github.com/MKhiriev/chat-guard/internal/utils"
	"github.com/MKhiriev/chat-guard/models"
)

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	user, err := h.services.AuthService.Register(ctx, req.Email, req.Password)
	if err != nil {
		log.Err(err).Msg("registration failed")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	utils.WriteJSON(w, user, http.StatusOK)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	user, session, err := h.services.AuthService.Login(ctx, req.Email, req.Password, fingerprintFromRequest(r))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailNotVerified):
			log.Warn().Msg("login attempt on unverified account")
			http.Error(w, service.ErrEmailNotVerified.Error(), http.StatusForbidden)
			return
		case errors.Is(err, service.ErrInvalidCredentials):
			// uniform message, no account-existence leakage
			http.Error(w, service.ErrInvalidCredentials.Error(), http.StatusUnauthorized)
			return
		default:
			log.Err(err).Msg("login failed")
			http.Error(w, err.Error(), statusFromError(err))
			return
		}
	}

	h.setSessionCookies(w, session.ID)
	utils.WriteJSON(w, user, http.StatusOK)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	if err := h.services.AuthService.Logout(ctx); err != nil {
		log.Err(err).Msg("logout failed")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	h.clearSessionCookies(w)
	utils.WriteJSON(w, map[string]bool{"success": true}, http.StatusOK)
}

func (h *Handler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req models.VerifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	user, err := h.services.AuthService.VerifyEmail(ctx, req.Code)
	if err != nil {
		log.Err(err).Msg("email verification failed")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	utils.WriteJSON(w, user, http.StatusOK)
}
