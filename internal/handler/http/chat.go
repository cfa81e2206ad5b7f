package http

import (
	"net/http"

	"github.com/MKhiriev/chat-guard/internal/logger"
	"github.com/MKhiriev/chat-guard/internal/utils"
	"github.com/MKhiriev/chat-guard/models"
)

// chatLimit handles GET /api/chat/limit for the authenticated user:
// whether another chat is allowed today and how many remain.
func (h *Handler) chatLimit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	allowed, err := h.services.QuotaService.CheckChatLimit(ctx, userID)
	if err != nil {
		log.Err(err).Msg("chat limit check failed")
		http.Error(w, http.StatusText(statusFromError(err)), statusFromError(err))
		return
	}

	remaining, err := h.services.QuotaService.RemainingChats(ctx, userID)
	if err != nil {
		log.Err(err).Msg("remaining chats lookup failed")
		http.Error(w, http.StatusText(statusFromError(err)), statusFromError(err))
		return
	}

	utils.WriteJSON(w, models.ChatLimitResponse{Allowed: allowed, Remaining: remaining}, http.StatusOK)
}

// recordChatUsage handles POST /api/chat/usage: one consumed chat action.
// The quota gate runs first so a spent allowance answers 429 instead of
// silently over-counting.
func (h *Handler) recordChatUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	allowed, err := h.services.QuotaService.CheckChatLimit(ctx, userID)
	if err != nil {
		log.Err(err).Msg("chat limit check failed")
		http.Error(w, http.StatusText(statusFromError(err)), statusFromError(err))
		return
	}
	if !allowed {
		http.Error(w, "daily chat limit reached", http.StatusTooManyRequests)
		return
	}

	if err := h.services.QuotaService.IncrementChatUsage(ctx, userID); err != nil {
		log.Err(err).Msg("chat usage increment failed")
		http.Error(w, http.StatusText(statusFromError(err)), statusFromError(err))
		return
	}

	remaining, err := h.services.QuotaService.RemainingChats(ctx, userID)
	if err != nil {
		log.Err(err).Msg("remaining chats lookup failed")
		http.Error(w, http.StatusText(statusFromError(err)), statusFromError(err))
		return
	}

	utils.WriteJSON(w, models.ChatLimitResponse{Allowed: remaining > 0, Remaining: remaining}, http.StatusOK)
}

// rateLimitInfo handles GET /api/rate-limit?endpoint=<name>: display-only
// throttle state for the caller's subject, no attempt recorded.
func (h *Handler) rateLimitInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	endpoint := r.URL.Query().Get("endpoint")
	if endpoint == "" {
		http.Error(w, "endpoint is required", http.StatusBadRequest)
		return
	}

	subject := h.services.Resolver.ResolveSubjectID(ctx)

	info, err := h.services.RateLimitService.GetRateLimitInfo(ctx, subject, endpoint)
	if err != nil {
		log.Err(err).Msg("rate limit info lookup failed")
		http.Error(w, http.StatusText(statusFromError(err)), statusFromError(err))
		return
	}

	utils.WriteJSON(w, models.RateLimitInfoResponse{
		Remaining: info.Remaining,
		ResetTime: info.ResetTime,
	}, http.StatusOK)
}
