package identity

import (
	"context"

	"github.com/MKhiriev/chat-guard/internal/logger"
	"github.com/MKhiriev/chat-guard/internal/store"
	"github.com/MKhiriev/chat-guard/internal/utils"
)

// Resolver maps a request context onto a stable rate-limiting subject.
//
// Resolution priority: authenticated user id from the context, then the
// user id cached for the calling client, then the anonymous id cached for
// that client, and finally a freshly generated anonymous id persisted for
// reuse by the same client. Resolution never fails: the limiter always has
// a subject to key on.
//
// All cache entries are scoped by the per-client correlation id the web
// layer puts into the context. Two clients never share a subject, so one
// abusive caller cannot spend another caller's throttle window.
type Resolver struct {
	cache  store.LocalIdentityCache
	logger *logger.Logger
}

// NewResolver constructs a [Resolver] over the local identity cache.
func NewResolver(cache store.LocalIdentityCache, logger *logger.Logger) *Resolver {
	return &Resolver{cache: cache, logger: logger}
}

// ResolveSubjectID returns the rate-limiting subject for the current
// request. The returned id is a correlation key only; it must never be
// treated as proof of identity.
func (r *Resolver) ResolveSubjectID(ctx context.Context) string {
	log := logger.FromContext(ctx)

	if uid, ok := utils.GetUserIDFromContext(ctx); ok && uid != "" {
		return uid
	}

	clientID, ok := utils.GetClientIDFromContext(ctx)
	if !ok || clientID == "" {
		// nothing to scope a cache entry by; a one-request subject still
		// throttles
		return utils.NewAnonymousID()
	}

	if uid, err := r.cache.Get(ctx, clientScopedKey(store.CacheKeyUserID, clientID)); err == nil && uid != "" {
		return uid
	}

	if anonID, err := r.cache.Get(ctx, clientScopedKey(store.CacheKeyAnonymousID, clientID)); err == nil && anonID != "" {
		return anonID
	}

	anonID := utils.NewAnonymousID()
	if err := r.cache.Put(ctx, clientScopedKey(store.CacheKeyAnonymousID, clientID), anonID); err != nil {
		// a one-request subject still throttles; only reuse by the same
		// client is lost
		log.Warn().Err(err).Str("func", "*Resolver.ResolveSubjectID").Msg("failed to persist anonymous id")
	}

	return anonID
}

// RememberUserID caches the authenticated user id for the calling client so
// that client's later unauthenticated requests resolve to the same subject.
// Without a client id in the context there is nothing to scope the entry by
// and the call is a no-op.
func (r *Resolver) RememberUserID(ctx context.Context, uid string) {
	clientID, ok := utils.GetClientIDFromContext(ctx)
	if !ok || clientID == "" {
		return
	}

	if err := r.cache.Put(ctx, clientScopedKey(store.CacheKeyUserID, clientID), uid); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("func", "*Resolver.RememberUserID").Msg("failed to cache user id")
	}
}

// ForgetUserID drops the calling client's cached user id on logout. The
// anonymous id is kept so pre-login throttling stays continuous.
func (r *Resolver) ForgetUserID(ctx context.Context) {
	clientID, ok := utils.GetClientIDFromContext(ctx)
	if !ok || clientID == "" {
		return
	}

	if err := r.cache.Delete(ctx, clientScopedKey(store.CacheKeyUserID, clientID)); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("func", "*Resolver.ForgetUserID").Msg("failed to drop cached user id")
	}
}

// clientScopedKey namespaces a cache entry kind under one client's
// correlation id.
func clientScopedKey(kind, clientID string) string {
	return kind + ":" + clientID
}
