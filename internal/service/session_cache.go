package service

import (
	"sync"
	"time"

	"github.com/MKhiriev/chat-guard/models"
)

// sessionCache holds the decrypted current user and active session id in
// memory. It is shared between the auth and quota services so quota
// mutations stay visible on the cached copy.
//
// Strictly an optimization: every invariant holds with the cache empty, and
// any caller getting ok == false falls back to storage.
type sessionCache struct {
	mu        sync.RWMutex
	user      *models.User
	sessionID string
}

func newSessionCache() *sessionCache {
	return &sessionCache{}
}

// set replaces the cached user and session id.
func (c *sessionCache) set(user models.User, sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = &user
	c.sessionID = sessionID
}

// currentUser returns a copy of the cached user.
func (c *sessionCache) currentUser() (models.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return models.User{}, false
	}
	return *c.user, true
}

// currentSessionID returns the cached session id.
func (c *sessionCache) currentSessionID() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.sessionID == "" {
		return "", false
	}
	return c.sessionID, true
}

// bumpChatCount mirrors a persisted quota increment onto the cached user,
// if the cached user is the one that chatted.
func (c *sessionCache) bumpChatCount(uid string, count int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user != nil && c.user.UID == uid {
		c.user.ChatUsage.Count = count
	}
}

// resetChatCount mirrors a persisted daily reset onto the cached user.
func (c *sessionCache) resetChatCount(uid string, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user != nil && c.user.UID == uid {
		c.user.ChatUsage.Count = 0
		c.user.ChatUsage.LastReset = at
	}
}

// markVerified mirrors a verification reconcile onto the cached user.
func (c *sessionCache) markVerified(uid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user != nil && c.user.UID == uid {
		c.user.EmailVerified = true
		c.user.IsActive = true
	}
}

// clear drops everything. Called on logout.
func (c *sessionCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = nil
	c.sessionID = ""
}
