package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MKhiriev/chat-guard/internal/identity"
	"github.com/MKhiriev/chat-guard/internal/logger"
	"github.com/MKhiriev/chat-guard/internal/service"
	"github.com/MKhiriev/chat-guard/internal/store"
	"github.com/MKhiriev/chat-guard/internal/utils"
	"github.com/MKhiriev/chat-guard/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─────────────────────────────────────────────
// Mock QuotaService / RateLimitService
// ─────────────────────────────────────────────

type mockQuotaService struct {
	checkChatLimitFn     func(ctx context.Context, userID string) (bool, error)
	incrementChatUsageFn func(ctx context.Context, userID string) error
	remainingChatsFn     func(ctx context.Context, userID string) (int, error)
}

func (m *mockQuotaService) CheckChatLimit(ctx context.Context, userID string) (bool, error) {
	return m.checkChatLimitFn(ctx, userID)
}

func (m *mockQuotaService) IncrementChatUsage(ctx context.Context, userID string) error {
	return m.incrementChatUsageFn(ctx, userID)
}

func (m *mockQuotaService) RemainingChats(ctx context.Context, userID string) (int, error) {
	return m.remainingChatsFn(ctx, userID)
}

type mockRateLimitService struct {
	checkRateLimitFn   func(ctx context.Context, subject, endpoint string) (bool, error)
	getRateLimitInfoFn func(ctx context.Context, subject, endpoint string) (models.RateLimitInfo, error)
}

func (m *mockRateLimitService) CheckRateLimit(ctx context.Context, subject, endpoint string) (bool, error) {
	return m.checkRateLimitFn(ctx, subject, endpoint)
}

func (m *mockRateLimitService) GetRateLimitInfo(ctx context.Context, subject, endpoint string) (models.RateLimitInfo, error) {
	return m.getRateLimitInfoFn(ctx, subject, endpoint)
}

// memoryCache is an in-memory store.LocalIdentityCache for resolver-backed
// handler tests.
type memoryCache struct {
	values map[string]string
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	v, ok := c.values[key]
	if !ok {
		return "", store.ErrSubjectNotCached
	}
	return v, nil
}

func (c *memoryCache) Put(_ context.Context, key, value string) error {
	c.values[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	delete(c.values, key)
	return nil
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

func newHandlerWithQuota(quota service.QuotaService) *Handler {
	return &Handler{
		services: &service.Services{QuotaService: quota},
		logger:   logger.Nop(),
	}
}

// asUser attaches the authenticated user's id the way the auth middleware
// does.
func asUser(r *http.Request, userID string) *http.Request {
	ctx := context.WithValue(r.Context(), utils.UserIDCtxKey, userID)
	return r.WithContext(ctx)
}

// ─────────────────────────────────────────────
// chatLimit
// ─────────────────────────────────────────────

// TestChatLimit_Success verifies the allowance report for an authenticated
// user.
func TestChatLimit_Success(t *testing.T) {
	quota := &mockQuotaService{
		checkChatLimitFn: func(_ context.Context, userID string) (bool, error) {
			require.Equal(t, "uid-123", userID)
			return true, nil
		},
		remainingChatsFn: func(_ context.Context, _ string) (int, error) {
			return 7, nil
		},
	}

	h := newHandlerWithQuota(quota)
	req := asUser(httptest.NewRequest(http.MethodGet, "/api/chat/limit", nil), "uid-123")
	rec := httptest.NewRecorder()

	h.chatLimit(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got models.ChatLimitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Allowed)
	assert.Equal(t, 7, got.Remaining)
}

func TestChatLimit_NoUserInContext(t *testing.T) {
	h := newHandlerWithQuota(&mockQuotaService{})
	req := httptest.NewRequest(http.MethodGet, "/api/chat/limit", nil)
	rec := httptest.NewRecorder()

	h.chatLimit(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestChatLimit_StorageError verifies the fail-closed verdict surfaces as a
// server error, not as a silent allow.
func TestChatLimit_StorageError(t *testing.T) {
	quota := &mockQuotaService{
		checkChatLimitFn: func(_ context.Context, _ string) (bool, error) {
			return false, errors.New("connection reset")
		},
	}

	h := newHandlerWithQuota(quota)
	req := asUser(httptest.NewRequest(http.MethodGet, "/api/chat/limit", nil), "uid-123")
	rec := httptest.NewRecorder()

	h.chatLimit(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

// ─────────────────────────────────────────────
// recordChatUsage
// ─────────────────────────────────────────────

// TestRecordChatUsage_Success verifies the gate-increment-report sequence.
func TestRecordChatUsage_Success(t *testing.T) {
	var incremented bool
	quota := &mockQuotaService{
		checkChatLimitFn: func(_ context.Context, _ string) (bool, error) { return true, nil },
		incrementChatUsageFn: func(_ context.Context, userID string) error {
			require.Equal(t, "uid-123", userID)
			incremented = true
			return nil
		},
		remainingChatsFn: func(_ context.Context, _ string) (int, error) { return 4, nil },
	}

	h := newHandlerWithQuota(quota)
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/chat/usage", nil), "uid-123")
	rec := httptest.NewRecorder()

	h.recordChatUsage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, incremented)

	var got models.ChatLimitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 4, got.Remaining)
}

// TestRecordChatUsage_QuotaSpent verifies that a spent allowance answers
// 429 without incrementing.
func TestRecordChatUsage_QuotaSpent(t *testing.T) {
	quota := &mockQuotaService{
		checkChatLimitFn: func(_ context.Context, _ string) (bool, error) { return false, nil },
		incrementChatUsageFn: func(_ context.Context, _ string) error {
			t.Fatal("increment must not run once the quota is spent")
			return nil
		},
	}

	h := newHandlerWithQuota(quota)
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/chat/usage", nil), "uid-123")
	rec := httptest.NewRecorder()

	h.recordChatUsage(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

// ─────────────────────────────────────────────
// rateLimitInfo
// ─────────────────────────────────────────────

// TestRateLimitInfo_Success verifies the display-only state for a resolved
// subject.
func TestRateLimitInfo_Success(t *testing.T) {
	reset := time.Now().Add(30 * time.Minute).Truncate(time.Second)

	limiter := &mockRateLimitService{
		getRateLimitInfoFn: func(_ context.Context, subject, endpoint string) (models.RateLimitInfo, error) {
			require.Equal(t, "uid-123", subject)
			require.Equal(t, "login", endpoint)
			return models.RateLimitInfo{Remaining: 42, ResetTime: reset}, nil
		},
	}

	clientID := utils.ClientID("192.0.2.1", "test-agent")
	cache := &memoryCache{values: map[string]string{store.CacheKeyUserID + ":" + clientID: "uid-123"}}
	h := &Handler{
		services: &service.Services{
			RateLimitService: limiter,
			Resolver:         identity.NewResolver(cache, logger.Nop()),
		},
		logger: logger.Nop(),
	}

	req := httptest.NewRequest(http.MethodGet, "/api/rate-limit?endpoint=login", nil)
	req = req.WithContext(context.WithValue(req.Context(), utils.ClientIDCtxKey, clientID))
	rec := httptest.NewRecorder()

	h.rateLimitInfo(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got models.RateLimitInfoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 42, got.Remaining)
	assert.True(t, got.ResetTime.Equal(reset))
}

func TestRateLimitInfo_MissingEndpoint(t *testing.T) {
	h := &Handler{
		services: &service.Services{},
		logger:   logger.Nop(),
	}

	req := httptest.NewRequest(http.MethodGet, "/api/rate-limit", nil)
	rec := httptest.NewRecorder()

	h.rateLimitInfo(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
