package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/chat-guard/internal/config"
	"github.com/MKhiriev/chat-guard/internal/crypto"
	"github.com/MKhiriev/chat-guard/internal/identity"
	"github.com/MKhiriev/chat-guard/internal/logger"
	"github.com/MKhiriev/chat-guard/internal/mock"
	"github.com/MKhiriev/chat-guard/internal/store"
	"github.com/MKhiriev/chat-guard/models"
)

const testHashKey = "test-encryption-key"

// stubLimiter satisfies RateLimitService with canned answers.
type stubLimiter struct {
	allowed bool
	err     error
}

func (s *stubLimiter) CheckRateLimit(context.Context, string, string) (bool, error) {
	return s.allowed, s.err
}

func (s *stubLimiter) GetRateLimitInfo(context.Context, string, string) (models.RateLimitInfo, error) {
	return models.RateLimitInfo{}, nil
}

type authFixture struct {
	svc      *authService
	users    *mock.MockUserRepository
	sessions *mock.MockSessionRepository
	provider *mock.MockProvider
	idCache  *mock.MockLocalIdentityCache
	cache    *sessionCache
	limiter  *stubLimiter
	cipher   crypto.Cipher
	now      time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	cipher, err := crypto.NewCipher(testHashKey)
	require.NoError(t, err)

	f := &authFixture{
		users:    mock.NewMockUserRepository(ctrl),
		sessions: mock.NewMockSessionRepository(ctrl),
		provider: mock.NewMockProvider(ctrl),
		idCache:  mock.NewMockLocalIdentityCache(ctrl),
		cache:    newSessionCache(),
		limiter:  &stubLimiter{allowed: true},
		cipher:   cipher,
		now:      time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}

	// the resolver caches ids opportunistically; tests don't pin its traffic
	f.idCache.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.idCache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.idCache.EXPECT().Get(gomock.Any(), gomock.Any()).Return("", store.ErrSubjectNotCached).AnyTimes()

	cfg := config.StructuredConfig{
		App: config.App{
			EncryptionKey:   testHashKey,
			SessionDuration: 24 * time.Hour,
		},
		Identity: config.Identity{VerifyRedirectURL: "https://app.example.com/verified"},
		Quota:    config.Quota{DefaultUsageLimit: 20},
	}

	f.svc = NewAuthService(
		f.users, f.sessions, f.provider,
		identity.NewResolver(f.idCache, logger.Nop()),
		f.limiter, cipher, f.cache, cfg, logger.Nop(),
	).(*authService)
	f.svc.now = func() time.Time { return f.now }

	return f
}

func (f *authFixture) encrypt(t *testing.T, plaintext string) string {
	t.Helper()
	out, err := f.cipher.Encrypt(plaintext)
	require.NoError(t, err)
	return out
}

func testFingerprint() models.Fingerprint {
	return models.Fingerprint{IPAddress: "203.0.113.7", UserAgent: "test-agent"}
}

// ─────────────────────────────────────────────
// Register
// ─────────────────────────────────────────────

func TestRegister_Success(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.provider.EXPECT().CreateAccount(ctx, "alice@example.com", "password123").
		Return(models.Identity{UID: "uid-alice", Email: "alice@example.com", IDToken: "id-token"}, nil)

	f.users.EXPECT().CreateUser(ctx, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, user models.User, emailHash string) (models.User, error) {
			assert.Equal(t, "uid-alice", user.UID)
			assert.NotEqual(t, "alice@example.com", user.Email, "email must be stored encrypted")
			assert.False(t, user.EmailVerified)
			assert.False(t, user.IsActive)
			assert.Equal(t, models.RoleUser, user.Role)
			assert.Equal(t, 20, user.UsageLimit)
			assert.NotEmpty(t, emailHash)
			user.CreatedAt = f.now
			return user, nil
		})

	f.provider.EXPECT().SendVerification(ctx, "id-token", "https://app.example.com/verified").Return(nil)

	user, err := f.svc.Register(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email, "returned user carries plaintext")
	assert.Len(t, user.APIKey, 2*apiKeyBytes)

	cached, ok := f.svc.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "uid-alice", cached.UID)
}

func TestRegister_Throttled(t *testing.T) {
	f := newAuthFixture(t)
	f.limiter.allowed = false

	_, err := f.svc.Register(context.Background(), "alice@example.com", "password123")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestRegister_EmptyInput(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Register(context.Background(), "", "password123")
	assert.ErrorIs(t, err, ErrInvalidDataProvided)
}

func TestRegister_VerificationSendFailureIsNotFatal(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.provider.EXPECT().CreateAccount(ctx, "alice@example.com", "password123").
		Return(models.Identity{UID: "uid-alice", IDToken: "id-token"}, nil)
	f.users.EXPECT().CreateUser(ctx, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, user models.User, _ string) (models.User, error) {
			return user, nil
		})
	f.provider.EXPECT().SendVerification(ctx, "id-token", gomock.Any()).Return(assert.AnError)

	_, err := f.svc.Register(ctx, "alice@example.com", "password123")
	assert.NoError(t, err)
}

// ─────────────────────────────────────────────
// Login
// ─────────────────────────────────────────────

func TestLogin_Success(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	fp := testFingerprint()

	f.provider.EXPECT().Authenticate(ctx, "alice@example.com", "password123").
		Return(models.Identity{UID: "uid-alice", EmailVerified: true}, nil)

	f.users.EXPECT().GetUser(ctx, "uid-alice").Return(models.User{
		UID:           "uid-alice",
		Email:         f.encrypt(t, "alice@example.com"),
		APIKey:        f.encrypt(t, "api-key-1"),
		EmailVerified: true,
		IsActive:      true,
		UsageLimit:    20,
	}, nil)

	f.sessions.EXPECT().SweepExpiredSessions(ctx, "uid-alice", f.now).Return(int64(0), nil)
	f.users.EXPECT().UpdateLastLogin(ctx, "uid-alice").Return(nil)
	f.sessions.EXPECT().CreateSession(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, session models.Session) (models.Session, error) {
			assert.Equal(t, "uid-alice", session.UserID)
			assert.Len(t, session.ID, 2*sessionIDBytes)
			assert.Equal(t, f.now.Add(24*time.Hour), session.ExpiresAt)
			assert.Equal(t, fp.IPAddress, session.IPAddress)
			assert.Equal(t, fp.UserAgent, session.UserAgent)
			assert.True(t, session.IsValid)
			return session, nil
		})

	user, session, err := f.svc.Login(ctx, "alice@example.com", "password123", fp)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "api-key-1", user.APIKey)
	assert.NotEmpty(t, session.ID)

	cachedID, ok := f.cache.currentSessionID()
	require.True(t, ok)
	assert.Equal(t, session.ID, cachedID)
}

func TestLogin_UnverifiedGetsNoSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.provider.EXPECT().Authenticate(ctx, "alice@example.com", "password123").
		Return(models.Identity{UID: "uid-alice", EmailVerified: false}, nil)
	f.users.EXPECT().GetUser(ctx, "uid-alice").Return(models.User{
		UID:           "uid-alice",
		EmailVerified: false,
	}, nil)
	// no CreateSession expectation: opening one would fail the test

	_, _, err := f.svc.Login(ctx, "alice@example.com", "password123", testFingerprint())
	assert.ErrorIs(t, err, ErrEmailNotVerified)
}

func TestLogin_ReconcilesProviderVerification(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.provider.EXPECT().Authenticate(ctx, "alice@example.com", "password123").
		Return(models.Identity{UID: "uid-alice", EmailVerified: true}, nil)
	f.users.EXPECT().GetUser(ctx, "uid-alice").Return(models.User{
		UID:           "uid-alice",
		Email:         f.encrypt(t, "alice@example.com"),
		APIKey:        f.encrypt(t, "api-key-1"),
		EmailVerified: false,
	}, nil)
	f.users.EXPECT().UpdateVerification(ctx, "uid-alice", true, true).Return(nil)
	f.sessions.EXPECT().SweepExpiredSessions(ctx, "uid-alice", f.now).Return(int64(2), nil)
	f.users.EXPECT().UpdateLastLogin(ctx, "uid-alice").Return(nil)
	f.sessions.EXPECT().CreateSession(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, session models.Session) (models.Session, error) {
			return session, nil
		})

	user, _, err := f.svc.Login(ctx, "alice@example.com", "password123", testFingerprint())
	require.NoError(t, err)
	assert.True(t, user.EmailVerified)
	assert.True(t, user.IsActive)
}

func TestLogin_BadCredentials(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.provider.EXPECT().Authenticate(ctx, "alice@example.com", "wrong").
		Return(models.Identity{}, identity.ErrBadCredentials)

	_, _, err := f.svc.Login(ctx, "alice@example.com", "wrong", testFingerprint())
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_ProviderDown(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.provider.EXPECT().Authenticate(ctx, "alice@example.com", "password123").
		Return(models.Identity{}, identity.ErrProviderUnavailable)

	_, _, err := f.svc.Login(ctx, "alice@example.com", "password123", testFingerprint())
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

// ─────────────────────────────────────────────
// Session validation
// ─────────────────────────────────────────────

func storedSession(f *authFixture) models.Session {
	return models.Session{
		ID:        "abcdef0123456789abcdef0123456789",
		UserID:    "uid-alice",
		CreatedAt: f.now.Add(-time.Hour),
		ExpiresAt: f.now.Add(23 * time.Hour),
		IPAddress: "203.0.113.7",
		UserAgent: "test-agent",
		IsValid:   true,
	}
}

func TestValidateSession_Valid(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	session := storedSession(f)

	f.sessions.EXPECT().GetSession(ctx, session.ID).Return(session, nil)

	valid, err := f.svc.ValidateSession(ctx, session.ID, testFingerprint())
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestValidateSession_FingerprintMismatchRevokes(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	session := storedSession(f)

	f.sessions.EXPECT().GetSession(ctx, session.ID).Return(session, nil)
	f.sessions.EXPECT().InvalidateSession(ctx, session.ID).Return(nil)

	valid, err := f.svc.ValidateSession(ctx, session.ID, models.Fingerprint{
		IPAddress: "198.51.100.9", // different network
		UserAgent: "test-agent",
	})
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestValidateSession_RevocationIsOneShot(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	session := storedSession(f)

	// first observation from the wrong client burns the session
	f.sessions.EXPECT().GetSession(ctx, session.ID).Return(session, nil)
	f.sessions.EXPECT().InvalidateSession(ctx, session.ID).Return(nil)

	valid, err := f.svc.ValidateSession(ctx, session.ID, models.Fingerprint{IPAddress: "198.51.100.9", UserAgent: "other"})
	require.NoError(t, err)
	require.False(t, valid)

	// the original fingerprint cannot resurrect it
	revoked := session
	revoked.IsValid = false
	f.sessions.EXPECT().GetSession(ctx, session.ID).Return(revoked, nil)

	valid, err = f.svc.ValidateSession(ctx, session.ID, testFingerprint())
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestValidateSession_ExpiredIsFlagged(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	session := storedSession(f)
	session.ExpiresAt = f.now.Add(-time.Minute)

	f.sessions.EXPECT().GetSession(ctx, session.ID).Return(session, nil)
	f.sessions.EXPECT().InvalidateSession(ctx, session.ID).Return(nil)

	valid, err := f.svc.ValidateSession(ctx, session.ID, testFingerprint())
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestValidateSession_MissingIsNotAnError(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.sessions.EXPECT().GetSession(ctx, "ghost").Return(models.Session{}, store.ErrSessionNotFound)

	valid, err := f.svc.ValidateSession(ctx, "ghost", testFingerprint())
	require.NoError(t, err)
	assert.False(t, valid)
}

// ─────────────────────────────────────────────
// Logout / IsAuthenticated
// ─────────────────────────────────────────────

func TestLogout_InvalidatesAndClears(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.cache.set(models.User{UID: "uid-alice"}, "session-1")

	f.sessions.EXPECT().InvalidateSession(ctx, "session-1").Return(nil)

	require.NoError(t, f.svc.Logout(ctx))

	_, ok := f.svc.CurrentUser()
	assert.False(t, ok)
}

func TestLogout_WithoutSessionJustClears(t *testing.T) {
	f := newAuthFixture(t)

	require.NoError(t, f.svc.Logout(context.Background()))
}

func TestIsAuthenticated_CachedSessionFastPath(t *testing.T) {
	f := newAuthFixture(t)
	f.cache.set(models.User{UID: "uid-alice"}, "session-1")

	// no GetSession expectation: the fast path must not touch storage
	ok, err := f.svc.IsAuthenticated(context.Background(), "session-1", testFingerprint())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsAuthenticated_FallsBackToValidation(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	session := storedSession(f)

	f.sessions.EXPECT().GetSession(ctx, session.ID).Return(session, nil)

	ok, err := f.svc.IsAuthenticated(ctx, session.ID, testFingerprint())
	require.NoError(t, err)
	assert.True(t, ok)
}

// ─────────────────────────────────────────────
// Email verification
// ─────────────────────────────────────────────

func TestVerifyEmail_Success(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.provider.EXPECT().ApplyVerificationCode(ctx, "code-123").Return("alice@example.com", nil)
	f.users.EXPECT().FindUserByEmailHash(ctx, gomock.Any()).Return(models.User{
		UID:    "uid-alice",
		Email:  f.encrypt(t, "alice@example.com"),
		APIKey: f.encrypt(t, "api-key-1"),
	}, nil)
	f.users.EXPECT().UpdateVerification(ctx, "uid-alice", true, true).Return(nil)

	user, err := f.svc.VerifyEmail(ctx, "code-123")
	require.NoError(t, err)
	assert.True(t, user.EmailVerified)
	assert.True(t, user.IsActive)
	assert.Equal(t, "alice@example.com", user.Email)
}

func TestVerifyEmail_InvalidCode(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.provider.EXPECT().ApplyVerificationCode(ctx, "stale").
		Return("", identity.ErrInvalidVerificationCode)

	_, err := f.svc.VerifyEmail(ctx, "stale")
	assert.ErrorIs(t, err, identity.ErrInvalidVerificationCode)
}

func TestSyncVerification_ReconcilesWhenVerified(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.provider.EXPECT().LookupVerified(ctx, "uid-alice").Return(true, nil)
	f.users.EXPECT().UpdateVerification(ctx, "uid-alice", true, true).Return(nil)

	verified, err := f.svc.SyncVerification(ctx, "uid-alice")
	require.NoError(t, err)
	assert.True(t, verified)
}

func TestSyncVerification_NotYetVerified(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	// no UpdateVerification expectation: nothing to reconcile yet
	f.provider.EXPECT().LookupVerified(ctx, "uid-alice").Return(false, nil)

	verified, err := f.svc.SyncVerification(ctx, "uid-alice")
	require.NoError(t, err)
	assert.False(t, verified)
}
