package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/chat-guard/internal/config"
	"github.com/MKhiriev/chat-guard/internal/crypto"
	"github.com/MKhiriev/chat-guard/internal/identity"
	"github.com/MKhiriev/chat-guard/internal/logger"
	"github.com/MKhiriev/chat-guard/internal/store"
	"github.com/MKhiriev/chat-guard/internal/utils"
	"github.com/MKhiriev/chat-guard/models"
)

// Throttle endpoint keys for auth actions.
const (
	endpointRegister    = "register"
	endpointLogin       = "login"
	endpointVerifyEmail = "verify_email"
)

// sessionIDBytes is the entropy of a session id; hex-encoded to 32 chars.
const sessionIDBytes = 16

// apiKeyBytes is the entropy of an issued per-user API key.
const apiKeyBytes = 16

// authService is the concrete implementation of AuthService.
//
// It fronts the upstream identity provider for credentials and email
// verification, persists the local user record with encrypted PII, and owns
// the fingerprint-bound session lifecycle. Auth actions are throttled
// through the rate limiter before touching the provider.
type authService struct {
	userRepository    store.UserRepository
	sessionRepository store.SessionRepository

	// provider is the upstream account authority.
	provider identity.Provider

	// resolver maps the request context onto a throttle subject.
	resolver *identity.Resolver

	// rateLimiter throttles register/login/verify actions.
	rateLimiter RateLimitService

	// cipher encrypts email and API key at rest.
	cipher crypto.Cipher

	// cache holds the decrypted current user and session id.
	cache *sessionCache

	// hashKey keys the deterministic email lookup digest.
	hashKey string

	// sessionDuration is the session lifetime.
	sessionDuration time.Duration

	// verifyRedirectURL is where the verification email should land after
	// the user clicks the link.
	verifyRedirectURL string

	// defaultUsageLimit seeds the daily chat allowance of new users.
	defaultUsageLimit int

	// now is the clock; injectable for expiry tests.
	now func() time.Time

	// logger is the structured logger used for diagnostic and error output.
	logger *logger.Logger
}

// NewAuthService constructs an AuthService wired to the given repositories,
// identity provider, resolver, limiter, and cipher.
//
// The returned service is safe for concurrent use; all mutable state lives
// in the shared session cache, which is synchronized internally.
func NewAuthService(
	userRepository store.UserRepository,
	sessionRepository store.SessionRepository,
	provider identity.Provider,
	resolver *identity.Resolver,
	rateLimiter RateLimitService,
	cipher crypto.Cipher,
	cache *sessionCache,
	cfg config.StructuredConfig,
	logger *logger.Logger,
) AuthService {
	return &authService{
		userRepository:    userRepository,
		sessionRepository: sessionRepository,
		provider:          provider,
		resolver:          resolver,
		rateLimiter:       rateLimiter,
		cipher:            cipher,
		cache:             cache,
		hashKey:           cfg.App.EncryptionKey,
		sessionDuration:   cfg.App.SessionDuration,
		verifyRedirectURL: cfg.Identity.VerifyRedirectURL,
		defaultUsageLimit: cfg.Quota.DefaultUsageLimit,
		now:               time.Now,
		logger:            logger,
	}
}

// Register creates a provider account for the credentials, persists the
// local user record with encrypted email and a freshly issued API key, and
// triggers the verification email.
//
// The action is throttled per anonymous subject before the provider is
// contacted. A failure to send the verification email is logged but does
// not fail registration: the poller and login-time reconcile cover it.
//
// Returns the decrypted user or:
//   - ErrInvalidDataProvided if email or password is empty.
//   - ErrRateLimited when the register throttle rejects the attempt.
//   - identity.ErrAccountAlreadyExists when the email is taken.
//   - ErrUpstreamUnavailable when the provider cannot be reached.
func (a *authService) Register(ctx context.Context, email, password string) (models.User, error) {
	log := logger.FromContext(ctx)

	if email == "" || password == "" {
		return models.User{}, ErrInvalidDataProvided
	}

	if err := a.throttle(ctx, endpointRegister); err != nil {
		return models.User{}, err
	}

	id, err := a.provider.CreateAccount(ctx, email, password)
	if err != nil {
		log.Err(err).Str("func", "*authService.Register").Msg("provider account creation failed")
		return models.User{}, mapProviderError(err)
	}

	apiKey, err := utils.RandomHex(apiKeyBytes)
	if err != nil {
		return models.User{}, fmt.Errorf("issuing api key: %w", err)
	}

	encryptedEmail, err := a.cipher.Encrypt(email)
	if err != nil {
		return models.User{}, fmt.Errorf("encrypting email: %w", err)
	}
	encryptedKey, err := a.cipher.Encrypt(apiKey)
	if err != nil {
		return models.User{}, fmt.Errorf("encrypting api key: %w", err)
	}

	created, err := a.userRepository.CreateUser(ctx, models.User{
		UID:           id.UID,
		Email:         encryptedEmail,
		EmailVerified: false,
		APIKey:        encryptedKey,
		UsageLimit:    a.defaultUsageLimit,
		IsActive:      false,
		Role:          models.RoleUser,
	}, utils.HashString(email, a.hashKey))
	if err != nil {
		log.Err(err).Str("func", "*authService.Register").Msg("user creation ended with error")
		return models.User{}, fmt.Errorf("user creation ended with error: %w", err)
	}

	if err := a.provider.SendVerification(ctx, id.IDToken, a.verifyRedirectURL); err != nil {
		log.Warn().Err(err).Str("uid", id.UID).Msg("failed to send verification email")
	}

	// cache the plaintext view; storage keeps only ciphertext
	created.Email = email
	created.APIKey = apiKey
	a.cache.set(created, "")
	a.resolver.RememberUserID(ctx, created.UID)

	return created, nil
}

// Login authenticates the credentials against the provider and opens a
// fingerprint-bound session.
//
// When the provider reports the email verified but the local record does
// not, the record is reconciled before the verification gate. Unverified
// accounts are rejected with ErrEmailNotVerified and no session. Expired
// sessions of the user are swept to invalid on the way in.
//
// Returns the decrypted user and the new session, or:
//   - ErrInvalidDataProvided if email or password is empty.
//   - ErrRateLimited when the login throttle rejects the attempt.
//   - ErrInvalidCredentials on any credential failure, including an
//     account with no local record. The message never reveals which.
//   - ErrEmailNotVerified for correct credentials on an unverified account.
//   - ErrUpstreamUnavailable when the provider cannot be reached.
func (a *authService) Login(ctx context.Context, email, password string, fp models.Fingerprint) (models.User, models.Session, error) {
	log := logger.FromContext(ctx)

	if email == "" || password == "" {
		return models.User{}, models.Session{}, ErrInvalidDataProvided
	}

	if err := a.throttle(ctx, endpointLogin); err != nil {
		return models.User{}, models.Session{}, err
	}

	id, err := a.provider.Authenticate(ctx, email, password)
	if err != nil {
		log.Warn().Err(err).Str("func", "*authService.Login").Msg("provider authentication failed")
		return models.User{}, models.Session{}, mapProviderError(err)
	}

	user, err := a.userRepository.GetUser(ctx, id.UID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Warn().Str("uid", id.UID).Msg("authenticated account has no local record")
			return models.User{}, models.Session{}, ErrInvalidCredentials
		}
		return models.User{}, models.Session{}, fmt.Errorf("loading user: %w", err)
	}

	if id.EmailVerified && !user.EmailVerified {
		if err := a.userRepository.UpdateVerification(ctx, user.UID, true, true); err != nil {
			return models.User{}, models.Session{}, fmt.Errorf("reconciling verification: %w", err)
		}
		user.EmailVerified = true
		user.IsActive = true
	}

	if !user.EmailVerified {
		return models.User{}, models.Session{}, ErrEmailNotVerified
	}

	if _, err := a.sessionRepository.SweepExpiredSessions(ctx, user.UID, a.now()); err != nil {
		// stale rows stay flagged valid until the next sweep; validation
		// still rejects them by expiry
		log.Warn().Err(err).Str("uid", user.UID).Msg("failed to sweep expired sessions")
	}

	if err := a.userRepository.UpdateLastLogin(ctx, user.UID); err != nil {
		log.Warn().Err(err).Str("uid", user.UID).Msg("failed to stamp last login")
	}

	session, err := a.CreateSession(ctx, user.UID, fp)
	if err != nil {
		return models.User{}, models.Session{}, err
	}

	decrypted, err := a.decryptUser(user)
	if err != nil {
		return models.User{}, models.Session{}, err
	}

	decrypted.LastLoginAt = a.now()
	a.cache.set(decrypted, session.ID)
	a.resolver.RememberUserID(ctx, decrypted.UID)

	return decrypted, session, nil
}

// Logout invalidates the current session and clears the cached identity.
// The session id comes from the context (set by the auth middleware) or
// from the cache; logout with neither present just clears local state.
func (a *authService) Logout(ctx context.Context) error {
	sessionID, ok := utils.GetSessionIDFromContext(ctx)
	if !ok {
		sessionID, _ = a.cache.currentSessionID()
	}

	if sessionID != "" {
		if err := a.InvalidateSession(ctx, sessionID); err != nil {
			return err
		}
	}

	a.cache.clear()
	a.resolver.ForgetUserID(ctx)
	return nil
}

// CreateSession opens a session for userID bound to fp, valid for the
// configured duration from now.
func (a *authService) CreateSession(ctx context.Context, userID string, fp models.Fingerprint) (models.Session, error) {
	log := logger.FromContext(ctx)

	if userID == "" {
		return models.Session{}, ErrInvalidDataProvided
	}

	sessionID, err := utils.RandomHex(sessionIDBytes)
	if err != nil {
		return models.Session{}, fmt.Errorf("generating session id: %w", err)
	}

	now := a.now()
	session, err := a.sessionRepository.CreateSession(ctx, models.Session{
		ID:        sessionID,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(a.sessionDuration),
		IPAddress: fp.IPAddress,
		UserAgent: fp.UserAgent,
		IsValid:   true,
	})
	if err != nil {
		log.Err(err).Str("func", "*authService.CreateSession").Msg("session creation ended with error")
		return models.Session{}, fmt.Errorf("session creation ended with error: %w", err)
	}

	return session, nil
}

// ValidateSession checks existence, the validity flag, expiry, and an
// exact fingerprint match against the stored session.
//
// A fingerprint mismatch permanently revokes the session before returning
// false: a session observed from the wrong client is burned, it cannot be
// retried from the right one. Expired sessions are flagged invalid on
// sight. A missing session is (false, nil), not an error; only storage
// failures return a non-nil error.
func (a *authService) ValidateSession(ctx context.Context, sessionID string, fp models.Fingerprint) (bool, error) {
	log := logger.FromContext(ctx)

	if sessionID == "" {
		return false, nil
	}

	session, err := a.sessionRepository.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("loading session: %w", err)
	}

	if !session.IsValid {
		return false, nil
	}

	if session.Expired(a.now()) {
		if err := a.InvalidateSession(ctx, sessionID); err != nil {
			log.Warn().Err(err).Str("sessionID", sessionID).Msg("failed to flag expired session")
		}
		return false, nil
	}

	if !fp.Equal(session.Fingerprint()) {
		log.Warn().
			Str("sessionID", sessionID).
			Str("uid", session.UserID).
			Msg("session fingerprint mismatch, revoking")
		if err := a.InvalidateSession(ctx, sessionID); err != nil {
			log.Warn().Err(err).Str("sessionID", sessionID).Msg("failed to revoke mismatched session")
		}
		return false, nil
	}

	return true, nil
}

// InvalidateSession revokes the session. Revoking a session that is
// already gone is a no-op; revocation must stay idempotent.
func (a *authService) InvalidateSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrInvalidDataProvided
	}

	if err := a.sessionRepository.InvalidateSession(ctx, sessionID); err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil
		}
		return fmt.Errorf("invalidating session: %w", err)
	}

	return nil
}

// SessionOwner returns the stored session for sessionID. It does not
// re-run validation; callers pair it with ValidateSession.
func (a *authService) SessionOwner(ctx context.Context, sessionID string) (models.Session, error) {
	session, err := a.sessionRepository.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return models.Session{}, ErrSessionInvalid
		}
		return models.Session{}, fmt.Errorf("loading session: %w", err)
	}

	return session, nil
}

// IsAuthenticated reports whether the caller holds a usable session.
//
// Fast path: the presented session id matches the cached one, meaning this
// process authenticated it already. Otherwise the full stored-session
// validation runs, fingerprint check included.
func (a *authService) IsAuthenticated(ctx context.Context, sessionID string, fp models.Fingerprint) (bool, error) {
	if sessionID == "" {
		return false, nil
	}

	if cached, ok := a.cache.currentSessionID(); ok && cached == sessionID {
		return true, nil
	}

	return a.ValidateSession(ctx, sessionID, fp)
}

// VerifyEmail consumes an emailed action code at the provider, resolves the
// email it verified, and marks the matching local user verified and active.
//
// Returns the decrypted user or:
//   - ErrInvalidDataProvided if the code is empty.
//   - ErrRateLimited when the verify throttle rejects the attempt.
//   - identity.ErrInvalidVerificationCode for a stale or malformed code.
//   - ErrUpstreamUnavailable when the provider cannot be reached.
func (a *authService) VerifyEmail(ctx context.Context, code string) (models.User, error) {
	log := logger.FromContext(ctx)

	if code == "" {
		return models.User{}, ErrInvalidDataProvided
	}

	if err := a.throttle(ctx, endpointVerifyEmail); err != nil {
		return models.User{}, err
	}

	email, err := a.provider.ApplyVerificationCode(ctx, code)
	if err != nil {
		log.Warn().Err(err).Str("func", "*authService.VerifyEmail").Msg("applying verification code failed")
		return models.User{}, mapProviderError(err)
	}

	user, err := a.userRepository.FindUserByEmailHash(ctx, utils.HashString(email, a.hashKey))
	if err != nil {
		return models.User{}, fmt.Errorf("locating user for verified email: %w", err)
	}

	if err := a.userRepository.UpdateVerification(ctx, user.UID, true, true); err != nil {
		return models.User{}, fmt.Errorf("marking user verified: %w", err)
	}

	user.EmailVerified = true
	user.IsActive = true
	a.cache.markVerified(user.UID)

	return a.decryptUser(user)
}

// SyncVerification asks the provider whether uid's email is now verified
// and reconciles the local record when it is. Returns the provider's
// verdict.
func (a *authService) SyncVerification(ctx context.Context, uid string) (bool, error) {
	log := logger.FromContext(ctx)

	if uid == "" {
		return false, ErrInvalidDataProvided
	}

	verified, err := a.provider.LookupVerified(ctx, uid)
	if err != nil {
		log.Warn().Err(err).Str("uid", uid).Msg("verification lookup failed")
		return false, mapProviderError(err)
	}

	if !verified {
		return false, nil
	}

	if err := a.userRepository.UpdateVerification(ctx, uid, true, true); err != nil {
		return false, fmt.Errorf("reconciling verification: %w", err)
	}
	a.cache.markVerified(uid)

	return true, nil
}

// CurrentUser returns the cached decrypted user, if any.
func (a *authService) CurrentUser() (models.User, bool) {
	return a.cache.currentUser()
}

// throttle runs the limiter for the resolved subject and endpoint,
// translating a denial into ErrRateLimited.
func (a *authService) throttle(ctx context.Context, endpoint string) error {
	subject := a.resolver.ResolveSubjectID(ctx)

	allowed, err := a.rateLimiter.CheckRateLimit(ctx, subject, endpoint)
	if err != nil {
		return fmt.Errorf("throttling %s: %w", endpoint, err)
	}
	if !allowed {
		return ErrRateLimited
	}

	return nil
}

// decryptUser returns a copy of user with email and API key in plaintext.
func (a *authService) decryptUser(user models.User) (models.User, error) {
	email, err := a.cipher.Decrypt(user.Email)
	if err != nil {
		return models.User{}, fmt.Errorf("decrypting email: %w", err)
	}
	apiKey, err := a.cipher.Decrypt(user.APIKey)
	if err != nil {
		return models.User{}, fmt.Errorf("decrypting api key: %w", err)
	}

	user.Email = email
	user.APIKey = apiKey
	return user, nil
}

// mapProviderError translates identity package sentinels into the service
// taxonomy. Code errors pass through so the web layer can answer 400.
func mapProviderError(err error) error {
	switch {
	case errors.Is(err, identity.ErrBadCredentials):
		return ErrInvalidCredentials
	case errors.Is(err, identity.ErrProviderUnavailable):
		return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	default:
		return err
	}
}
