package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/chat-guard/internal/config"
	"github.com/MKhiriev/chat-guard/internal/logger"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) (Provider, *httptest.Server) {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	provider, err := NewRESTProvider(config.Identity{
		BaseURL:        ts.URL,
		APIKey:         "test-api-key",
		RequestTimeout: 2 * time.Second,
	}, logger.Nop())
	require.NoError(t, err)

	return provider, ts
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	return token
}

func writeProviderError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": message}})
}

// ─────────────────────────────────────────────
// CreateAccount
// ─────────────────────────────────────────────

func TestCreateAccount_Success(t *testing.T) {
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts:signUp", r.URL.Path)
		assert.Equal(t, "test-api-key", r.URL.Query().Get("key"))

		var body credentialsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice@example.com", body.Email)
		assert.True(t, body.ReturnSecureToken)

		_ = json.NewEncoder(w).Encode(accountResponse{
			LocalID: "uid-alice",
			Email:   "alice@example.com",
		})
	})

	id, err := provider.CreateAccount(context.Background(), "alice@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "uid-alice", id.UID)
	assert.Equal(t, "alice@example.com", id.Email)
	assert.False(t, id.EmailVerified)
}

func TestCreateAccount_EmailExists(t *testing.T) {
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeProviderError(w, http.StatusBadRequest, "EMAIL_EXISTS")
	})

	_, err := provider.CreateAccount(context.Background(), "alice@example.com", "password123")
	assert.ErrorIs(t, err, ErrAccountAlreadyExists)
}

// ─────────────────────────────────────────────
// Authenticate
// ─────────────────────────────────────────────

func TestAuthenticate_VerifiedFromIDToken(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "uid-alice", "email_verified": true})

	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts:signInWithPassword", r.URL.Path)
		_ = json.NewEncoder(w).Encode(accountResponse{
			LocalID: "uid-alice",
			Email:   "alice@example.com",
			IDToken: token,
		})
	})

	id, err := provider.Authenticate(context.Background(), "alice@example.com", "password123")
	require.NoError(t, err)
	assert.True(t, id.EmailVerified)
	assert.Equal(t, token, id.IDToken)
}

func TestAuthenticate_BadCredentials(t *testing.T) {
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeProviderError(w, http.StatusBadRequest, "INVALID_LOGIN_CREDENTIALS")
	})

	_, err := provider.Authenticate(context.Background(), "alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestAuthenticate_ProviderDown(t *testing.T) {
	provider, ts := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {})
	ts.Close()

	_, err := provider.Authenticate(context.Background(), "alice@example.com", "password123")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

// ─────────────────────────────────────────────
// Verification codes
// ─────────────────────────────────────────────

func TestApplyVerificationCode_ReturnsEmail(t *testing.T) {
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts:update", r.URL.Path)

		var body oobCodeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "code-123", body.OOBCode)

		_ = json.NewEncoder(w).Encode(oobCodeResponse{Email: "alice@example.com"})
	})

	email, err := provider.ApplyVerificationCode(context.Background(), "code-123")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)
}

func TestApplyVerificationCode_Invalid(t *testing.T) {
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeProviderError(w, http.StatusBadRequest, "INVALID_OOB_CODE")
	})

	_, err := provider.ApplyVerificationCode(context.Background(), "stale-code")
	assert.ErrorIs(t, err, ErrInvalidVerificationCode)
}

// ─────────────────────────────────────────────
// LookupVerified
// ─────────────────────────────────────────────

func TestLookupVerified_Verified(t *testing.T) {
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts:lookup", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"users": []map[string]any{{"localId": "uid-alice", "emailVerified": true}},
		})
	})

	verified, err := provider.LookupVerified(context.Background(), "uid-alice")
	require.NoError(t, err)
	assert.True(t, verified)
}

func TestLookupVerified_UnknownUID(t *testing.T) {
	provider, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"users": []map[string]any{}})
	})

	_, err := provider.LookupVerified(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

// ─────────────────────────────────────────────
// Construction
// ─────────────────────────────────────────────

func TestNewRESTProvider_RejectsEmptyAddress(t *testing.T) {
	_, err := NewRESTProvider(config.Identity{BaseURL: "   "}, logger.Nop())
	assert.Error(t, err)
}

func TestVerifiedFromIDToken_Garbage(t *testing.T) {
	_, ok := verifiedFromIDToken("not-a-jwt")
	assert.False(t, ok)
}
