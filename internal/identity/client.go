package identity

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MKhiriev/chat-guard/internal/config"
	"github.com/MKhiriev/chat-guard/internal/logger"
	"github.com/MKhiriev/chat-guard/internal/utils"
	"github.com/MKhiriev/chat-guard/models"
)

// restProvider is the HTTP/REST implementation of [Provider]. It speaks the
// provider's accounts API (signUp, signInWithPassword, sendOobCode, update,
// lookup) authenticated by a server API key passed as a query parameter.
type restProvider struct {
	client *utils.HTTPClient
	apiKey string
	logger *logger.Logger
}

// Wire shapes of the provider's accounts API.
type (
	credentialsRequest struct {
		Email             string `json:"email"`
		Password          string `json:"password"`
		ReturnSecureToken bool   `json:"returnSecureToken"`
	}

	accountResponse struct {
		LocalID string `json:"localId"`
		Email   string `json:"email"`
		IDToken string `json:"idToken"`
	}

	oobCodeRequest struct {
		RequestType string `json:"requestType"`
		IDToken     string `json:"idToken,omitempty"`
		OOBCode     string `json:"oobCode,omitempty"`
		ContinueURL string `json:"continueUrl,omitempty"`
	}

	oobCodeResponse struct {
		Email string `json:"email"`
	}

	lookupRequest struct {
		LocalID []string `json:"localId"`
	}

	lookupResponse struct {
		Users []struct {
			LocalID       string `json:"localId"`
			EmailVerified bool   `json:"emailVerified"`
		} `json:"users"`
	}

	providerErrorBody struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
)

// NewRESTProvider constructs a [Provider] speaking to the accounts API at
// cfg.BaseURL. Returns an error if the base URL is empty or unparseable.
func NewRESTProvider(cfg config.Identity, logger *logger.Logger) (Provider, error) {
	baseURL, err := normalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid identity provider address: %w", err)
	}

	client := utils.NewHTTPClient(cfg.RequestTimeout)
	client.SetBaseURL(baseURL)

	return &restProvider{client: client, apiKey: cfg.APIKey, logger: logger}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// CreateAccount implements [Provider]. It POSTs the credentials to
// accounts:signUp and returns the provider-assigned identity. A freshly
// created account is always unverified.
func (p *restProvider) CreateAccount(ctx context.Context, email, password string) (models.Identity, error) {
	var account accountResponse
	var apiErr providerErrorBody

	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("key", p.apiKey).
		SetBody(credentialsRequest{Email: email, Password: password, ReturnSecureToken: true}).
		SetResult(&account).
		SetError(&apiErr).
		Post("/v1/accounts:signUp")
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	if resp.IsError() {
		return models.Identity{}, mapProviderError(resp.StatusCode(), apiErr.Error.Message)
	}

	return identityFromAccount(account), nil
}

// Authenticate implements [Provider]. It POSTs the credentials to
// accounts:signInWithPassword. The verified flag is read from the returned
// ID token's email_verified claim; the token arrived over the authenticated
// channel, so its claims are decoded without signature verification.
func (p *restProvider) Authenticate(ctx context.Context, email, password string) (models.Identity, error) {
	var account accountResponse
	var apiErr providerErrorBody

	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("key", p.apiKey).
		SetBody(credentialsRequest{Email: email, Password: password, ReturnSecureToken: true}).
		SetResult(&account).
		SetError(&apiErr).
		Post("/v1/accounts:signInWithPassword")
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	if resp.IsError() {
		return models.Identity{}, mapProviderError(resp.StatusCode(), apiErr.Error.Message)
	}

	return identityFromAccount(account), nil
}

// SendVerification implements [Provider]. It asks the provider to email a
// VERIFY_EMAIL action link to the account behind idToken.
func (p *restProvider) SendVerification(ctx context.Context, idToken, redirectURL string) error {
	var apiErr providerErrorBody

	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("key", p.apiKey).
		SetBody(oobCodeRequest{RequestType: "VERIFY_EMAIL", IDToken: idToken, ContinueURL: redirectURL}).
		SetError(&apiErr).
		Post("/v1/accounts:sendOobCode")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	if resp.IsError() {
		return mapProviderError(resp.StatusCode(), apiErr.Error.Message)
	}

	return nil
}

// ApplyVerificationCode implements [Provider]. It consumes the action code
// and returns the email address it verified.
func (p *restProvider) ApplyVerificationCode(ctx context.Context, code string) (string, error) {
	var result oobCodeResponse
	var apiErr providerErrorBody

	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("key", p.apiKey).
		SetBody(oobCodeRequest{OOBCode: code}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/v1/accounts:update")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	if resp.IsError() {
		return "", mapProviderError(resp.StatusCode(), apiErr.Error.Message)
	}

	return result.Email, nil
}

// CheckVerificationCode implements [Provider]. It inspects the action code
// without consuming it and returns the email address it targets.
func (p *restProvider) CheckVerificationCode(ctx context.Context, code string) (string, error) {
	var result oobCodeResponse
	var apiErr providerErrorBody

	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("key", p.apiKey).
		SetBody(oobCodeRequest{OOBCode: code}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/v1/accounts:resetPassword")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	if resp.IsError() {
		return "", mapProviderError(resp.StatusCode(), apiErr.Error.Message)
	}

	return result.Email, nil
}

// LookupVerified implements [Provider]. It queries accounts:lookup for the
// uid and reports the provider's emailVerified flag.
func (p *restProvider) LookupVerified(ctx context.Context, uid string) (bool, error) {
	var result lookupResponse
	var apiErr providerErrorBody

	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("key", p.apiKey).
		SetBody(lookupRequest{LocalID: []string{uid}}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/v1/accounts:lookup")
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	if resp.IsError() {
		return false, mapProviderError(resp.StatusCode(), apiErr.Error.Message)
	}
	if len(result.Users) == 0 {
		return false, ErrAccountNotFound
	}

	return result.Users[0].EmailVerified, nil
}

// identityFromAccount builds a [models.Identity] from a signUp/signIn
// response, refining the verified flag from the ID token claims when the
// token is decodable.
func identityFromAccount(account accountResponse) models.Identity {
	id := models.Identity{
		UID:     account.LocalID,
		Email:   account.Email,
		IDToken: account.IDToken,
	}

	if verified, ok := verifiedFromIDToken(account.IDToken); ok {
		id.EmailVerified = verified
	}

	return id
}

// verifiedFromIDToken decodes the email_verified claim from an ID token.
// The token came straight from the provider over TLS; this is claim
// extraction, not authentication, so the signature is not checked.
func verifiedFromIDToken(idToken string) (bool, bool) {
	if idToken == "" {
		return false, false
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(idToken, claims); err != nil {
		return false, false
	}

	verified, ok := claims["email_verified"].(bool)
	return verified, ok
}

// mapProviderError converts a provider error body into a package sentinel.
func mapProviderError(status int, message string) error {
	switch {
	case strings.Contains(message, "EMAIL_EXISTS"):
		return ErrAccountAlreadyExists
	case strings.Contains(message, "INVALID_LOGIN_CREDENTIALS"),
		strings.Contains(message, "INVALID_PASSWORD"),
		strings.Contains(message, "EMAIL_NOT_FOUND"):
		return ErrBadCredentials
	case strings.Contains(message, "INVALID_OOB_CODE"),
		strings.Contains(message, "EXPIRED_OOB_CODE"):
		return ErrInvalidVerificationCode
	case strings.Contains(message, "USER_NOT_FOUND"):
		return ErrAccountNotFound
	default:
		if message == "" {
			message = "no error detail"
		}
		return fmt.Errorf("%w: http %d: %s", ErrProviderUnavailable, status, message)
	}
}
