package oauth2client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the authorization server used when none is configured.
	DefaultBaseURL = "https://www.reddit.com"

	accessTokenPath = "/api/v1/access_token"
	authorizePath   = "/api/v1/authorize"
)

// TokenURL returns the token endpoint for baseURL.
func TokenURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + accessTokenPath
}

// Exchanger issues token requests against the token endpoint.
// It is stateless and safe for concurrent use.
type Exchanger struct {
	client    *http.Client
	tokenURL  string
	userAgent string
}

// NewExchanger creates an Exchanger posting to tokenURL.
// If client is nil, a client with a 30 second timeout over http.DefaultTransport is used.
func NewExchanger(client *http.Client, tokenURL, userAgent string) *Exchanger {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Exchanger{
		client:    client,
		tokenURL:  tokenURL,
		userAgent: userAgent,
	}
}

// Exchange posts the strategy's form to the token endpoint using HTTP Basic
// authentication with the app secrets, buffers the whole response body and
// turns it into a Credential.
//
// A refresh-token exchange whose response carries no refresh_token keeps the
// presented refresh token, so the credential stays renewable.
//
// Errors: ErrInvalidRequest when the request cannot be built, ErrNetwork on
// transport or body-read failures, *ResponseError for non-2xx statuses, and
// ErrInvalidResponse / ErrBadCredentials for unusable bodies.
func (e *Exchanger) Exchange(ctx context.Context, secrets AppSecrets, strategy AuthStrategy) (*Credential, error) {
	req, err := e.newRequest(ctx, secrets, strategy)
	if err != nil {
		return nil, err
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ResponseError{StatusCode: resp.StatusCode}
	}

	cred, err := parseCredential(body)
	if err != nil {
		return nil, err
	}

	// Refresh responses usually omit refresh_token; the presented one stays valid.
	if refresh, ok := strategy.(RefreshTokenStrategy); ok && cred.refreshToken == nil && refresh.RefreshToken != "" {
		token := refresh.RefreshToken
		cred.refreshToken = &token
	}

	return cred, nil
}

func (e *Exchanger) newRequest(ctx context.Context, secrets AppSecrets, strategy AuthStrategy) (*http.Request, error) {
	if strategy == nil {
		return nil, fmt.Errorf("%w: no strategy", ErrInvalidRequest)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.tokenURL, strings.NewReader(strategy.Form().Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	secret, _ := secrets.ClientSecret()
	req.SetBasicAuth(secrets.ClientID(), secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}

	return req, nil
}
