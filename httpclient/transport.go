package httpclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/AmmannChristian/go-bearer/authz"
	"github.com/AmmannChristian/go-bearer/oauth2client"
)

// ErrNoAuthenticator is returned by OAuth2Transport when no Authenticator is set.
var ErrNoAuthenticator = errors.New("httpclient: Authenticator is nil")

// OAuth2Transport is an http.RoundTripper that adds a bearer credential
// and a User-Agent to outgoing HTTP requests.
//
// It wraps an existing transport (typically http.DefaultTransport) and
// injects the headers before each request.
type OAuth2Transport struct {
	// Base is the underlying HTTP transport. If nil, http.DefaultTransport is used.
	Base http.RoundTripper

	// Authenticator provides bearer credentials.
	Authenticator *oauth2client.Authenticator

	// UserAgent, if set, replaces the User-Agent header of every request.
	UserAgent string

	// Policy, if set, rejects requests whose credential lacks required scopes.
	Policy *authz.Evaluator
}

// RoundTrip implements http.RoundTripper interface.
// It obtains a usable credential and adds it as "Authorization: Bearer <token>"
// to the request headers before delegating to the base transport.
// The wait for the credential respects the request context's cancellation and deadline.
func (t *OAuth2Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Authenticator == nil {
		return nil, ErrNoAuthenticator
	}

	cred, err := t.Authenticator.Credential(req.Context(), false)
	if err != nil {
		return nil, fmt.Errorf("httpclient: failed to get token: %w", err)
	}
	if cred.IsExpired() {
		return nil, fmt.Errorf("httpclient: failed to get token: %w", oauth2client.ErrExpired)
	}

	if err := t.Policy.Authorize(cred); err != nil {
		return nil, fmt.Errorf("httpclient: %w", err)
	}

	// Clone the request to avoid modifying the original
	reqClone := req.Clone(req.Context())
	reqClone.Header.Set("Authorization", "Bearer "+cred.AccessToken())
	if t.UserAgent != "" {
		reqClone.Header.Set("User-Agent", t.UserAgent)
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	return base.RoundTrip(reqClone)
}

// NewOAuth2Transport creates a new OAuth2Transport with the given Authenticator.
// The base transport defaults to http.DefaultTransport if not specified.
func NewOAuth2Transport(auth *oauth2client.Authenticator, base http.RoundTripper) *OAuth2Transport {
	if base == nil {
		base = http.DefaultTransport
	}

	return &OAuth2Transport{
		Base:          base,
		Authenticator: auth,
	}
}
