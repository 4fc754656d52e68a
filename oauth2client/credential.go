package oauth2client

import (
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// Credential is a bearer token issued by the token endpoint.
// It is immutable once created and safe to share between goroutines.
type Credential struct {
	accessToken  string
	issuedAt     time.Time
	ttl          int
	refreshToken *string
	scope        ScopeSet

	now func() time.Time
}

// NewCredential creates a Credential issued now. An empty refreshToken means
// the credential cannot be renewed with a refresh-token exchange.
func NewCredential(accessToken string, ttlSeconds int, refreshToken string, scope ScopeSet) *Credential {
	c := &Credential{
		accessToken: accessToken,
		issuedAt:    time.Now(),
		ttl:         ttlSeconds,
		scope:       scope,
	}
	if refreshToken != "" {
		c.refreshToken = &refreshToken
	}
	return c
}

// tokenResponse is the JSON body returned by the token endpoint.
type tokenResponse struct {
	AccessToken  string   `json:"access_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int      `json:"expires_in"`
	RefreshToken *string  `json:"refresh_token"`
	Scope        ScopeSet `json:"scope"`
	Error        string   `json:"error"`
}

// parseCredential decodes a token endpoint body. issuedAt is stamped here,
// never read from the wire.
func parseCredential(body []byte) (*Credential, error) {
	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	switch {
	case resp.Error == "invalid_grant":
		return nil, ErrBadCredentials
	case resp.Error != "":
		return nil, fmt.Errorf("%w: %s", ErrInvalidResponse, resp.Error)
	case resp.AccessToken == "":
		return nil, fmt.Errorf("%w: missing access_token", ErrInvalidResponse)
	}

	return &Credential{
		accessToken:  resp.AccessToken,
		issuedAt:     time.Now(),
		ttl:          resp.ExpiresIn,
		refreshToken: resp.RefreshToken,
		scope:        resp.Scope,
	}, nil
}

func (c *Credential) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

// AccessToken returns the bearer token value.
func (c *Credential) AccessToken() string {
	return c.accessToken
}

// IssuedAt returns when the credential was created locally.
func (c *Credential) IssuedAt() time.Time {
	return c.issuedAt
}

// ExpiresIn returns the validity duration in seconds.
func (c *Credential) ExpiresIn() int {
	return c.ttl
}

// ExpiresAt returns the instant at which IsExpired starts reporting true.
func (c *Credential) ExpiresAt() time.Time {
	return c.issuedAt.Add(time.Duration(c.ttl) * time.Second)
}

// RefreshToken returns the refresh token and whether one was issued.
func (c *Credential) RefreshToken() (string, bool) {
	if c.refreshToken == nil {
		return "", false
	}
	return *c.refreshToken, true
}

// Scope returns the granted scopes.
func (c *Credential) Scope() ScopeSet {
	return c.scope
}

// IsExpired reports whether at least ttl seconds have elapsed since issuance.
// Reaching the boundary exactly counts as expired.
func (c *Credential) IsExpired() bool {
	return c.clock().Sub(c.issuedAt) >= time.Duration(c.ttl)*time.Second
}

// IsRenewable reports whether a refresh token is present.
func (c *Credential) IsRenewable() bool {
	return c.refreshToken != nil
}

// Matches reports whether the credential grants scope.
func (c *Credential) Matches(scope Scope) bool {
	return c.scope.Matches(scope)
}

// Token converts the credential into an *oauth2.Token for use with
// golang.org/x/oauth2 clients and transports.
func (c *Credential) Token() *oauth2.Token {
	token := &oauth2.Token{
		AccessToken: c.accessToken,
		TokenType:   "Bearer",
		Expiry:      c.ExpiresAt(),
		ExpiresIn:   int64(c.ttl),
	}
	if refresh, ok := c.RefreshToken(); ok {
		token.RefreshToken = refresh
	}
	return token.WithExtra(map[string]any{"scope": c.scope.String()})
}
