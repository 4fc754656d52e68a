package oauth2client

import "net/url"

// Grant types sent in the grant_type form field.
const (
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypePassword          = "password"
	GrantTypeRefreshToken      = "refresh_token"
)

// AuthStrategy describes how a Credential is obtained from the token endpoint.
//
// Implementations are CodeStrategy, PasswordStrategy and RefreshTokenStrategy.
// Single-use strategies are discarded by the Authenticator after their first
// exchange; reusable ones stay available for later re-authentication.
type AuthStrategy interface {
	// GrantType returns the OAuth2 grant_type value.
	GrantType() string
	// IsSingleUse reports whether the strategy must be discarded after one exchange.
	IsSingleUse() bool
	// Form returns the form-encoded token request body fields.
	Form() url.Values

	authStrategy()
}

// CodeStrategy exchanges a one-time authorization code.
type CodeStrategy struct {
	Code        string
	RedirectURI string
	Scope       ScopeSet
}

// PasswordStrategy authenticates on behalf of a user with a username and password.
// It is the only reusable strategy.
type PasswordStrategy struct {
	Username string
	Password string
	Scope    ScopeSet
}

// RefreshTokenStrategy exchanges a refresh token. The Authenticator derives it
// from an expired Credential and never stores it.
type RefreshTokenStrategy struct {
	RefreshToken string
}

func (CodeStrategy) GrantType() string         { return GrantTypeAuthorizationCode }
func (PasswordStrategy) GrantType() string     { return GrantTypePassword }
func (RefreshTokenStrategy) GrantType() string { return GrantTypeRefreshToken }

func (CodeStrategy) IsSingleUse() bool         { return true }
func (PasswordStrategy) IsSingleUse() bool     { return false }
func (RefreshTokenStrategy) IsSingleUse() bool { return true }

func (CodeStrategy) authStrategy()         {}
func (PasswordStrategy) authStrategy()     {}
func (RefreshTokenStrategy) authStrategy() {}

// Form implements AuthStrategy.
func (s CodeStrategy) Form() url.Values {
	return url.Values{
		"grant_type":   {GrantTypeAuthorizationCode},
		"code":         {s.Code},
		"redirect_uri": {s.RedirectURI},
		"scope":        {s.Scope.String()},
	}
}

// Form implements AuthStrategy.
func (s PasswordStrategy) Form() url.Values {
	return url.Values{
		"grant_type": {GrantTypePassword},
		"username":   {s.Username},
		"password":   {s.Password},
		"scope":      {s.Scope.String()},
	}
}

// Form implements AuthStrategy.
func (s RefreshTokenStrategy) Form() url.Values {
	return url.Values{
		"grant_type":    {GrantTypeRefreshToken},
		"refresh_token": {s.RefreshToken},
	}
}
