// Package httpclient builds authenticated API clients on top of oauth2client.Authenticator.
//
// A Builder validates the application secrets, the User-Agent, the transport and the
// authentication flow, then returns a Client whose requests carry "Authorization: Bearer"
// and the configured User-Agent. Token requests and API requests share the same base
// transport, so TLS/mTLS settings apply to both.
//
// # Features
//
//   - Fluent builder with construction errors (ErrMissingUserAgent, ErrTransportInit,
//     oauth2client.ErrMissingAppSecrets, oauth2client.ErrMissingAuthFlow)
//   - Automatic renewal of expired credentials through the shared Authenticator
//   - Optional scope policy rejecting requests the credential is not authorized for
//   - TLS 1.2+ by default, with custom CA/mTLS and optional InsecureSkipVerify
//   - Custom timeouts, base transport override, and redirect disabling
//   - Reusable OAuth2Transport for manual composition
//
// # Quick Start
//
//	client, err := httpclient.NewBuilder().
//	    WithAppSecrets(oauth2client.NewAppSecrets("client-id", "client-secret")).
//	    WithUserAgentParts("my-app", "1.0.0", "my-username").
//	    WithStrategy(oauth2client.PasswordStrategy{
//	        Username: "my-username",
//	        Password: "password",
//	        Scope:    oauth2client.NewScopeSet(oauth2client.ScopeIdentity),
//	    }).
//	    WithTimeout(60 * time.Second).
//	    Build(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := client.Get(ctx, "https://oauth.reddit.com/api/v1/me")
//
// # Manual Transport Wrapping
//
//	transport := httpclient.NewOAuth2Transport(auth, nil)
//	client := &http.Client{Transport: transport}
//
// # TLS
//
// TLS options are applied to a clone of the base transport, which must be an
// *http.Transport (http.DefaultTransport or one given to WithBaseTransport).
// Any other RoundTripper combined with TLS options makes Build fail with
// ErrTransportInit.
//
// All components are safe for concurrent use.
package httpclient
