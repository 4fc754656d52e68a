// Package oauth2client obtains, caches and renews OAuth2 bearer credentials for HTTP and gRPC clients.
//
// An Authenticator holds the application secrets, an optional AuthStrategy and the current
// Acquisition. Obtain never blocks on the network: it decides under a mutex whether the cached
// credential is still good, needs a refresh-token exchange, or needs a full re-authentication,
// and hands back an Acquisition that any number of callers can wait on. Concurrent callers share
// one token request per renewal.
//
// # Features
//
//   - Authorization-code, password and refresh-token grants (CodeStrategy, PasswordStrategy, RefreshTokenStrategy)
//   - Single-use strategies are retired after their exchange; reusable ones stay for later renewals
//   - Expired credentials with a refresh token are renewed with a refresh-token exchange
//   - Failures are cached and delivered identically to every waiter until a forced renewal
//   - Typed scopes (Scope, ScopeSet) parsed from and serialized to the wire format
//   - Authorization URL builder for the code and implicit flows
//   - gRPC unary and stream client interceptors and an oauth2.TokenSource adapter
//   - Optional logging (WithLogger, WithLoggingEnabled); secrets are never logged
//
// # Quick Start
//
//	auth, err := oauth2client.NewAuthenticator(
//	    oauth2client.NewAppSecrets("client-id", "client-secret"),
//	    oauth2client.NewExchanger(nil, oauth2client.TokenURL(oauth2client.DefaultBaseURL), "my-app/1.0"),
//	    oauth2client.PasswordStrategy{
//	        Username: "user",
//	        Password: "password",
//	        Scope:    oauth2client.NewScopeSet(oauth2client.ScopeIdentity, oauth2client.ScopeRead),
//	    },
//	    nil,
//	    oauth2client.WithLoggingEnabled(),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cred, err := auth.Obtain(false).Wait(ctx)
//
// # Notes
//
//   - Cancelling the context passed to Acquisition.Wait abandons the wait only; the token request
//     runs to completion and its result is cached.
//   - Retrying failed requests is left to the caller: call Obtain(true) to replace a cached failure.
package oauth2client
