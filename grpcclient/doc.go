// Package grpcclient dials gRPC servers whose RPCs are authorized by an
// oauth2client.Authenticator.
//
// Every unary and streaming call asks the Authenticator for a credential
// before it is sent. A valid credential is reused, an expired one is renewed
// first (refresh token, then the stored strategy), and a renewal forced
// elsewhere, for example by an HTTP client sharing the same Authenticator,
// is picked up by the next call. When no usable credential can be obtained
// the call fails locally with the Authenticator's error (such as
// oauth2client.ErrExpired or oauth2client.ErrUnauthorized) and nothing is
// sent to the server.
//
// # Quick Start
//
//	auth, err := oauth2client.NewAuthenticator(secrets, exchanger, strategy, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	conn, err := grpcclient.NewBuilder().
//	    WithAddress("server.example.com:9090").
//	    WithAuthenticator(auth).
//	    Build(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close()
//
// # Transport Security
//
// Connections use TLS 1.2+ against the system roots unless configured
// otherwise. WithTLS takes a custom CA, a client certificate pair for mTLS and
// a server name override; invalid files make Build fail with ErrTLSConfig.
// WithoutTLS is meant for in-process and loopback servers only, since the
// bearer token would otherwise cross the network in clear text.
package grpcclient
