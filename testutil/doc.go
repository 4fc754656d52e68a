// Package testutil provides test helpers for go-bearer packages.
//
// It includes an IPv4-only local HTTP server, an in-memory token endpoint that records
// requests, and self-signed certificates for TLS/mTLS tests.
//
// # Utilities
//
//   - NewLocalHTTPServer: start httptest server bound to 127.0.0.1
//   - MockOAuth2Server: stub token endpoint that captures requests and their grant types
//   - TokenEndpoint: mints signed access tokens per grant and rotates refresh tokens
//   - RoundTripFunc, StaticJSONResponse, StatusResponse: inline http.RoundTripper implementations
//   - WriteTestCACert / WriteTestCertAndKey: generate temporary CA and leaf certificates for tests
//
// MockOAuth2Server replaces http.DefaultClient/Transport and restores them via tb.Cleanup.
package testutil
