package httpclient

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AmmannChristian/go-bearer/authz"
	"github.com/AmmannChristian/go-bearer/oauth2client"
	"github.com/AmmannChristian/go-bearer/testutil"
)

// routingTransport answers token requests from endpoint and everything else from api.
func routingTransport(tb testing.TB, endpoint *testutil.TokenEndpoint, api testutil.RoundTripFunc) testutil.RoundTripFunc {
	token := endpoint.Handler(tb)
	return func(req *http.Request) (*http.Response, error) {
		if req.URL.Path == testutil.TokenPath {
			return token(req)
		}
		return api(req)
	}
}

func seededCredential() *oauth2client.Credential {
	return oauth2client.NewCredential("seeded-token", 3600, "", oauth2client.DefaultScopeSet())
}

// validBuilder returns a builder that passes every construction check.
func validBuilder() *Builder {
	return NewBuilder().
		WithAppSecrets(testSecrets).
		WithUserAgent("test-agent").
		WithCredential(seededCredential())
}

func TestNewBuilder(t *testing.T) {
	builder := NewBuilder()

	if builder == nil {
		t.Fatal("builder should not be nil")
	}

	if builder.timeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %v", builder.timeout)
	}

	if !builder.followRedirects {
		t.Error("redirects should be enabled by default")
	}

	if builder.baseURL != oauth2client.DefaultBaseURL {
		t.Errorf("unexpected default base URL %q", builder.baseURL)
	}
}

func TestBuilder_Setters(t *testing.T) {
	strategy := oauth2client.PasswordStrategy{Username: "alice", Password: "pw"}
	cred := seededCredential()
	logger := &recordingLogger{}

	builder := NewBuilder().
		WithAppSecrets(testSecrets).
		WithStrategy(strategy).
		WithCredential(cred).
		WithBaseURL("https://auth.example.com").
		WithUserAgentParts("app", "2.0", "alice").
		WithRequiredScopes(oauth2client.ScopeRead).
		WithLogger(logger)

	if builder.secrets == nil || builder.secrets.ClientID() != "client" {
		t.Error("app secrets not set correctly")
	}
	if builder.strategy != strategy {
		t.Error("strategy not set correctly")
	}
	if builder.credential != cred {
		t.Error("credential not set correctly")
	}
	if builder.baseURL != "https://auth.example.com" {
		t.Errorf("unexpected base URL %q", builder.baseURL)
	}
	if builder.userAgent != "go-bearer:app:2.0 (/u/alice)" {
		t.Errorf("unexpected user agent %q", builder.userAgent)
	}
	if len(builder.requiredScopes) != 1 || builder.requiredScopes[0] != oauth2client.ScopeRead {
		t.Errorf("unexpected required scopes %v", builder.requiredScopes)
	}
	if builder.logger != logger {
		t.Error("logger not set correctly")
	}
}

func TestBuilder_WithTLS(t *testing.T) {
	builder := NewBuilder().
		WithInsecureSkipVerify().
		WithTLS("/path/to/ca.crt", "/path/to/cert.crt", "/path/to/key.pem")

	if builder.tls == nil {
		t.Fatal("TLS options should be set")
	}
	if builder.tls.CAFile != "/path/to/ca.crt" || builder.tls.CertFile != "/path/to/cert.crt" || builder.tls.KeyFile != "/path/to/key.pem" {
		t.Errorf("unexpected TLS files %+v", *builder.tls)
	}
	if !builder.tls.InsecureSkipVerify {
		t.Error("WithTLS should keep an earlier WithInsecureSkipVerify")
	}
}

func TestBuilder_WithoutTLS(t *testing.T) {
	if NewBuilder().tls != nil {
		t.Error("TLS options should be unset by default")
	}
}

func TestBuilder_WithTimeout(t *testing.T) {
	timeout := 45 * time.Second
	builder := NewBuilder().WithTimeout(timeout)

	if builder.timeout != timeout {
		t.Errorf("expected timeout %v, got %v", timeout, builder.timeout)
	}
}

func TestBuilder_WithBaseTransport(t *testing.T) {
	customTransport := &http.Transport{}
	builder := NewBuilder().WithBaseTransport(customTransport)

	if builder.baseTransport != customTransport {
		t.Error("base transport not set correctly")
	}
}

func TestBuilder_WithoutRedirects(t *testing.T) {
	builder := NewBuilder().WithoutRedirects()

	if builder.followRedirects {
		t.Error("redirects should be disabled")
	}
}

func TestBuilder_Build_ConstructionErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder *Builder
		want    error
	}{
		{
			name:    "nothing configured",
			builder: NewBuilder(),
			want:    oauth2client.ErrMissingAppSecrets,
		},
		{
			name:    "app secrets checked before user agent",
			builder: NewBuilder().WithCredential(seededCredential()),
			want:    oauth2client.ErrMissingAppSecrets,
		},
		{
			name:    "empty client id",
			builder: NewBuilder().WithAppSecrets(oauth2client.NewAppSecrets("", "secret")).WithUserAgent("ua").WithCredential(seededCredential()),
			want:    oauth2client.ErrMissingAppSecrets,
		},
		{
			name:    "missing user agent",
			builder: NewBuilder().WithAppSecrets(testSecrets).WithCredential(seededCredential()),
			want:    ErrMissingUserAgent,
		},
		{
			name:    "missing auth flow",
			builder: NewBuilder().WithAppSecrets(testSecrets).WithUserAgent("ua"),
			want:    oauth2client.ErrMissingAuthFlow,
		},
		{
			name:    "transport checked before auth flow",
			builder: NewBuilder().WithAppSecrets(testSecrets).WithUserAgent("ua").WithTLS("", "/path/to/cert.crt", ""),
			want:    ErrTransportInit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := tt.builder.Build(context.Background())
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if client != nil {
				t.Error("no client should be returned on error")
			}
		})
	}
}

func TestBuilder_Build_Simple(t *testing.T) {
	client, err := validBuilder().Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if client.HTTPClient().Timeout != 30*time.Second {
		t.Errorf("expected timeout 30s, got %v", client.HTTPClient().Timeout)
	}

	if _, ok := client.HTTPClient().Transport.(*OAuth2Transport); !ok {
		t.Error("transport should be OAuth2Transport")
	}

	if client.UserAgent() != "test-agent" {
		t.Errorf("unexpected user agent %q", client.UserAgent())
	}
}

func TestBuilder_Build_WithCredentialMakesNoTokenRequest(t *testing.T) {
	endpoint := testutil.NewTokenEndpoint()
	transport := routingTransport(t, endpoint, func(req *http.Request) (*http.Response, error) {
		return okResponse(req, "ok"), nil
	})

	client, err := validBuilder().WithBaseTransport(transport).Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	cred, err := client.BearerToken(false).Wait(context.Background())
	if err != nil {
		t.Fatalf("BearerToken failed: %v", err)
	}
	if cred.AccessToken() != "seeded-token" {
		t.Errorf("unexpected token %q", cred.AccessToken())
	}
	if endpoint.Issued() != 0 {
		t.Errorf("expected no token requests, got %d", endpoint.Issued())
	}
}

func TestBuilder_Build_WithStrategy(t *testing.T) {
	server := testutil.NewMockOAuth2Server(t, nil)

	client, err := NewBuilder().
		WithAppSecrets(testSecrets).
		WithUserAgent("test-agent").
		WithBaseURL(server.URL).
		WithStrategy(oauth2client.PasswordStrategy{Username: "alice", Password: "pw", Scope: oauth2client.DefaultScopeSet()}).
		Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if _, err := client.BearerToken(false).Wait(context.Background()); err != nil {
		t.Fatalf("BearerToken failed: %v", err)
	}

	requests := server.Requests()
	if len(requests) != 1 {
		t.Fatalf("expected 1 token request, got %d", len(requests))
	}
	if requests[0].Path != testutil.TokenPath {
		t.Errorf("unexpected token path %s", requests[0].Path)
	}
	if ua := requests[0].Header.Get("User-Agent"); ua != "test-agent" {
		t.Errorf("token request should carry the user agent, got %q", ua)
	}
	if grant := requests[0].Form.Get("grant_type"); grant != oauth2client.GrantTypePassword {
		t.Errorf("unexpected grant type %q", grant)
	}

	if !client.Authenticator().HasStrategy() {
		t.Error("password strategy should be kept for renewals")
	}
}

func TestBuilder_Build_BearerTokenRenew(t *testing.T) {
	endpoint := testutil.NewTokenEndpoint()
	transport := routingTransport(t, endpoint, func(req *http.Request) (*http.Response, error) {
		return okResponse(req, "ok"), nil
	})

	client, err := validBuilder().
		WithBaseTransport(transport).
		WithStrategy(oauth2client.PasswordStrategy{Username: "alice", Password: "pw"}).
		Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	first := client.BearerToken(false)
	if !first.Same(client.BearerToken(false)) {
		t.Error("fresh credential should not be renewed")
	}

	renewed, err := client.BearerToken(true).Wait(context.Background())
	if err != nil {
		t.Fatalf("renewal failed: %v", err)
	}
	if renewed.AccessToken() == "seeded-token" {
		t.Error("forced renewal should issue a new token")
	}
	if endpoint.Issued() != 1 {
		t.Errorf("expected 1 token request, got %d", endpoint.Issued())
	}
}

func TestBuilder_Build_WithTimeout(t *testing.T) {
	timeout := 60 * time.Second

	client, err := validBuilder().WithTimeout(timeout).Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if client.HTTPClient().Timeout != timeout {
		t.Errorf("expected timeout %v, got %v", timeout, client.HTTPClient().Timeout)
	}
}

func TestBuilder_Build_WithoutRedirects(t *testing.T) {
	client, err := validBuilder().WithoutRedirects().Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	httpClient := client.HTTPClient()
	if httpClient.CheckRedirect == nil {
		t.Fatal("CheckRedirect should be set")
	}

	if err := httpClient.CheckRedirect(nil, nil); err != http.ErrUseLastResponse {
		t.Errorf("expected ErrUseLastResponse, got %v", err)
	}
}

func TestBuilder_Build_WithBaseTransport(t *testing.T) {
	customTransport := &http.Transport{}

	client, err := validBuilder().WithBaseTransport(customTransport).Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	oauth2Transport, ok := client.HTTPClient().Transport.(*OAuth2Transport)
	if !ok {
		t.Fatal("transport should be OAuth2Transport")
	}

	if oauth2Transport.Base != customTransport {
		t.Error("OAuth2Transport should wrap custom transport")
	}
	if oauth2Transport.UserAgent != "test-agent" {
		t.Errorf("unexpected user agent %q", oauth2Transport.UserAgent)
	}
	if oauth2Transport.Policy != nil {
		t.Error("no scope policy expected without required scopes")
	}
}

func TestBuilder_Build_WithRequiredScopes(t *testing.T) {
	apiCalled := false
	transport := testutil.RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		apiCalled = true
		return okResponse(req, "ok"), nil
	})

	client, err := validBuilder().
		WithBaseTransport(transport).
		WithRequiredScopes(oauth2client.ScopeIdentity, oauth2client.ScopeSubmit).
		Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	_, err = client.Get(context.Background(), "https://oauth.reddit.com/api/submit")
	if !errors.Is(err, authz.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	var denied *authz.PermissionDeniedError
	if !errors.As(err, &denied) || len(denied.MissingScopes) != 1 || denied.MissingScopes[0] != oauth2client.ScopeSubmit {
		t.Errorf("unexpected denial %v", err)
	}
	if apiCalled {
		t.Error("API should not be called when scopes are missing")
	}
}

func baseHTTPTransport(t *testing.T, client *Client) *http.Transport {
	t.Helper()

	oauth2Transport, ok := client.HTTPClient().Transport.(*OAuth2Transport)
	if !ok {
		t.Fatalf("expected *OAuth2Transport, got %T", client.HTTPClient().Transport)
	}
	transport, ok := oauth2Transport.Base.(*http.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport, got %T", oauth2Transport.Base)
	}
	return transport
}

func TestBuilder_Build_DefaultTLSMinimum(t *testing.T) {
	client, err := validBuilder().Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	transport := baseHTTPTransport(t, client)
	if transport.TLSClientConfig == nil || transport.TLSClientConfig.MinVersion != tls.VersionTLS12 {
		t.Error("expected TLS 1.2 minimum by default")
	}
}

func TestBuilder_Build_WithTLS_UsesConfig(t *testing.T) {
	caFile := filepath.Join(t.TempDir(), "ca.crt")
	testutil.WriteTestCACert(t, caFile)

	client, err := validBuilder().WithTLS(caFile, "", "").Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	transport := baseHTTPTransport(t, client)
	if transport.TLSClientConfig == nil {
		t.Fatal("TLSClientConfig should be set")
	}

	if transport.TLSClientConfig.RootCAs == nil {
		t.Error("RootCAs should be configured from CA file")
	}
}

func TestBuilder_Build_WithMutualTLS_LoadsCertificates(t *testing.T) {
	tmpDir := t.TempDir()
	caFile := filepath.Join(tmpDir, "ca.crt")
	certFile := filepath.Join(tmpDir, "client.crt")
	keyFile := filepath.Join(tmpDir, "client.key")

	testutil.WriteTestCACert(t, caFile)
	testutil.WriteTestCertAndKey(t, certFile, keyFile)

	client, err := validBuilder().WithTLS(caFile, certFile, keyFile).Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(baseHTTPTransport(t, client).TLSClientConfig.Certificates) == 0 {
		t.Fatal("expected client certificates to be loaded")
	}
}

func TestBuilder_Build_WithMutualTLS_InvalidCert(t *testing.T) {
	tmpDir := t.TempDir()
	certFile := filepath.Join(tmpDir, "client.crt")
	keyFile := filepath.Join(tmpDir, "client.key")

	if err := os.WriteFile(certFile, []byte("bad cert"), 0o600); err != nil {
		t.Fatalf("failed to write cert file: %v", err)
	}
	testutil.WriteTestCACert(t, keyFile) // write non-key content to trigger load error

	_, err := validBuilder().WithTLS("", certFile, keyFile).Build(context.Background())
	if !errors.Is(err, ErrTransportInit) {
		t.Fatalf("expected ErrTransportInit, got %v", err)
	}

	if !strings.Contains(err.Error(), "load client certificate") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBuilder_Build_WithInsecureSkipVerifyOnly(t *testing.T) {
	client, err := validBuilder().WithInsecureSkipVerify().Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	transport := baseHTTPTransport(t, client)
	if transport.TLSClientConfig == nil || !transport.TLSClientConfig.InsecureSkipVerify {
		t.Fatal("expected InsecureSkipVerify to be true")
	}
}

func TestBuilder_Build_TLSWithoutHTTPTransport(t *testing.T) {
	caFile := filepath.Join(t.TempDir(), "ca.crt")
	testutil.WriteTestCACert(t, caFile)

	stub := testutil.RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		return okResponse(req, "ok"), nil
	})

	origDefault := http.DefaultTransport
	http.DefaultTransport = stub
	t.Cleanup(func() { http.DefaultTransport = origDefault })

	tests := []struct {
		name    string
		builder *Builder
	}{
		{name: "stubbed default transport", builder: validBuilder().WithTLS(caFile, "", "")},
		{name: "custom round tripper", builder: validBuilder().WithBaseTransport(stub).WithInsecureSkipVerify()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build(context.Background())
			if !errors.Is(err, ErrTransportInit) {
				t.Fatalf("expected ErrTransportInit, got %v", err)
			}
			if !strings.Contains(err.Error(), "WithBaseTransport") {
				t.Errorf("error should point at WithBaseTransport: %v", err)
			}
		})
	}
}

func TestBuilder_Build_StubbedDefaultTransportWithoutTLS(t *testing.T) {
	origDefault := http.DefaultTransport
	http.DefaultTransport = testutil.RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		return okResponse(req, "ok"), nil
	})
	t.Cleanup(func() { http.DefaultTransport = origDefault })

	client, err := validBuilder().Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	resp, err := client.Get(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
}

func TestBuilder_Build_TLSAppliedToBaseTransport(t *testing.T) {
	caFile := filepath.Join(t.TempDir(), "ca.crt")
	testutil.WriteTestCACert(t, caFile)

	custom := &http.Transport{MaxIdleConns: 7}

	client, err := validBuilder().WithBaseTransport(custom).WithTLS(caFile, "", "").Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	transport := baseHTTPTransport(t, client)
	if transport == custom {
		t.Fatal("the caller's transport should be cloned, not modified")
	}
	if custom.TLSClientConfig != nil {
		t.Error("the caller's transport should keep its TLS config")
	}
	if transport.MaxIdleConns != 7 {
		t.Errorf("clone lost settings: MaxIdleConns = %d", transport.MaxIdleConns)
	}
	if transport.TLSClientConfig == nil || transport.TLSClientConfig.RootCAs == nil {
		t.Error("RootCAs should be configured from the CA file")
	}
}

func TestBuilder_Build_Integration(t *testing.T) {
	endpoint := testutil.NewTokenEndpoint()
	endpoint.Scope = "identity read"

	var seenAuth, seenUA string
	transport := routingTransport(t, endpoint, func(req *http.Request) (*http.Response, error) {
		seenAuth = req.Header.Get("Authorization")
		seenUA = req.Header.Get("User-Agent")
		return okResponse(req, "success"), nil
	})

	logger := &recordingLogger{}
	client, err := NewBuilder().
		WithAppSecrets(testSecrets).
		WithUserAgentParts("integration", "0.1", "alice").
		WithStrategy(oauth2client.PasswordStrategy{Username: "alice", Password: "pw", Scope: oauth2client.NewScopeSet(oauth2client.ScopeIdentity, oauth2client.ScopeRead)}).
		WithRequiredScopes(oauth2client.ScopeRead).
		WithBaseTransport(transport).
		WithTimeout(10 * time.Second).
		WithLogger(logger).
		Build(context.Background())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	resp, err := client.Get(context.Background(), "https://oauth.reddit.com/api/v1/me")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if string(body) != "success" {
		t.Errorf("unexpected response: %s", body)
	}

	cred, err := client.BearerToken(false).Wait(context.Background())
	if err != nil {
		t.Fatalf("BearerToken failed: %v", err)
	}
	if seenAuth != "Bearer "+cred.AccessToken() {
		t.Errorf("unexpected Authorization header %q", seenAuth)
	}
	if endpoint.GrantOf(t, cred.AccessToken()) != oauth2client.GrantTypePassword {
		t.Error("expected a token minted for the password grant")
	}
	if seenUA != "go-bearer:integration:0.1 (/u/alice)" {
		t.Errorf("unexpected User-Agent %q", seenUA)
	}
	if !strings.Contains(logger.String(), "password grant") {
		t.Errorf("expected renewal events to be logged, got %q", logger.String())
	}
}

func TestUserAgent(t *testing.T) {
	if got := UserAgent("my-app", "1.2.3", "alice"); got != "go-bearer:my-app:1.2.3 (/u/alice)" {
		t.Errorf("unexpected user agent %q", got)
	}
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) Printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.lines, "\n")
}

func BenchmarkBuilder_Build(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		client, err := validBuilder().Build(context.Background())
		if err != nil {
			b.Fatalf("Build failed: %v", err)
		}
		_ = client
	}
}
