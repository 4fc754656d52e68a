package testutil

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"io"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenPath is the token endpoint path served by the mock server.
const TokenPath = "/api/v1/access_token"

// NewLocalHTTPServer starts an HTTP server bound to IPv4 loopback only.
// The sandbox blocks IPv6 listeners, so force tcp4 to keep tests runnable.
func NewLocalHTTPServer(tb testing.TB, handler http.Handler) *httptest.Server {
	tb.Helper()

	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		tb.Fatalf("failed to create IPv4 listener: %v", err)
	}

	server := httptest.NewUnstartedServer(handler)
	server.Listener = listener
	server.Start()
	tb.Cleanup(server.Close)

	return server
}

// RoundTripFunc allows inlining http.RoundTripper implementations.
type RoundTripFunc func(*http.Request) (*http.Response, error)

// RoundTrip calls the underlying function.
func (f RoundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// RecordedRequest is a snapshot of a request seen by MockOAuth2Server.
type RecordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Form   url.Values
}

// MockOAuth2Server simulates a token endpoint without real sockets.
// It records requests and serves responses through a custom RoundTripper.
// Recording is safe for concurrent requests.
type MockOAuth2Server struct {
	URL string

	client *http.Client

	mu       sync.Mutex
	requests []RecordedRequest
}

// NewMockOAuth2Server builds a mock token endpoint backed by an in-memory
// RoundTripper. It also installs that RoundTripper as http.DefaultTransport
// for the duration of the test. If handler is nil, every request gets a
// freshly minted token from a default TokenEndpoint.
func NewMockOAuth2Server(tb testing.TB, handler RoundTripFunc) *MockOAuth2Server {
	tb.Helper()

	server := &MockOAuth2Server{
		URL: "https://mock-oauth.example.com",
	}

	if handler == nil {
		handler = NewTokenEndpoint().Handler(tb)
	}

	rt := RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		server.record(tb, req)
		return handler(req)
	})

	prevTransport := http.DefaultTransport
	prevClient := http.DefaultClient
	http.DefaultTransport = rt
	http.DefaultClient = &http.Client{Transport: rt}
	tb.Cleanup(func() {
		http.DefaultTransport = prevTransport
		http.DefaultClient = prevClient
	})

	server.client = &http.Client{Transport: rt, Timeout: 5 * time.Second}

	return server
}

// record snapshots req and restores its body for the handler.
func (m *MockOAuth2Server) record(tb testing.TB, req *http.Request) {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			tb.Errorf("failed to read request body: %v", err)
		}
		_ = req.Body.Close()
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	form, _ := url.ParseQuery(string(body))

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, RecordedRequest{
		Method: req.Method,
		Path:   req.URL.Path,
		Header: req.Header.Clone(),
		Form:   form,
	})
}

// Client returns an http.Client wired to the mock endpoint.
func (m *MockOAuth2Server) Client() *http.Client {
	return m.client
}

// TokenURL returns the token endpoint URL.
func (m *MockOAuth2Server) TokenURL() string {
	return m.URL + TokenPath
}

// Requests returns a copy of the recorded requests.
func (m *MockOAuth2Server) Requests() []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RecordedRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// RequestCount returns the number of recorded requests.
func (m *MockOAuth2Server) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// GrantTypes returns the grant_type of every recorded request, in order.
func (m *MockOAuth2Server) GrantTypes() []string {
	requests := m.Requests()
	grants := make([]string, len(requests))
	for i, req := range requests {
		grants[i] = req.Form.Get("grant_type")
	}
	return grants
}

// JSONResponse builds a response with the given status and JSON body.
func JSONResponse(req *http.Request, status int, body string) *http.Response {
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}
}

// StaticJSONResponse returns a RoundTripper that always responds with the provided JSON body.
func StaticJSONResponse(body string) RoundTripFunc {
	return func(req *http.Request) (*http.Response, error) {
		return JSONResponse(req, http.StatusOK, body), nil
	}
}

// StatusResponse returns a RoundTripper that always responds with status and an empty JSON object.
func StatusResponse(status int) RoundTripFunc {
	return func(req *http.Request) (*http.Response, error) {
		return JSONResponse(req, status, `{}`), nil
	}
}

// TokenEndpoint issues a new signed access token for every request.
// Each token is a JWT whose claims record the sequence number and the
// grant type it was issued for, so tests can tell exchanges apart.
type TokenEndpoint struct {
	ExpiresIn    int
	RefreshToken string // omitted from responses when empty
	Scope        string

	key []byte

	mu     sync.Mutex
	issued int
}

// NewTokenEndpoint returns an endpoint issuing one-hour identity tokens
// without refresh tokens.
func NewTokenEndpoint() *TokenEndpoint {
	return &TokenEndpoint{
		ExpiresIn: 3600,
		Scope:     "identity",
		key:       []byte("testutil-token-endpoint"),
	}
}

// Issued returns how many tokens have been minted.
func (e *TokenEndpoint) Issued() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.issued
}

// Handler returns a RoundTripFunc answering token requests.
func (e *TokenEndpoint) Handler(tb testing.TB) RoundTripFunc {
	return func(req *http.Request) (*http.Response, error) {
		if err := req.ParseForm(); err != nil {
			tb.Errorf("failed to parse token request: %v", err)
		}
		return JSONResponse(req, http.StatusOK, e.respond(tb, req.PostForm.Get("grant_type"))), nil
	}
}

// ServeHTTP lets the endpoint back a real httptest server.
func (e *TokenEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != TokenPath {
		http.NotFound(w, r)
		return
	}
	if _, _, ok := r.BasicAuth(); !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, e.respond(nil, r.PostForm.Get("grant_type")))
}

func (e *TokenEndpoint) respond(tb testing.TB, grantType string) string {
	e.mu.Lock()
	e.issued++
	seq := e.issued
	e.mu.Unlock()

	body := map[string]any{
		"access_token": e.mint(tb, seq, grantType),
		"token_type":   "bearer",
		"expires_in":   e.ExpiresIn,
		"scope":        e.Scope,
	}
	if e.RefreshToken != "" {
		body["refresh_token"] = e.RefreshToken
	}

	encoded, err := json.Marshal(body)
	if err != nil && tb != nil {
		tb.Errorf("failed to encode token response: %v", err)
	}
	return string(encoded)
}

func (e *TokenEndpoint) mint(tb testing.TB, seq int, grantType string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"seq":   seq,
		"grant": grantType,
		"iat":   time.Now().Unix(),
	})
	signed, err := token.SignedString(e.key)
	if err != nil && tb != nil {
		tb.Errorf("failed to sign access token: %v", err)
	}
	return signed
}

// GrantOf returns the grant type recorded in an access token minted by e.
func (e *TokenEndpoint) GrantOf(tb testing.TB, accessToken string) string {
	tb.Helper()

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(accessToken, claims, func(*jwt.Token) (any, error) {
		return e.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		tb.Fatalf("failed to parse access token: %v", err)
	}

	grant, _ := claims["grant"].(string)
	return grant
}

// WriteTestCACert writes a self-signed CA certificate to the provided path for TLS tests.
func WriteTestCACert(tb testing.TB, path string) {
	tb.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		tb.Fatalf("failed to generate CA key: %v", err)
	}

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		Subject:               pkix.Name{CommonName: "test-ca"},
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &privateKey.PublicKey, privateKey)
	if err != nil {
		tb.Fatalf("failed to create CA certificate: %v", err)
	}

	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	if err := os.WriteFile(path, pemBytes, 0o600); err != nil {
		tb.Fatalf("failed to write CA certificate: %v", err)
	}
}

// WriteTestCertAndKey writes a self-signed certificate and key to the provided paths.
func WriteTestCertAndKey(tb testing.TB, certPath, keyPath string) {
	tb.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		tb.Fatalf("failed to generate key: %v", err)
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		Subject:      pkix.Name{CommonName: "test-cert"},
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth, x509.ExtKeyUsageServerAuth},
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &privateKey.PublicKey, privateKey)
	if err != nil {
		tb.Fatalf("failed to create certificate: %v", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	if err := os.WriteFile(certPath, certPEM, 0o600); err != nil {
		tb.Fatalf("failed to write certificate: %v", err)
	}

	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privateKey)})
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		tb.Fatalf("failed to write key: %v", err)
	}
}
