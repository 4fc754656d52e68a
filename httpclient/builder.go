package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/AmmannChristian/go-bearer/authz"
	"github.com/AmmannChristian/go-bearer/internal/tlsconfig"
	"github.com/AmmannChristian/go-bearer/oauth2client"
)

// Construction errors returned by Builder.Build in addition to
// oauth2client.ErrMissingAppSecrets and oauth2client.ErrMissingAuthFlow.
var (
	ErrMissingUserAgent = errors.New("httpclient: missing user agent")
	ErrTransportInit    = errors.New("httpclient: transport initialization failed")
)

// errTLSNeedsTransport is wrapped in ErrTransportInit when TLS options are set
// but the base transport is not an *http.Transport they could be applied to.
var errTLSNeedsTransport = errors.New("TLS options require an *http.Transport base; pass one to WithBaseTransport")

// Builder provides a fluent interface for constructing an authenticated
// API client with TLS/mTLS support.
type Builder struct {
	// Authentication
	secrets        *oauth2client.AppSecrets
	strategy       oauth2client.AuthStrategy
	credential     *oauth2client.Credential
	baseURL        string
	userAgent      string
	requiredScopes []oauth2client.Scope
	logger         oauth2client.Logger

	// TLS configuration; nil keeps the TLS 1.2 default
	tls *tlsconfig.Options

	// HTTP client configuration
	timeout         time.Duration
	baseTransport   http.RoundTripper
	followRedirects bool
}

// NewBuilder creates a new client builder.
func NewBuilder() *Builder {
	return &Builder{
		baseURL:         oauth2client.DefaultBaseURL,
		timeout:         30 * time.Second, // Default 30s timeout
		followRedirects: true,
	}
}

// WithAppSecrets sets the application credentials used for token requests. Required.
func (b *Builder) WithAppSecrets(secrets oauth2client.AppSecrets) *Builder {
	b.secrets = &secrets
	return b
}

// WithStrategy sets how the first (and, for reusable strategies, later) credentials are obtained.
func (b *Builder) WithStrategy(strategy oauth2client.AuthStrategy) *Builder {
	b.strategy = strategy
	return b
}

// WithCredential seeds the client with a previously obtained credential.
func (b *Builder) WithCredential(cred *oauth2client.Credential) *Builder {
	b.credential = cred
	return b
}

// WithBaseURL sets the authorization server. Default is oauth2client.DefaultBaseURL.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.baseURL = baseURL
	return b
}

// WithUserAgent sets the User-Agent sent with token and API requests. Required.
func (b *Builder) WithUserAgent(userAgent string) *Builder {
	b.userAgent = userAgent
	return b
}

// WithUserAgentParts sets the User-Agent from its parts, see UserAgent.
func (b *Builder) WithUserAgentParts(appID, appVersion, username string) *Builder {
	b.userAgent = UserAgent(appID, appVersion, username)
	return b
}

// WithRequiredScopes makes API requests fail unless the credential grants all
// of the given scopes.
func (b *Builder) WithRequiredScopes(scopes ...oauth2client.Scope) *Builder {
	b.requiredScopes = scopes
	return b
}

// WithLogger sets a logger for credential renewal events.
func (b *Builder) WithLogger(logger oauth2client.Logger) *Builder {
	b.logger = logger
	return b
}

// WithTLS configures TLS for token and API requests. It needs an
// *http.Transport base: http.DefaultTransport or one passed to WithBaseTransport.
//
// Parameters:
//   - caFile: Path to CA certificate for server verification (optional, uses system roots if empty)
//   - certFile: Path to client certificate for mTLS (optional, must be paired with keyFile)
//   - keyFile: Path to client private key for mTLS (optional, must be paired with certFile)
func (b *Builder) WithTLS(caFile, certFile, keyFile string) *Builder {
	opts := b.tlsOptions()
	opts.CAFile = caFile
	opts.CertFile = certFile
	opts.KeyFile = keyFile
	return b
}

// WithInsecureSkipVerify disables TLS certificate verification (NOT RECOMMENDED for production).
// This should only be used for testing or development purposes.
func (b *Builder) WithInsecureSkipVerify() *Builder {
	b.tlsOptions().InsecureSkipVerify = true
	return b
}

func (b *Builder) tlsOptions() *tlsconfig.Options {
	if b.tls == nil {
		b.tls = &tlsconfig.Options{}
	}
	return b.tls
}

// WithTimeout sets the request timeout for token and API requests.
// Default is 30 seconds if not specified.
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.timeout = timeout
	return b
}

// WithBaseTransport sets a custom base transport.
// This is useful for adding custom middleware or using a custom connection pool.
func (b *Builder) WithBaseTransport(transport http.RoundTripper) *Builder {
	b.baseTransport = transport
	return b
}

// WithoutRedirects disables automatic redirect following for API requests.
// By default, the client follows up to 10 redirects.
func (b *Builder) WithoutRedirects() *Builder {
	b.followRedirects = false
	return b
}

// Build validates the configuration and constructs the client. ctx supplies
// values to token requests; its cancellation does not abort them.
//
// Checks, in order: app secrets (oauth2client.ErrMissingAppSecrets), user
// agent (ErrMissingUserAgent), transport (ErrTransportInit), and strategy or
// credential (oauth2client.ErrMissingAuthFlow). When only a strategy is set,
// the first token request starts before Build returns.
func (b *Builder) Build(ctx context.Context) (*Client, error) {
	if b.secrets == nil {
		return nil, oauth2client.ErrMissingAppSecrets
	}
	if b.userAgent == "" {
		return nil, ErrMissingUserAgent
	}
	if ctx == nil {
		ctx = context.Background()
	}

	transport, err := b.buildTransport()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransportInit, err)
	}

	exchanger := oauth2client.NewExchanger(
		&http.Client{Transport: transport, Timeout: b.timeout},
		oauth2client.TokenURL(b.baseURL),
		b.userAgent,
	)

	opts := []oauth2client.Option{oauth2client.WithContext(ctx)}
	if b.logger != nil {
		opts = append(opts, oauth2client.WithLogger(b.logger))
	}

	auth, err := oauth2client.NewAuthenticator(*b.secrets, exchanger, b.strategy, b.credential, opts...)
	if err != nil {
		return nil, err
	}

	oauthTransport := NewOAuth2Transport(auth, transport)
	oauthTransport.UserAgent = b.userAgent
	if len(b.requiredScopes) > 0 {
		oauthTransport.Policy = authz.NewEvaluator(authz.ScopePolicy{
			RequiredScopes: b.requiredScopes,
			MatchMode:      authz.ScopeMatchModeAll,
		})
	}

	httpClient := &http.Client{
		Transport: oauthTransport,
		Timeout:   b.timeout,
	}
	if !b.followRedirects {
		httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return &Client{
		auth:       auth,
		httpClient: httpClient,
		userAgent:  b.userAgent,
	}, nil
}

// buildTransport returns the base transport for token and API requests.
// A transport passed to WithBaseTransport is used as is unless TLS options
// are set; http.DefaultTransport is cloned so its TLS settings can be changed.
func (b *Builder) buildTransport() (http.RoundTripper, error) {
	base := b.baseTransport
	if base == nil {
		base = http.DefaultTransport
	}

	httpTransport, ok := base.(*http.Transport)
	if !ok {
		if b.tls != nil {
			return nil, errTLSNeedsTransport
		}
		return base, nil
	}

	switch {
	case b.tls != nil:
		tlsConfig, err := b.tls.Config()
		if err != nil {
			return nil, err
		}
		httpTransport = httpTransport.Clone()
		httpTransport.TLSClientConfig = tlsConfig
	case b.baseTransport == nil:
		httpTransport = httpTransport.Clone()
		httpTransport.TLSClientConfig = tlsconfig.Default()
	}

	return httpTransport, nil
}

// UserAgent formats a User-Agent in the "<platform>:<app id>:<version> (/u/<username>)"
// convention expected by the API.
func UserAgent(appID, appVersion, username string) string {
	return fmt.Sprintf("go-bearer:%s:%s (/u/%s)", appID, appVersion, username)
}

// NewHTTPClient is a convenience function that creates a simple HTTP client
// authenticated by auth. For more configuration options, use Builder instead.
//
// Example:
//
//	client := httpclient.NewHTTPClient(auth)
//	resp, err := client.Get("https://oauth.reddit.com/api/v1/me")
func NewHTTPClient(auth *oauth2client.Authenticator) *http.Client {
	transport := NewOAuth2Transport(auth, nil)
	return &http.Client{
		Transport: transport,
		Timeout:   30 * time.Second,
	}
}
