package httpclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/AmmannChristian/go-bearer/oauth2client"
)

// Client is an authenticated API client produced by Builder.
// It is safe for concurrent use.
type Client struct {
	auth       *oauth2client.Authenticator
	httpClient *http.Client
	userAgent  string
}

// Authenticator returns the credential manager shared by all requests.
func (c *Client) Authenticator() *oauth2client.Authenticator {
	return c.auth
}

// HTTPClient returns an http.Client whose requests carry the bearer
// credential and the configured User-Agent.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// UserAgent returns the configured User-Agent.
func (c *Client) UserAgent() string {
	return c.userAgent
}

// BearerToken returns a handle to a usable credential, renewing it first when
// renew is set or the cached one has expired.
func (c *Client) BearerToken(renew bool) *oauth2client.Acquisition {
	return c.auth.Obtain(renew)
}

// Do sends req with the client's credential.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

// Get issues an authenticated GET to url.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: build request: %w", err)
	}
	return c.Do(req)
}
