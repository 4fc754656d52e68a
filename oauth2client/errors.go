package oauth2client

import (
	"errors"
	"fmt"
	"net/http"
)

// Exchange-time errors. They become the terminal value of an Acquisition and
// are delivered identically to every holder of that Acquisition.
var (
	ErrBadCredentials       = errors.New("oauth2client: bad credentials")
	ErrInvalidRequest       = errors.New("oauth2client: invalid request")
	ErrInvalidResponse      = errors.New("oauth2client: invalid response")
	ErrUnsuccessfulResponse = errors.New("oauth2client: unsuccessful response")
	ErrForbidden            = errors.New("oauth2client: forbidden")
	ErrUnauthorized         = errors.New("oauth2client: unauthorized")
	ErrNetwork              = errors.New("oauth2client: network error")
)

// ErrExpired is returned by consumers that need a usable token when the cached
// credential has expired and nothing is left to renew it with.
var ErrExpired = errors.New("oauth2client: credential expired and cannot be renewed")

// Construction-time errors. No Authenticator exists when one is returned.
var (
	ErrMissingAuthFlow   = errors.New("oauth2client: missing authentication flow")
	ErrMissingAppSecrets = errors.New("oauth2client: missing app secrets")
)

// ResponseError reports a non-2xx answer from the token endpoint.
type ResponseError struct {
	StatusCode int
}

// Error returns a message carrying the status code.
func (e *ResponseError) Error() string {
	return fmt.Sprintf("oauth2client: unsuccessful response: %d", e.StatusCode)
}

// Is enables errors.Is(err, ErrUnsuccessfulResponse) for every status, and
// ErrUnauthorized / ErrForbidden for 401 / 403.
func (e *ResponseError) Is(target error) bool {
	switch target {
	case ErrUnsuccessfulResponse:
		return true
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	}
	return false
}

// StatusCode extracts the token endpoint status code from err, if any.
func StatusCode(err error) (int, bool) {
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode, true
	}
	return 0, false
}
