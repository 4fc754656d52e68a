package oauth2client

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Logger is an interface for optional logging in Authenticator.
// Implementations can log renewal events if desired. Secrets are never logged.
type Logger interface {
	Printf(format string, args ...any)
}

// TokenExchanger performs a single token request. *Exchanger is the
// production implementation.
type TokenExchanger interface {
	Exchange(ctx context.Context, secrets AppSecrets, strategy AuthStrategy) (*Credential, error)
}

// Authenticator caches the current Credential and renews it on demand.
//
// It owns the app secrets, an optional stored AuthStrategy and the current
// Acquisition. The strategy slot and the Acquisition are guarded by a single
// mutex, held only while the renewal decision is made; token requests run
// outside the lock. It is safe for concurrent use.
type Authenticator struct {
	secrets   AppSecrets
	exchanger TokenExchanger
	ctx       context.Context // base context for token requests, never cancelled by callers
	logger    Logger          // optional logger

	mu    sync.Mutex
	state renewalState
}

// renewalState is everything the renewal policy reads and writes.
type renewalState struct {
	strategy AuthStrategy // nil once a single-use strategy has been consumed
	handle   *Acquisition // always set after construction
}

// Option is a functional option for configuring Authenticator.
type Option func(*Authenticator)

// WithLogger sets a custom logger for renewal events.
// If not set, no logging will occur.
func WithLogger(logger Logger) Option {
	return func(a *Authenticator) {
		a.logger = logger
	}
}

// WithLoggingEnabled enables logging using the default Go log package.
func WithLoggingEnabled() Option {
	return func(a *Authenticator) {
		a.logger = log.Default()
	}
}

// WithContext sets the context token requests inherit values from.
// Its cancellation is ignored: a started request always runs to completion.
func WithContext(ctx context.Context) Option {
	return func(a *Authenticator) {
		if ctx != nil {
			a.ctx = context.WithoutCancel(ctx)
		}
	}
}

// NewAuthenticator creates an Authenticator from app secrets and either a
// strategy, a previously obtained credential, or both.
//
// With a credential, the strategy is kept only if it is reusable (password);
// a single-use strategy is dropped because the credential already represents
// its result. With only a strategy, the first token request starts
// immediately and the same reusability rule is applied. Supplying neither
// returns ErrMissingAuthFlow.
//
// If exchanger is nil, an Exchanger for DefaultBaseURL is used.
func NewAuthenticator(secrets AppSecrets, exchanger TokenExchanger, strategy AuthStrategy, cred *Credential, opts ...Option) (*Authenticator, error) {
	if !secrets.valid() {
		return nil, ErrMissingAppSecrets
	}
	if strategy == nil && cred == nil {
		return nil, ErrMissingAuthFlow
	}
	if exchanger == nil {
		exchanger = NewExchanger(nil, TokenURL(DefaultBaseURL), "")
	}

	a := &Authenticator{
		secrets:   secrets,
		exchanger: exchanger,
		ctx:       context.Background(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if cred != nil {
		a.state.handle = resolvedAcquisition(cred)
	} else {
		a.state.handle = a.start(strategy)
	}

	if strategy != nil && !strategy.IsSingleUse() {
		a.state.strategy = strategy
	}

	return a, nil
}

// Obtain returns a handle to a usable credential, renewing it first if the
// policy calls for it. It never blocks on network I/O; wait on the returned
// Acquisition for the result.
//
// Policy, in order of precedence:
//  1. the cached credential is expired and has a refresh token: start a
//     refresh-token request. The stored strategy is left untouched.
//  2. a strategy is stored and either the cached credential is expired or
//     forceRenew is set: start a request with the stored strategy, keeping
//     it afterwards only if it is reusable.
//  3. otherwise return the cached handle unchanged.
//
// A cached failure or a request still in flight never counts as expired;
// only forceRenew replaces them.
func (a *Authenticator) Obtain(forceRenew bool) *Acquisition {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.renew(forceRenew)

	return a.state.handle.Clone()
}

// renew applies the renewal policy. Callers must hold a.mu.
func (a *Authenticator) renew(forceRenew bool) {
	cred, resolved, err := a.state.handle.Peek()
	current := resolved && err == nil && cred != nil
	expired := current && cred.IsExpired()

	switch {
	case expired && cred.IsRenewable():
		refreshToken, _ := cred.RefreshToken()
		a.logf("oauth2client: credential expired, refreshing")
		a.state.handle = a.start(RefreshTokenStrategy{RefreshToken: refreshToken})

	case a.state.strategy != nil && (expired || forceRenew):
		strategy := a.state.strategy
		a.state.strategy = nil
		a.logf("oauth2client: re-authenticating with %s grant (forced: %t)", strategy.GrantType(), forceRenew)
		a.state.handle = a.start(strategy)
		if !strategy.IsSingleUse() {
			a.state.strategy = strategy
		}
	}
}

// start launches a token request for strategy.
func (a *Authenticator) start(strategy AuthStrategy) *Acquisition {
	return startAcquisition(a.ctx, func(ctx context.Context) (*Credential, error) {
		cred, err := a.exchanger.Exchange(ctx, a.secrets, strategy)
		if err != nil {
			a.logf("oauth2client: %s grant failed: %v", strategy.GrantType(), err)
			return nil, err
		}
		a.logf("oauth2client: obtained new access token via %s grant (expires: %s)",
			strategy.GrantType(), cred.ExpiresAt().Format(time.RFC3339))
		return cred, nil
	})
}

// Credential obtains a credential and waits for it.
// The context only bounds the wait; see Acquisition.Wait.
func (a *Authenticator) Credential(ctx context.Context, forceRenew bool) (*Credential, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return a.Obtain(forceRenew).Wait(ctx)
}

// AccessToken returns the access token of a usable credential.
// An expired credential that could not be renewed yields ErrExpired.
func (a *Authenticator) AccessToken(ctx context.Context) (string, error) {
	cred, err := a.Credential(ctx, false)
	if err != nil {
		return "", err
	}
	if cred.IsExpired() {
		return "", ErrExpired
	}
	return cred.AccessToken(), nil
}

// HasStrategy reports whether a strategy is stored for future renewals.
func (a *Authenticator) HasStrategy() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.strategy != nil
}

// AppSecrets returns the secrets used to sign token requests.
func (a *Authenticator) AppSecrets() AppSecrets {
	return a.secrets
}

func (a *Authenticator) logf(format string, args ...any) {
	if a.logger != nil {
		a.logger.Printf(format, args...)
	}
}

// String implements fmt.Stringer without exposing secrets.
func (a *Authenticator) String() string {
	return fmt.Sprintf("Authenticator{client_id: %s}", a.secrets.ClientID())
}
