package grpcclient

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AmmannChristian/go-bearer/internal/tlsconfig"
	"github.com/AmmannChristian/go-bearer/oauth2client"
)

// Construction errors returned by Builder.Build.
var (
	ErrMissingAddress = errors.New("grpcclient: server address is required")
	ErrTLSConfig      = errors.New("grpcclient: TLS config failed")
)

// Builder constructs a gRPC client connection whose RPCs carry bearer
// credentials from a shared oauth2client.Authenticator.
type Builder struct {
	address string
	auth    *oauth2client.Authenticator

	// nil means TLS 1.2+ against the system roots
	tls       *tlsconfig.Options
	plaintext bool

	dialOpts []grpc.DialOption
}

// NewBuilder creates a new gRPC client builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithAddress sets the server address (e.g., "server.example.com:9090").
func (b *Builder) WithAddress(address string) *Builder {
	b.address = address
	return b
}

// WithAuthenticator attaches "authorization: Bearer" metadata to every RPC.
// Each call obtains the credential through auth, so an expired credential is
// renewed before the RPC is sent and a forced renewal on auth is picked up by
// the next call. The Authenticator can be shared with HTTP clients.
func (b *Builder) WithAuthenticator(auth *oauth2client.Authenticator) *Builder {
	b.auth = auth
	return b
}

// WithTLS sets a custom root CA, an optional client certificate pair for mTLS
// and an optional server name override. Empty arguments keep the defaults.
func (b *Builder) WithTLS(caFile, certFile, keyFile, serverName string) *Builder {
	b.tls = &tlsconfig.Options{
		CAFile:     caFile,
		CertFile:   certFile,
		KeyFile:    keyFile,
		ServerName: serverName,
	}
	b.plaintext = false
	return b
}

// WithoutTLS dials without transport security. Bearer tokens then travel in
// clear text; use it only for in-process or loopback servers.
func (b *Builder) WithoutTLS() *Builder {
	b.tls = nil
	b.plaintext = true
	return b
}

// WithDialOptions adds custom gRPC dial options, applied after the
// authentication and transport options.
func (b *Builder) WithDialOptions(opts ...grpc.DialOption) *Builder {
	b.dialOpts = append(b.dialOpts, opts...)
	return b
}

// Build constructs the connection. grpc.NewClient connects lazily, so ctx is
// only checked for cancellation.
func (b *Builder) Build(ctx context.Context) (*grpc.ClientConn, error) {
	if b.address == "" {
		return nil, ErrMissingAddress
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("grpcclient: %w", err)
		}
	}

	transportCreds, err := b.transportCredentials()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTLSConfig, err)
	}

	opts := []grpc.DialOption{grpc.WithTransportCredentials(transportCreds)}
	if b.auth != nil {
		opts = append(opts,
			grpc.WithUnaryInterceptor(b.auth.UnaryClientInterceptor()),
			grpc.WithStreamInterceptor(b.auth.StreamClientInterceptor()),
		)
	}
	opts = append(opts, b.dialOpts...)

	conn, err := grpc.NewClient(b.address, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpcclient: dial failed: %w", err)
	}

	return conn, nil
}

func (b *Builder) transportCredentials() (credentials.TransportCredentials, error) {
	switch {
	case b.plaintext:
		return insecure.NewCredentials(), nil
	case b.tls != nil:
		cfg, err := b.tls.Config()
		if err != nil {
			return nil, err
		}
		return credentials.NewTLS(cfg), nil
	default:
		return credentials.NewTLS(tlsconfig.Default()), nil
	}
}
