package oauth2client

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// UnaryClientInterceptor returns a gRPC unary client interceptor that adds
// "authorization: Bearer <token>" to the outgoing metadata.
//
// The credential is obtained with the RPC context, so the wait respects its
// cancellation and deadline. If no usable token is available the RPC is
// aborted with an error.
//
// Usage:
//
//	conn, err := grpc.NewClient(
//	    "server:9090",
//	    grpc.WithUnaryInterceptor(authenticator.UnaryClientInterceptor()),
//	)
func (a *Authenticator) UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		token, err := a.AccessToken(ctx)
		if err != nil {
			return fmt.Errorf("oauth2client: failed to get token: %w", err)
		}

		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)

		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// StreamClientInterceptor returns a gRPC stream client interceptor that adds
// "authorization: Bearer <token>" to the outgoing metadata.
func (a *Authenticator) StreamClientInterceptor() grpc.StreamClientInterceptor {
	return func(
		ctx context.Context,
		desc *grpc.StreamDesc,
		cc *grpc.ClientConn,
		method string,
		streamer grpc.Streamer,
		opts ...grpc.CallOption,
	) (grpc.ClientStream, error) {
		token, err := a.AccessToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("oauth2client: failed to get token: %w", err)
		}

		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)

		return streamer(ctx, desc, cc, method, opts...)
	}
}

// TokenSource adapts the Authenticator to golang.org/x/oauth2, so it can
// back oauth2.NewClient or an oauth2.Transport. Each Token call goes through
// Obtain(false) and waits with ctx.
func (a *Authenticator) TokenSource(ctx context.Context) oauth2.TokenSource {
	if ctx == nil {
		ctx = context.Background()
	}
	return &tokenSource{ctx: ctx, auth: a}
}

type tokenSource struct {
	ctx  context.Context
	auth *Authenticator
}

func (s *tokenSource) Token() (*oauth2.Token, error) {
	cred, err := s.auth.Credential(s.ctx, false)
	if err != nil {
		return nil, err
	}
	if cred.IsExpired() {
		return nil, ErrExpired
	}
	return cred.Token(), nil
}
