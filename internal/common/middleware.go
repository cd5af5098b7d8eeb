package common

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// AuthInterceptor checks the bearer token of unary calls and injects the AuthContext.
func AuthInterceptor(signer *TokenSigner) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		ctx, err := authenticate(ctx, signer)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// AuthStreamInterceptor is the streaming counterpart of AuthInterceptor.
func AuthStreamInterceptor(signer *TokenSigner) grpc.StreamServerInterceptor {
	return func(srv interface{}, stream grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, err := authenticate(stream.Context(), signer)
		if err != nil {
			return err
		}
		return handler(srv, &authedStream{ServerStream: stream, ctx: ctx})
	}
}

type authedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authedStream) Context() context.Context { return s.ctx }

func authenticate(ctx context.Context, signer *TokenSigner) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing metadata")
	}
	vals := md["authorization"]
	if len(vals) == 0 {
		return nil, status.Error(codes.Unauthenticated, "authorization required")
	}

	// vals[0] = Bearer <token>
	parts := strings.Fields(vals[0])
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, status.Error(codes.Unauthenticated, "invalid auth header")
	}

	auth, err := signer.ParseAuthToken(parts[1])
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
	}
	return WithAuth(ctx, auth), nil
}

// BearerCredentials attaches a token to every outgoing RPC.
type BearerCredentials struct {
	Token    string
	Insecure bool
}

func (c BearerCredentials) GetRequestMetadata(ctx context.Context, uri ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + c.Token}, nil
}

func (c BearerCredentials) RequireTransportSecurity() bool {
	return !c.Insecure
}
