package grpcx

import (
	"context"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type DialOptions struct {
	Timeout time.Duration
	// Credentials defaults to insecure transport; in-cluster traffic is
	// expected to get TLS from the mesh layer.
	Credentials grpc.DialOption
}

// Dial opens a client connection with tracing and request-id propagation
// wired in. The connection blocks until established or the timeout elapses.
func Dial(ctx context.Context, addr string, opts DialOptions, extra ...grpc.DialOption) (*grpc.ClientConn, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	creds := opts.Credentials
	if creds == nil {
		creds = grpc.WithTransportCredentials(insecure.NewCredentials())
	}

	dialOpts := append([]grpc.DialOption{
		creds,
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithChainUnaryInterceptor(UnaryClientRequestIDInterceptor()),
		grpc.WithBlock(),
	}, extra...)

	return grpc.DialContext(ctx, addr, dialOpts...)
}
