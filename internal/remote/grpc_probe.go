package remote

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// GRPCHealthProbe checks the document server through the standard gRPC
// health service.
type GRPCHealthProbe struct {
	conn   *grpc.ClientConn
	client healthpb.HealthClient
}

// NewGRPCHealthProbe creates a lazily connecting probe for address.
func NewGRPCHealthProbe(address string) (*GRPCHealthProbe, error) {
	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc health probe: %w", err)
	}

	return &GRPCHealthProbe{conn: conn, client: healthpb.NewHealthClient(conn)}, nil
}

// Ping fails unless the server reports SERVING.
func (g *GRPCHealthProbe) Ping(ctx context.Context) error {
	resp, err := g.client.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return fmt.Errorf("grpc health check: connection failed: %w", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: grpc health status %s", ErrUnavailable, resp.GetStatus())
	}
	return nil
}

func (g *GRPCHealthProbe) Close() error {
	return g.conn.Close()
}
