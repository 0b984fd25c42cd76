package server

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"

	myGRPC "github.com/MKhiriev/envelope-sync/internal/handler/grpc"
	"github.com/MKhiriev/envelope-sync/internal/logger"
)

type grpcServer struct {
	handler *myGRPC.Handler

	server          *grpc.Server
	gRPCNetListener net.Listener

	logger *logger.Logger
}

func newGRPCServer(handler *myGRPC.Handler, addr string, logger *logger.Logger) (*grpcServer, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("gRPC server listen on %s: %w", addr, err)
	}

	srv := grpc.NewServer()
	handler.Register(srv)

	return &grpcServer{
		handler:         handler,
		server:          srv,
		gRPCNetListener: lis,
		logger:          logger,
	}, nil
}

func (g *grpcServer) Addr() string {
	return g.gRPCNetListener.Addr().String()
}

// RunServer serves until Shutdown. The health status is refreshed in the
// background until ctx is done.
func (g *grpcServer) RunServer(ctx context.Context) error {
	g.logger.Info().Str("addr", g.Addr()).Msg("Launching GRPC server")
	go g.handler.Watch(ctx, myGRPC.DefaultProbeInterval)

	if err := g.server.Serve(g.gRPCNetListener); err != nil {
		return fmt.Errorf("gRPC server Serve: %w", err)
	}
	return nil
}

func (g *grpcServer) Shutdown() {
	g.logger.Info().Msg("GRPC server Shutdown")
	g.handler.Shutdown()
	g.server.GracefulStop()
	_ = g.gRPCNetListener.Close()
}
