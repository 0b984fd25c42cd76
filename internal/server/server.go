package server

import (
	"context"

	"github.com/MKhiriev/envelope-sync/internal/config"
	"github.com/MKhiriev/envelope-sync/internal/handler"
	"github.com/MKhiriev/envelope-sync/internal/logger"
)

type server struct {
	httpServer *httpServer
	gRPCServer *grpcServer
	logger     *logger.Logger
}

// NewServer binds the listeners of every configured transport of the
// document server.
func NewServer(handlers *handler.Handlers, cfg config.ServerListen, logger *logger.Logger) (Server, error) {
	logger.Info().Msg("creating new server...")
	servers := &server{logger: logger}

	if cfg.HTTPAddress != "" && handlers.HTTP != nil {
		srv, err := newHTTPServer("HTTP", handlers.HTTP.Init(), cfg.HTTPAddress, cfg.RequestTimeout, logger)
		if err != nil {
			return nil, err
		}
		servers.httpServer = srv
	}
	if cfg.GRPCAddress != "" && handlers.GRPC != nil {
		srv, err := newGRPCServer(handlers.GRPC, cfg.GRPCAddress, logger)
		if err != nil {
			servers.shutdown()
			return nil, err
		}
		servers.gRPCServer = srv
	}

	if servers.httpServer == nil && servers.gRPCServer == nil {
		return nil, errNoServersAreCreated
	}

	return servers, nil
}

func (s *server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	running := 0

	// launch all created servers
	if s.httpServer != nil {
		running++
		go func() { errCh <- s.httpServer.RunServer() }()
	}
	if s.gRPCServer != nil {
		running++
		go func() { errCh <- s.gRPCServer.RunServer(ctx) }()
	}

	// a failing listener takes the others down with it
	var firstErr error
	select {
	case <-ctx.Done():
	case firstErr = <-errCh:
		running--
	}

	cancel()
	s.shutdown()
	for ; running > 0; running-- {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}

	s.logger.Info().Msg("server Shutdown gracefully")
	return firstErr
}

func (s *server) shutdown() {
	// finish HTTP server
	if s.httpServer != nil {
		s.httpServer.Shutdown()
	}

	// finish gRPC server
	if s.gRPCServer != nil {
		s.gRPCServer.Shutdown()
	}
}
