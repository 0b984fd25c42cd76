package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/MKhiriev/envelope-sync/internal/logger"
)

const shutdownTimeout = 10 * time.Second

type httpServer struct {
	name     string
	server   *http.Server
	listener net.Listener
	logger   *logger.Logger
}

// newHTTPServer binds addr right away so a busy port is reported before the
// server is considered started.
func newHTTPServer(name string, handler http.Handler, addr string, timeout time.Duration, logger *logger.Logger) (*httpServer, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%s server listen on %s: %w", name, addr, err)
	}

	return &httpServer{
		name: name,
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       timeout,
			WriteTimeout:      timeout,
		},
		listener: lis,
		logger:   logger,
	}, nil
}

// Addr is the bound address, useful when addr asked for port 0.
func (h *httpServer) Addr() string {
	return h.listener.Addr().String()
}

func (h *httpServer) RunServer() error {
	h.logger.Info().Str("addr", h.Addr()).Msgf("Launching %s server", h.name)
	if err := h.server.Serve(h.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server Serve: %w", h.name, err)
	}
	return nil
}

func (h *httpServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := h.server.Shutdown(ctx); err != nil {
		h.logger.Err(err).Msgf("%s server Shutdown", h.name)
	}
	// covers a server that never reached Serve
	_ = h.listener.Close()
}
