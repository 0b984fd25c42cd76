package server

import (
	"context"
	"sync"

	myHTTP "github.com/MKhiriev/envelope-sync/internal/handler/http"
	"github.com/MKhiriev/envelope-sync/internal/logger"
)

// DebugServer runs the loopback debug API of the sync client. It is a
// worker: Start binds and serves in the background, Stop shuts it down.
type DebugServer struct {
	handler *myHTTP.DebugHandler
	addr    string
	logger  *logger.Logger

	mu     sync.Mutex
	server *httpServer
	done   chan struct{}
}

func NewDebugServer(handler *myHTTP.DebugHandler, addr string, logger *logger.Logger) *DebugServer {
	return &DebugServer{handler: handler, addr: addr, logger: logger}
}

func (d *DebugServer) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.server != nil {
		return errDebugServerStarted
	}

	srv, err := newHTTPServer("debug", d.handler.Init(), d.addr, 0, d.logger)
	if err != nil {
		return err
	}
	d.server = srv
	d.done = make(chan struct{})

	go func() {
		defer close(d.done)
		if err := srv.RunServer(); err != nil {
			d.logger.Err(err).Msg("debug server stopped")
		}
	}()
	return nil
}

// Addr is the bound address, or "" before Start.
func (d *DebugServer) Addr() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.server == nil {
		return ""
	}
	return d.server.Addr()
}

func (d *DebugServer) Stop() {
	d.mu.Lock()
	srv, done := d.server, d.done
	d.server = nil
	d.mu.Unlock()

	if srv == nil {
		return
	}
	srv.Shutdown()
	<-done
}
