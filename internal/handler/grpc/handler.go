package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/internal/service"
)

// DefaultProbeInterval is how often the document store is pinged to refresh
// the serving status.
const DefaultProbeInterval = 15 * time.Second

// Handler is the root gRPC transport handler.
//
// It exposes the standard grpc.health.v1 service. The serving status of the
// overall server ("") follows the document store: it is SERVING while
// [service.DocumentService.Ping] succeeds and NOT_SERVING otherwise. Clients
// use it as a cheap reachability probe before talking to the HTTP API.
type Handler struct {
	services *service.ServerServices
	health   *health.Server
	logger   *logger.Logger
}

// NewHandler constructs a [Handler]. The status starts as NOT_SERVING until
// the first check runs.
func NewHandler(services *service.ServerServices, logger *logger.Logger) *Handler {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	logger.Debug().Msg("gRPC handler created")
	return &Handler{
		services: services,
		health:   hs,
		logger:   logger,
	}
}

// Register attaches the health service to srv.
func (h *Handler) Register(srv *grpc.Server) {
	healthpb.RegisterHealthServer(srv, h.health)
}

// Check pings the document store once and publishes the result.
func (h *Handler) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if err := h.services.Documents.Ping(ctx); err != nil {
		h.logger.Warn().Err(err).Str("func", "*Handler.Check").Msg("document store is not reachable")
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	h.health.SetServingStatus("", status)
	return status
}

// Watch re-runs Check every interval until ctx is done.
func (h *Handler) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}

	h.Check(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}

// Shutdown flips every service to NOT_SERVING so clients stop routing to a
// server that is going away.
func (h *Handler) Shutdown() {
	h.health.Shutdown()
}
