package handler

import (
	"github.com/MKhiriev/envelope-sync/internal/config"
	"github.com/MKhiriev/envelope-sync/internal/handler/grpc"
	"github.com/MKhiriev/envelope-sync/internal/handler/http"
	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/internal/service"
)

// Handlers groups the transports of the document server.
type Handlers struct {
	HTTP *http.Handler
	GRPC *grpc.Handler
}

func NewHandlers(services *service.ServerServices, cfg config.ServerListen, logger *logger.Logger) (*Handlers, error) {
	logger.Info().Msg("creating new handlers...")

	handlers := &Handlers{}

	if cfg.HTTPAddress != "" {
		handlers.HTTP = http.NewHandler(services, logger)
	}
	if cfg.GRPCAddress != "" {
		handlers.GRPC = grpc.NewHandler(services, logger)
	}

	if handlers.HTTP == nil && handlers.GRPC == nil {
		return nil, errNoHandlersAreCreated
	}

	return handlers, nil
}
