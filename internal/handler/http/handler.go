package http

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/internal/service"
)

// middlewares carries the logger the shared middleware derives request
// loggers from.
type middlewares struct {
	logger *logger.Logger
}

// Handler serves the document API.
type Handler struct {
	middlewares
	services *service.ServerServices
}

func NewHandler(services *service.ServerServices, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		middlewares: middlewares{logger: logger},
		services:    services,
	}
}

// DebugHandler serves the client debug API. gatherer backs /metrics; nil
// uses the default registry.
type DebugHandler struct {
	middlewares
	services *service.ClientServices
	gatherer prometheus.Gatherer
}

func NewDebugHandler(services *service.ClientServices, gatherer prometheus.Gatherer, logger *logger.Logger) *DebugHandler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	logger.Info().Msg("debug http handler created")
	return &DebugHandler{
		middlewares: middlewares{logger: logger},
		services:    services,
		gatherer:    gatherer,
	}
}
