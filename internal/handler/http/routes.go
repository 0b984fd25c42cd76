package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxDocumentSize bounds PUT bodies. Chunks are far smaller.
var maxDocumentSize int64 = 8 << 20

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID, h.withLogging)

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Get("/api/ping", h.ping)
		r.Get("/api/version", h.getServerVersion)
	})

	router.Route("/api/budgets/{budgetID}/documents", func(r chi.Router) {
		r.Use(h.auth)

		r.With(withGZip).Get("/", h.listDocuments)
		r.Get("/*", h.getDocument)
		r.Put("/*", h.putDocument)
		r.Delete("/*", h.deleteDocument)
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}

// Init builds the debug router. It has no authentication and is meant to
// listen on loopback only.
func (h *DebugHandler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID, h.withLogging)

	router.Group(func(r chi.Router) {
		r.Use(withGZip)

		r.Get("/debug/health", h.health)
		r.Get("/debug/status", h.status)
		r.Get("/debug/history", h.history)
		r.Get("/debug/backups", h.backups)
		r.Get("/debug/validate", h.validate)
		r.Post("/debug/reset", h.reset)
		r.Post("/debug/clear-remote", h.clearRemote)
		r.Post("/sync", h.forceSync)
	})

	// promhttp negotiates its own compression
	router.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	return router
}
