package http

import (
	"net/http"

	"github.com/MKhiriev/envelope-sync/internal/logger"
)

func (h *Handler) getServerVersion(w http.ResponseWriter, r *http.Request) {
	serverVersion := h.services.AppInfo.GetAppVersion(r.Context())

	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte(serverVersion))
}

// ping reports whether the document backend is reachable.
func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.services.Documents.Ping(r.Context()); err != nil {
		logger.FromRequest(r).Err(err).Str("func", "*Handler.ping").Msg("document backend unreachable")
		http.Error(w, "document backend unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("pong"))
}
