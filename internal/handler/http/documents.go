package http

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/internal/utils"
	"github.com/MKhiriev/envelope-sync/models"
)

func (h *Handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)
	budgetID, _ := utils.GetBudgetIDFromContext(ctx)

	paths, err := h.services.Documents.List(ctx, budgetID, r.URL.Query().Get("prefix"))
	if err != nil {
		log.Err(err).Str("func", "*Handler.listDocuments").Msg("error listing documents")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	utils.WriteJSON(w, models.DocumentList{Paths: paths}, http.StatusOK)
}

func (h *Handler) getDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)
	budgetID, _ := utils.GetBudgetIDFromContext(ctx)

	path, err := documentPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, err := h.services.Documents.Get(ctx, budgetID, path)
	if err != nil {
		status := statusFromError(err)
		if status != http.StatusNotFound {
			log.Err(err).Str("func", "*Handler.getDocument").Str("path", path).Msg("error reading document")
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (h *Handler) putDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)
	budgetID, _ := utils.GetBudgetIDFromContext(ctx)

	path, err := documentPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "document too large", http.StatusRequestEntityTooLarge)
			return
		}
		log.Err(err).Str("func", "*Handler.putDocument").Msg("error reading request body")
		http.Error(w, "error reading request body", http.StatusBadRequest)
		return
	}

	if err = h.services.Documents.Put(ctx, budgetID, path, body); err != nil {
		log.Err(err).Str("func", "*Handler.putDocument").Str("path", path).Msg("error writing document")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// deleteDocument answers 204 for missing documents too.
func (h *Handler) deleteDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)
	budgetID, _ := utils.GetBudgetIDFromContext(ctx)

	path, err := documentPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err = h.services.Documents.Delete(ctx, budgetID, path); err != nil {
		log.Err(err).Str("func", "*Handler.deleteDocument").Str("path", path).Msg("error deleting document")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func documentPath(r *http.Request) (string, error) {
	return url.PathUnescape(chi.URLParam(r, "*"))
}
