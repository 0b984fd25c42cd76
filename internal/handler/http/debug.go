package http

import (
	"net/http"

	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/internal/utils"
	"github.com/MKhiriev/envelope-sync/models"
)

func (h *DebugHandler) health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, h.services.Health.Status(), http.StatusOK)
}

func (h *DebugHandler) status(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, h.services.Diagnostics.QuickStatus(r.Context()), http.StatusOK)
}

func (h *DebugHandler) history(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, h.services.Health.History(), http.StatusOK)
}

func (h *DebugHandler) backups(w http.ResponseWriter, r *http.Request) {
	infos, err := h.services.Backups.List(r.Context())
	if err != nil {
		logger.FromRequest(r).Err(err).Str("func", "*DebugHandler.backups").Msg("error listing backups")
		utils.WriteError(w, err, http.StatusInternalServerError)
		return
	}
	if infos == nil {
		infos = []models.BackupInfo{}
	}
	utils.WriteJSON(w, infos, http.StatusOK)
}

func (h *DebugHandler) validate(w http.ResponseWriter, r *http.Request) {
	report, err := h.services.Diagnostics.RunValidation(r.Context())
	if err != nil {
		logger.FromRequest(r).Err(err).Str("func", "*DebugHandler.validate").Msg("validation could not run")
		utils.WriteError(w, err, http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, report, http.StatusOK)
}

func (h *DebugHandler) reset(w http.ResponseWriter, r *http.Request) {
	res := h.services.Diagnostics.ForceReset(r.Context())
	utils.WriteJSON(w, res, resetStatus(res))
}

func (h *DebugHandler) clearRemote(w http.ResponseWriter, r *http.Request) {
	res := h.services.Diagnostics.ClearRemote(r.Context())
	utils.WriteJSON(w, res, resetStatus(res))
}

// forceSync answers 200 on success, 409 while another cycle runs and 502 when
// the cycle failed. The body is the SyncResult in every case.
func (h *DebugHandler) forceSync(w http.ResponseWriter, r *http.Request) {
	res := h.services.Orchestrator.ForceSync(r.Context())

	status := http.StatusOK
	switch {
	case res.Reason == models.ReasonSyncInProgress:
		status = http.StatusConflict
	case !res.Success:
		status = http.StatusBadGateway
	}
	utils.WriteJSON(w, res, status)
}

func resetStatus(res models.ResetResult) int {
	switch {
	case res.Success:
		return http.StatusOK
	case res.SafetyAbort:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}
