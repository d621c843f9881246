package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/username/fraudstream/backend/src/services"
	"github.com/username/fraudstream/backend/src/utils"
)

const exportHistoryLimit = 100

// ExportHandler drives the batch CSV export and its run history.
type ExportHandler struct {
	svc *services.ExportService
}

func NewExportHandler(svc *services.ExportService) *ExportHandler {
	return &ExportHandler{svc: svc}
}

func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	var req services.ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("invalid export request: %v", err), http.StatusBadRequest)
		return
	}

	run, err := h.svc.Export(req)
	if err != nil {
		if errors.Is(err, services.ErrExportTooLarge) || errors.Is(err, services.ErrInvalidFilename) {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		utils.SendJSONError(w, fmt.Sprintf("export failed: %v", err), http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, run, http.StatusCreated)
}

func (h *ExportHandler) HandleGetExport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	run, err := h.svc.GetRun(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.SendJSONError(w, "export not found", http.StatusNotFound)
			return
		}
		utils.SendJSONError(w, fmt.Sprintf("error loading export %s: %v", id, err), http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, run, http.StatusOK)
}

func (h *ExportHandler) HandleListExports(w http.ResponseWriter, r *http.Request) {
	runs, err := h.svc.ListRuns(exportHistoryLimit)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("error listing exports: %v", err), http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, map[string]any{
		"exports": runs,
		"count":   len(runs),
	}, http.StatusOK)
}
