package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dukapos/export-worker/internal/models"
	"github.com/dukapos/export-worker/internal/repository"
	"github.com/dukapos/export-worker/internal/service"
)

type CreateExportRequest struct {
	BusinessID        string  `json:"businessId"`
	Type              string  `json:"type"`
	BranchID          *string `json:"branchId,omitempty"`
	Acknowledgement   string  `json:"acknowledgement,omitempty"`
	RequestedByUserID string  `json:"requestedByUserId"`
}

type RunExportRequest struct {
	Acknowledgement string `json:"acknowledgement,omitempty"`
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrJobNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrUnsupportedType),
		errors.Is(err, service.ErrAcknowledgementRequired):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrResultNotReady):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		a.Log.WithError(err).Error("export request failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func (a *App) createExportHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.BusinessID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "businessId required"})
		return
	}

	job, err := a.Exports.Enqueue(r.Context(), service.CreateJobRequest{
		BusinessID:        req.BusinessID,
		Type:              models.ExportType(req.Type),
		BranchID:          req.BranchID,
		Acknowledgement:   req.Acknowledgement,
		RequestedByUserID: req.RequestedByUserID,
	})
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

func (a *App) runExportHandler(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")

	var req RunExportRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
			return
		}
	}

	job, err := a.Exports.Run(r.Context(), jobID, req.Acknowledgement)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (a *App) listExportsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.ListFilter{
		BusinessID: q.Get("businessId"),
		Status:     models.ExportStatus(q.Get("status")),
		Type:       models.ExportType(q.Get("type")),
		BranchID:   q.Get("branchId"),
	}
	if from := q.Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid from timestamp"})
			return
		}
		filter.From = &t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid to timestamp"})
			return
		}
		filter.To = &t
	}

	jobs, err := a.Exports.ListJobs(r.Context(), filter)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	if jobs == nil {
		jobs = []models.ExportJob{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": jobs})
}

func (a *App) getExportHandler(w http.ResponseWriter, r *http.Request) {
	job, err := a.Exports.GetJob(r.Context(), chi.URLParam(r, "job_id"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (a *App) exportResultHandler(w http.ResponseWriter, r *http.Request) {
	result, err := a.Exports.Result(r.Context(), chi.URLParam(r, "job_id"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *App) workerStatusHandler(w http.ResponseWriter, r *http.Request) {
	status, err := a.Exports.Status(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
