package httpapi

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(r chi.Router, app *App) {
	r.Get("/healthz", healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/exports", app.createExportHandler)
	r.Get("/exports", app.listExportsHandler)
	r.Get("/exports/{job_id}", app.getExportHandler)
	r.Post("/exports/{job_id}/run", app.runExportHandler)
	r.Get("/exports/{job_id}/result", app.exportResultHandler)

	r.Get("/worker/status", app.workerStatusHandler)
}
