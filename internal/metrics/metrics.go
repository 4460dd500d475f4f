package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsEnqueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "export_jobs_enqueued_total",
			Help: "Total number of export jobs enqueued",
		},
		[]string{"type"},
	)

	JobsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "export_jobs_completed_total",
			Help: "Total number of export job runs that reached a terminal transition",
		},
		[]string{"type", "success"}, // success: "true" or "false"
	)

	AttachmentDownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "export_attachment_downloads_total",
			Help: "Attachment download outcomes while building bundles",
		},
		[]string{"status"}, // ok, failed
	)

	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "export_queue_depth",
			Help: "Current number of export jobs per status",
		},
		[]string{"status"},
	)

	JobDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "export_job_duration_seconds",
			Help:    "Export job execution duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~102s
		},
		[]string{"type"},
	)
)
