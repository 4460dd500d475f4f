package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dukapos/export-worker/internal/audit"
	"github.com/dukapos/export-worker/internal/metrics"
	"github.com/dukapos/export-worker/internal/models"
	"github.com/dukapos/export-worker/internal/repository"
)

// AuditLogsAcknowledgement is the sentinel a caller must supply before the
// audit-log export reads any data.
const AuditLogsAcknowledgement = "EXPORT_AUDIT_LOGS_CONFIRMED"

var (
	ErrJobNotFound             = errors.New("export job not found")
	ErrUnsupportedType         = errors.New("unsupported export type")
	ErrAcknowledgementRequired = errors.New("audit log export requires acknowledgement")
	ErrResultNotReady          = errors.New("export job has no result yet")
)

// JobRepository is the lifecycle store for export jobs.
type JobRepository interface {
	Create(ctx context.Context, job models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Claim(ctx context.Context, id string, now time.Time) (bool, error)
	Complete(ctx context.Context, id string, metadata *models.JobMetadata, now time.Time) error
	Fail(ctx context.Context, id string, lastError string, now time.Time) error
	NextPending(ctx context.Context, maxAttempts int) (*models.ExportJob, error)
	List(ctx context.Context, filter repository.ListFilter) ([]models.ExportJob, error)
	StatusCounts(ctx context.Context) (map[models.ExportStatus]int, error)
	MostRecent(ctx context.Context) (*models.ExportJob, error)
}

// TenantReader provides the read-only views of tenant data the generators
// consume.
type TenantReader interface {
	StockRows(ctx context.Context, businessID string, branchID *string) ([]models.StockRow, error)
	ProductRows(ctx context.Context, businessID string, branchID *string) ([]models.ProductRow, error)
	OpeningStockRows(ctx context.Context, businessID string, branchID *string) ([]models.OpeningStockRow, error)
	PriceUpdateRows(ctx context.Context, businessID string, branchID *string) ([]models.PriceUpdateRow, error)
	SupplierRows(ctx context.Context, businessID string, branchID *string) ([]models.SupplierRow, error)
	BranchRows(ctx context.Context, businessID string, branchID *string) ([]models.BranchRow, error)
	UserRows(ctx context.Context, businessID string, branchID *string) ([]models.UserRow, error)
	CustomerReportRows(ctx context.Context, businessID string, branchID *string) ([]models.CustomerReportRow, error)
	AuditLogRows(ctx context.Context, businessID string, branchID *string) ([]models.AuditLogRow, error)
	Snapshot(ctx context.Context, businessID string) ([]models.CollectionData, []models.Attachment, error)
}

// ObjectStorage is the slice of the storage collaborator the engine consumes.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	PresignDownload(ctx context.Context, key string) (string, error)
}

// ExportRunner owns the job lifecycle: enqueue, claim, execute, finalize.
type ExportRunner struct {
	jobs        JobRepository
	tenants     TenantReader
	store       ObjectStorage
	auditor     audit.Recorder
	httpClient  *http.Client
	maxAttempts int
	log         *logrus.Logger
}

func NewExportRunner(
	jobs JobRepository,
	tenants TenantReader,
	store ObjectStorage,
	auditor audit.Recorder,
	maxAttempts int,
	log *logrus.Logger,
) *ExportRunner {
	return &ExportRunner{
		jobs:        jobs,
		tenants:     tenants,
		store:       store,
		auditor:     auditor,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		maxAttempts: maxAttempts,
		log:         log,
	}
}

// CreateJobRequest carries the job-facing create parameters.
type CreateJobRequest struct {
	BusinessID        string
	Type              models.ExportType
	BranchID          *string
	Acknowledgement   string
	RequestedByUserID string
}

// Enqueue inserts a new PENDING job. Audit-log exports must carry the
// acknowledgement sentinel already at enqueue time, otherwise the worker loop
// could never run them.
func (r *ExportRunner) Enqueue(ctx context.Context, req CreateJobRequest) (*models.ExportJob, error) {
	if !models.ValidExportType(req.Type) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, req.Type)
	}
	if req.Type == models.ExportTypeAuditLogs && req.Acknowledgement != AuditLogsAcknowledgement {
		return nil, ErrAcknowledgementRequired
	}

	now := time.Now().UTC()
	job := models.ExportJob{
		ID:                uuid.NewString(),
		BusinessID:        req.BusinessID,
		BranchID:          req.BranchID,
		Type:              req.Type,
		Status:            models.ExportStatusPending,
		Attempts:          0,
		RequestedByUserID: req.RequestedByUserID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if req.Acknowledgement != "" {
		job.Metadata = &models.JobMetadata{Acknowledgement: req.Acknowledgement}
	}

	if err := r.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to enqueue export job: %w", err)
	}

	metrics.JobsEnqueuedTotal.WithLabelValues(string(job.Type)).Inc()
	r.log.WithFields(logrus.Fields{
		"job_id":      job.ID,
		"business_id": job.BusinessID,
		"type":        job.Type,
	}).Info("export job enqueued")

	return &job, nil
}

// Run executes one job through its lifecycle. Completed jobs and jobs at the
// attempt cap are returned unchanged. Validation problems (unknown type,
// missing acknowledgement) are returned to the caller before any claim side
// effect; generator errors are converted into a FAILED transition and do not
// escape.
func (r *ExportRunner) Run(ctx context.Context, jobID string, acknowledgement string) (*models.ExportJob, error) {
	job, err := r.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load export job: %w", err)
	}
	if job == nil {
		return nil, ErrJobNotFound
	}

	if job.Status == models.ExportStatusCompleted {
		return job, nil
	}
	if job.Attempts >= r.maxAttempts {
		return job, nil
	}

	if !models.ValidExportType(job.Type) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, job.Type)
	}
	ack := resolveAcknowledgement(job, acknowledgement)
	if job.Type == models.ExportTypeAuditLogs && ack != AuditLogsAcknowledgement {
		return nil, ErrAcknowledgementRequired
	}

	claimed, err := r.jobs.Claim(ctx, job.ID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to claim export job: %w", err)
	}
	if !claimed {
		// Another worker got there first; report the current state as-is.
		return r.reload(ctx, job.ID)
	}

	job, err = r.reload(ctx, job.ID)
	if err != nil {
		return nil, err
	}

	r.log.WithFields(logrus.Fields{
		"job_id":   job.ID,
		"type":     job.Type,
		"attempts": job.Attempts,
	}).Info("export job claimed")

	started := time.Now()
	metadata, genErr := r.generate(ctx, job, ack)
	metrics.JobDurationSeconds.WithLabelValues(string(job.Type)).Observe(time.Since(started).Seconds())

	now := time.Now().UTC()
	if genErr != nil {
		if err := r.jobs.Fail(ctx, job.ID, genErr.Error(), now); err != nil {
			return nil, fmt.Errorf("failed to record export failure: %w", err)
		}
		r.auditor.LogEvent(ctx, "export.failed", "export_job", job.ID, "FAILURE", map[string]any{
			"businessId": job.BusinessID,
			"type":       string(job.Type),
			"attempts":   job.Attempts,
			"error":      genErr.Error(),
		})
		metrics.JobsCompletedTotal.WithLabelValues(string(job.Type), strconv.FormatBool(false)).Inc()
		r.log.WithError(genErr).WithField("job_id", job.ID).Error("export job failed")
		return r.reload(ctx, job.ID)
	}

	if err := r.jobs.Complete(ctx, job.ID, metadata, now); err != nil {
		return nil, fmt.Errorf("failed to record export result: %w", err)
	}
	r.auditor.LogEvent(ctx, "export.completed", "export_job", job.ID, "SUCCESS", map[string]any{
		"businessId": job.BusinessID,
		"type":       string(job.Type),
		"attempts":   job.Attempts,
	})
	metrics.JobsCompletedTotal.WithLabelValues(string(job.Type), strconv.FormatBool(true)).Inc()
	r.log.WithField("job_id", job.ID).Info("export job completed")

	return r.reload(ctx, job.ID)
}

// RunNext claims and runs the oldest eligible pending job. It returns nil when
// the queue is empty.
func (r *ExportRunner) RunNext(ctx context.Context) (*models.ExportJob, error) {
	job, err := r.jobs.NextPending(ctx, r.maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("failed to poll for pending jobs: %w", err)
	}
	if job == nil {
		return nil, nil
	}
	return r.Run(ctx, job.ID, "")
}

// ListJobs returns jobs matching the filter.
func (r *ExportRunner) ListJobs(ctx context.Context, filter repository.ListFilter) ([]models.ExportJob, error) {
	return r.jobs.List(ctx, filter)
}

// GetJob returns one job or ErrJobNotFound.
func (r *ExportRunner) GetJob(ctx context.Context, jobID string) (*models.ExportJob, error) {
	job, err := r.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// Result returns the stored result metadata of a completed job.
func (r *ExportRunner) Result(ctx context.Context, jobID string) (*models.JobMetadata, error) {
	job, err := r.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.ExportStatusCompleted {
		return nil, ErrResultNotReady
	}
	return job.Metadata, nil
}

// WorkerStatus is the queue probe.
type WorkerStatus struct {
	Pending    int               `json:"pending"`
	Running    int               `json:"running"`
	Failed     int               `json:"failed"`
	Completed  int               `json:"completed"`
	MostRecent *models.ExportJob `json:"mostRecent,omitempty"`
}

// Status reports queue depth per status and the most recent job. Queue-depth
// gauges are refreshed as a side effect.
func (r *ExportRunner) Status(ctx context.Context) (*WorkerStatus, error) {
	counts, err := r.jobs.StatusCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count export jobs: %w", err)
	}
	recent, err := r.jobs.MostRecent(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load most recent job: %w", err)
	}

	for status, count := range counts {
		metrics.QueueDepth.WithLabelValues(string(status)).Set(float64(count))
	}

	return &WorkerStatus{
		Pending:    counts[models.ExportStatusPending],
		Running:    counts[models.ExportStatusRunning],
		Failed:     counts[models.ExportStatusFailed],
		Completed:  counts[models.ExportStatusCompleted],
		MostRecent: recent,
	}, nil
}

func (r *ExportRunner) reload(ctx context.Context, jobID string) (*models.ExportJob, error) {
	job, err := r.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload export job: %w", err)
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// resolveAcknowledgement prefers the value supplied on the run call, falling
// back to the one captured at enqueue time.
func resolveAcknowledgement(job *models.ExportJob, fromCall string) string {
	if fromCall != "" {
		return fromCall
	}
	if job.Metadata != nil {
		return job.Metadata.Acknowledgement
	}
	return ""
}
