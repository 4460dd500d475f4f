package httpapi

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/dukapos/export-worker/internal/models"
	"github.com/dukapos/export-worker/internal/repository"
	"github.com/dukapos/export-worker/internal/service"
)

// ExportService is the job-facing surface exposed over HTTP.
type ExportService interface {
	Enqueue(ctx context.Context, req service.CreateJobRequest) (*models.ExportJob, error)
	Run(ctx context.Context, jobID string, acknowledgement string) (*models.ExportJob, error)
	ListJobs(ctx context.Context, filter repository.ListFilter) ([]models.ExportJob, error)
	GetJob(ctx context.Context, jobID string) (*models.ExportJob, error)
	Result(ctx context.Context, jobID string) (*models.JobMetadata, error)
	Status(ctx context.Context) (*service.WorkerStatus, error)
}

type App struct {
	Exports ExportService
	Log     *logrus.Logger
}
