package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dukapos/export-worker/internal/models"
)

type ExportJobRepository struct {
	db *sql.DB
}

func NewExportJobRepository(db *sql.DB) *ExportJobRepository {
	return &ExportJobRepository{db: db}
}

const exportJobColumns = `id, business_id, branch_id, type, status, attempts,
	requested_by_user_id, started_at, completed_at, last_error, metadata,
	created_at, updated_at`

// Create inserts a new export job.
func (r *ExportJobRepository) Create(ctx context.Context, job models.ExportJob) error {
	query := `
		INSERT INTO export_job (
			id, business_id, branch_id, type, status, attempts,
			requested_by_user_id, metadata, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.BusinessID, job.BranchID, job.Type, job.Status, job.Attempts,
		job.RequestedByUserID, job.Metadata, job.CreatedAt, job.UpdatedAt,
	)
	return err
}

// GetByID returns the job, or nil when no such job exists.
func (r *ExportJobRepository) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	query := `SELECT ` + exportJobColumns + ` FROM export_job WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	job, err := scanExportJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// Claim atomically transitions the job to RUNNING, stamps started_at,
// increments attempts and clears last_error, but only while the job is still
// PENDING or FAILED. Two workers racing on the same job get exactly one true;
// the loser sees zero rows affected.
func (r *ExportJobRepository) Claim(ctx context.Context, id string, now time.Time) (bool, error) {
	query := `
		UPDATE export_job
		SET status = $1, started_at = $2, attempts = attempts + 1,
		    last_error = NULL, updated_at = $2
		WHERE id = $3 AND status IN ($4, $5)
	`
	res, err := r.db.ExecContext(ctx, query,
		models.ExportStatusRunning, now, id,
		models.ExportStatusPending, models.ExportStatusFailed,
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// Complete stores the result metadata and marks the job COMPLETED.
func (r *ExportJobRepository) Complete(ctx context.Context, id string, metadata *models.JobMetadata, now time.Time) error {
	payload, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal result metadata: %w", err)
	}
	query := `
		UPDATE export_job
		SET status = $1, completed_at = $2, metadata = $3, updated_at = $2
		WHERE id = $4
	`
	_, err = r.db.ExecContext(ctx, query, models.ExportStatusCompleted, now, payload, id)
	return err
}

// Fail records the error message and marks the job FAILED.
func (r *ExportJobRepository) Fail(ctx context.Context, id string, lastError string, now time.Time) error {
	query := `
		UPDATE export_job
		SET status = $1, completed_at = $2, last_error = $3, updated_at = $2
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, models.ExportStatusFailed, now, lastError, id)
	return err
}

// NextPending returns the oldest PENDING job still under the attempt cap, or
// nil when the queue is empty.
func (r *ExportJobRepository) NextPending(ctx context.Context, maxAttempts int) (*models.ExportJob, error) {
	query := `
		SELECT ` + exportJobColumns + `
		FROM export_job
		WHERE status = $1 AND attempts < $2
		ORDER BY created_at ASC
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query, models.ExportStatusPending, maxAttempts)

	job, err := scanExportJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// ListFilter narrows a job listing. Zero values mean "no constraint".
type ListFilter struct {
	BusinessID string
	Status     models.ExportStatus
	Type       models.ExportType
	BranchID   string
	From       *time.Time
	To         *time.Time
	Limit      int
}

// List returns jobs matching the filter, newest first.
func (r *ExportJobRepository) List(ctx context.Context, filter ListFilter) ([]models.ExportJob, error) {
	var conditions []string
	var args []any

	add := func(clause string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filter.BusinessID != "" {
		add("business_id = $%d", filter.BusinessID)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.Type != "" {
		add("type = $%d", filter.Type)
	}
	if filter.BranchID != "" {
		add("branch_id = $%d", filter.BranchID)
	}
	if filter.From != nil {
		add("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("created_at <= $%d", *filter.To)
	}

	query := `SELECT ` + exportJobColumns + ` FROM export_job`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT " + strconv.Itoa(limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []models.ExportJob
	for rows.Next() {
		job, err := scanExportJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// StatusCounts returns the number of jobs per status.
func (r *ExportJobRepository) StatusCounts(ctx context.Context) (map[models.ExportStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM export_job GROUP BY status`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.ExportStatus]int)
	for rows.Next() {
		var status models.ExportStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// MostRecent returns the newest job, or nil when none exist.
func (r *ExportJobRepository) MostRecent(ctx context.Context) (*models.ExportJob, error) {
	query := `SELECT ` + exportJobColumns + ` FROM export_job ORDER BY created_at DESC LIMIT 1`
	row := r.db.QueryRowContext(ctx, query)

	job, err := scanExportJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExportJob(row rowScanner) (*models.ExportJob, error) {
	var job models.ExportJob
	var metadata []byte

	err := row.Scan(
		&job.ID, &job.BusinessID, &job.BranchID, &job.Type, &job.Status,
		&job.Attempts, &job.RequestedByUserID, &job.StartedAt, &job.CompletedAt,
		&job.LastError, &metadata, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metadata) > 0 {
		var doc models.JobMetadata
		if err := json.Unmarshal(metadata, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode job metadata: %w", err)
		}
		job.Metadata = &doc
	}
	return &job, nil
}
