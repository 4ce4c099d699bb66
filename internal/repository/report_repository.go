package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hallpass/school-portal-api/internal/models"
)

// ReportRepository tracks asynchronous report export jobs.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new report repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create records a pending report job.
func (r *ReportRepository) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.CreatedAt = time.Now().UTC()
	job.Status = models.ReportStatusPending
	const query = `INSERT INTO report_jobs (id, subject_id, format, status, file_path, requested_by, created_at)
        VALUES (:id, :subject_id, :format, :status, :file_path, :requested_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create report job: %w", err)
	}
	return nil
}

// FindByID returns a single report job.
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*models.ReportJob, error) {
	var job models.ReportJob
	const query = `SELECT id, subject_id, format, status, file_path, requested_by, error, created_at, completed_at
        FROM report_jobs WHERE id = $1`
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// MarkRunning transitions a job to RUNNING.
func (r *ReportRepository) MarkRunning(ctx context.Context, id string) error {
	const query = `UPDATE report_jobs SET status = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, models.ReportStatusRunning, id); err != nil {
		return fmt.Errorf("mark report running: %w", err)
	}
	return nil
}

// MarkCompleted records the generated artifact.
func (r *ReportRepository) MarkCompleted(ctx context.Context, id, filePath string) error {
	const query = `UPDATE report_jobs SET status = $1, file_path = $2, completed_at = $3 WHERE id = $4`
	if _, err := r.db.ExecContext(ctx, query, models.ReportStatusCompleted, filePath, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("mark report completed: %w", err)
	}
	return nil
}

// MarkFailed records the failure reason.
func (r *ReportRepository) MarkFailed(ctx context.Context, id, reason string) error {
	const query = `UPDATE report_jobs SET status = $1, error = $2, completed_at = $3 WHERE id = $4`
	if _, err := r.db.ExecContext(ctx, query, models.ReportStatusFailed, reason, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("mark report failed: %w", err)
	}
	return nil
}
