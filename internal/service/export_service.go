package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hallpass/school-portal-api/internal/models"
	appErrors "github.com/hallpass/school-portal-api/pkg/errors"
	"github.com/hallpass/school-portal-api/pkg/export"
	"github.com/hallpass/school-portal-api/pkg/jobs"
)

type reportRepository interface {
	Create(ctx context.Context, job *models.ReportJob) error
	FindByID(ctx context.Context, id string) (*models.ReportJob, error)
	MarkRunning(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id, filePath string) error
	MarkFailed(ctx context.Context, id, reason string) error
}

type gradebookReader interface {
	Matrix(ctx context.Context, subjectID string) (*models.GradebookMatrix, bool, error)
}

// ExportService generates class report files asynchronously. Requests are
// persisted, handed to the jobs queue, and rendered from the gradebook
// matrix into CSV or PDF under the storage directory.
type ExportService struct {
	repo       reportRepository
	gradebook  gradebookReader
	subjects   subjectRepository
	queue      *jobs.Queue
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	storageDir string
	logger     *zap.Logger
}

// NewExportService constructs an ExportService. Call BindQueue before Start
// so the queue handler can reach back into the service.
func NewExportService(repo reportRepository, gradebook gradebookReader, subjects subjectRepository, storageDir string, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if storageDir == "" {
		storageDir = os.TempDir()
	}
	return &ExportService{
		repo:       repo,
		gradebook:  gradebook,
		subjects:   subjects,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		storageDir: storageDir,
		logger:     logger,
	}
}

// BindQueue attaches the queue the service enqueues onto.
func (s *ExportService) BindQueue(queue *jobs.Queue) {
	s.queue = queue
}

// Request persists a report job and schedules its generation.
func (s *ExportService) Request(ctx context.Context, subjectID, requestedBy string, format models.ReportFormat) (*models.ReportJob, error) {
	if format != models.ReportFormatCSV && format != models.ReportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if _, err := s.subjects.FindByID(ctx, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	job := &models.ReportJob{
		ID:          uuid.NewString(),
		SubjectID:   subjectID,
		Format:      format,
		Status:      models.ReportStatusPending,
		RequestedBy: requestedBy,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store report job")
	}

	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "report queue not running")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "class_report", Payload: job.ID}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report job")
	}
	return job, nil
}

// Status returns the stored job record.
func (s *ExportService) Status(ctx context.Context, id string) (*models.ReportJob, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}
	return job, nil
}

// FilePath returns the rendered file location for a completed job.
func (s *ExportService) FilePath(ctx context.Context, id string) (string, error) {
	job, err := s.Status(ctx, id)
	if err != nil {
		return "", err
	}
	if job.Status != models.ReportStatusCompleted {
		return "", appErrors.Clone(appErrors.ErrConflict, "report is not ready")
	}
	return job.FilePath, nil
}

// HandleJob is the queue handler: loads the stored job, renders the class
// report and records the outcome.
func (s *ExportService) HandleJob(ctx context.Context, job jobs.Job) error {
	reportID, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("report job %s has unexpected payload", job.ID)
	}

	stored, err := s.repo.FindByID(ctx, reportID)
	if err != nil {
		return fmt.Errorf("load report job: %w", err)
	}
	if err := s.repo.MarkRunning(ctx, reportID); err != nil {
		return fmt.Errorf("mark report running: %w", err)
	}

	path, err := s.render(ctx, stored)
	if err != nil {
		if markErr := s.repo.MarkFailed(ctx, reportID, err.Error()); markErr != nil {
			s.logger.Error("mark report failed", zap.String("report_id", reportID), zap.Error(markErr))
		}
		return err
	}
	if err := s.repo.MarkCompleted(ctx, reportID, path); err != nil {
		return fmt.Errorf("mark report completed: %w", err)
	}
	s.logger.Info("report generated", zap.String("report_id", reportID), zap.String("path", path))
	return nil
}

func (s *ExportService) render(ctx context.Context, job *models.ReportJob) (string, error) {
	subject, err := s.subjects.FindByID(ctx, job.SubjectID)
	if err != nil {
		return "", fmt.Errorf("load subject: %w", err)
	}
	matrix, _, err := s.gradebook.Matrix(ctx, job.SubjectID)
	if err != nil {
		return "", fmt.Errorf("build gradebook: %w", err)
	}

	dataset := matrixDataset(matrix)

	var payload []byte
	switch job.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, fmt.Sprintf("Class Report - %s", subject.Name))
	default:
		err = fmt.Errorf("unsupported format %q", job.Format)
	}
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}

	if err := os.MkdirAll(s.storageDir, 0o755); err != nil {
		return "", fmt.Errorf("create storage dir: %w", err)
	}
	path := filepath.Join(s.storageDir, fmt.Sprintf("report-%s.%s", job.ID, job.Format))
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("write report file: %w", err)
	}
	return path, nil
}

// matrixDataset flattens the gradebook matrix into tabular rows: one line
// per student, one column per assignment plus the row average.
func matrixDataset(matrix *models.GradebookMatrix) export.Dataset {
	headers := append([]string{"Student", "Username"}, matrix.AssignmentNames...)
	headers = append(headers, "Average")

	rows := make([]map[string]string, 0, len(matrix.Rows))
	for _, row := range matrix.Rows {
		line := map[string]string{
			"Student":  row.FullName,
			"Username": row.Username,
			"Average":  strconv.FormatFloat(row.Average, 'f', 2, 64),
		}
		for _, name := range matrix.AssignmentNames {
			if score, ok := row.Cells[name]; ok && score != nil {
				line[name] = strconv.FormatFloat(*score, 'f', 1, 64)
			} else {
				line[name] = ""
			}
		}
		rows = append(rows, line)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
