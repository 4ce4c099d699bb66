package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hallpass/school-portal-api/internal/models"
	appErrors "github.com/hallpass/school-portal-api/pkg/errors"
)

type attendanceRepository interface {
	ReplaceForDate(ctx context.Context, subjectID string, date time.Time, entries []models.MarkAttendanceEntry) error
	ListForDate(ctx context.Context, subjectID string, date time.Time) ([]models.AttendanceRecord, error)
	StudentSummary(ctx context.Context, studentID string) ([]models.AttendanceSummary, error)
	StudentTotals(ctx context.Context, studentID string) (present int, total int, err error)
}

// MarkAttendanceRequest records a class session: one present/absent entry
// per student on a date.
type MarkAttendanceRequest struct {
	SubjectID string                       `json:"subject_id" validate:"required"`
	Date      string                       `json:"date" validate:"required,datetime=2006-01-02"`
	Entries   []models.MarkAttendanceEntry `json:"entries" validate:"required,min=1,dive"`
}

// AttendanceService records and summarises attendance. Marking a date that
// was already marked replaces the whole day for that subject, so duplicate
// records cannot accumulate.
type AttendanceService struct {
	repo      attendanceRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs an AttendanceService instance.
func NewAttendanceService(repo attendanceRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AttendanceService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// Mark replaces the attendance records for (subject, date) with the given
// entries.
func (s *AttendanceService) Mark(ctx context.Context, req MarkAttendanceRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}

	if err := s.repo.ReplaceForDate(ctx, req.SubjectID, date, req.Entries); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark attendance")
	}

	if err := s.cache.Invalidate(ctx, "analytics:attendance*"); err != nil {
		s.logger.Warn("invalidate attendance cache", zap.Error(err))
	}
	return nil
}

// ForDate lists the recorded attendance for one subject session.
func (s *AttendanceService) ForDate(ctx context.Context, subjectID string, date time.Time) ([]models.AttendanceRecord, error) {
	records, err := s.repo.ListForDate(ctx, subjectID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// StudentSummary aggregates one student's attendance per subject with a
// computed rate.
func (s *AttendanceService) StudentSummary(ctx context.Context, studentID string) ([]models.AttendanceSummary, error) {
	summaries, err := s.repo.StudentSummary(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarise attendance")
	}
	for i := range summaries {
		if summaries[i].TotalCount > 0 {
			summaries[i].Rate = round2(float64(summaries[i].PresentCount) / float64(summaries[i].TotalCount) * 100)
		}
	}
	return summaries, nil
}
