package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hallpass/school-portal-api/internal/models"
	appErrors "github.com/hallpass/school-portal-api/pkg/errors"
)

type scheduleRepository interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.ScheduleSlot, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.ScheduleSlot, error)
	CountSlot(ctx context.Context, teacherID, day string, period int) (int, error)
	Create(ctx context.Context, slot *models.ScheduleSlot) error
	Delete(ctx context.Context, id, teacherID string) error
}

// CreateSlotRequest places a subject on the weekly grid.
type CreateSlotRequest struct {
	SubjectID string `json:"subject_id" validate:"required"`
	Day       string `json:"day" validate:"required,oneof=Monday Tuesday Wednesday Thursday Friday"`
	Period    int    `json:"period" validate:"required,min=1,max=8"`
}

// ScheduleService manages weekly schedule slots. A teacher cannot hold two
// slots in the same (day, period); the check happens at insert time.
type ScheduleService struct {
	repo      scheduleRepository
	subjects  subjectRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs a ScheduleService instance.
func NewScheduleService(repo scheduleRepository, subjects subjectRepository, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ScheduleService{repo: repo, subjects: subjects, validator: validate, logger: logger}
}

// TeacherWeek returns the teacher's slots ordered Monday..Friday, then period.
func (s *ScheduleService) TeacherWeek(ctx context.Context, teacherID string) ([]models.ScheduleSlot, error) {
	slots, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule")
	}
	return slots, nil
}

// StudentWeek returns the slots of every subject the student is enrolled in.
func (s *ScheduleService) StudentWeek(ctx context.Context, studentID string) ([]models.ScheduleSlot, error) {
	slots, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule")
	}
	return slots, nil
}

// CreateSlot places one of the teacher's subjects at (day, period). The slot
// must be free across all of that teacher's subjects.
func (s *ScheduleService) CreateSlot(ctx context.Context, teacherID string, req CreateSlotRequest) (*models.ScheduleSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	subject, err := s.subjects.FindByID(ctx, req.SubjectID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}
	if subject.TeacherID == nil || *subject.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "subject does not belong to teacher")
	}

	count, err := s.repo.CountSlot(ctx, teacherID, req.Day, req.Period)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slot")
	}
	if count > 0 {
		return nil, appErrors.Clone(appErrors.ErrSlotTaken, "schedule slot already occupied")
	}

	slot := &models.ScheduleSlot{SubjectID: req.SubjectID, Day: req.Day, Period: req.Period}
	if err := s.repo.Create(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create slot")
	}
	slot.SubjectName = subject.Name
	return slot, nil
}

// DeleteSlot removes a slot belonging to one of the teacher's subjects.
func (s *ScheduleService) DeleteSlot(ctx context.Context, id, teacherID string) error {
	if err := s.repo.Delete(ctx, id, teacherID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete slot")
	}
	return nil
}
