package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hallpass/school-portal-api/internal/models"
	appErrors "github.com/hallpass/school-portal-api/pkg/errors"
)

type enrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Delete(ctx context.Context, studentID, subjectID string) error
	ListBySubject(ctx context.Context, subjectID string) ([]models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
	Exists(ctx context.Context, studentID, subjectID string) (bool, error)
}

// EnrollmentService joins students to subjects. Enrolling an already
// enrolled student is a silent no-op.
type EnrollmentService struct {
	repo     enrollmentRepository
	users    userRepository
	subjects subjectRepository
	logger   *zap.Logger
}

// NewEnrollmentService constructs an EnrollmentService instance.
func NewEnrollmentService(repo enrollmentRepository, users userRepository, subjects subjectRepository, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, users: users, subjects: subjects, logger: logger}
}

// Enroll adds a student to a subject.
func (s *EnrollmentService) Enroll(ctx context.Context, studentID, subjectID string) error {
	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Role != models.RoleStudent {
		return appErrors.Clone(appErrors.ErrValidation, "only students can be enrolled")
	}
	if _, err := s.subjects.FindByID(ctx, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	enrollment := &models.Enrollment{ID: uuid.NewString(), StudentID: studentID, SubjectID: subjectID}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
	}
	return nil
}

// Unenroll removes a student from a subject.
func (s *EnrollmentService) Unenroll(ctx context.Context, studentID, subjectID string) error {
	exists, err := s.repo.Exists(ctx, studentID, subjectID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if !exists {
		return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}
	if err := s.repo.Delete(ctx, studentID, subjectID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unenroll student")
	}
	return nil
}

// Roster lists the students enrolled in a subject.
func (s *EnrollmentService) Roster(ctx context.Context, subjectID string) ([]models.Enrollment, error) {
	enrollments, err := s.repo.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list roster")
	}
	return enrollments, nil
}

// SubjectsFor lists the subjects a student is enrolled in.
func (s *EnrollmentService) SubjectsFor(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	enrollments, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

// IsEnrolled reports whether a student belongs to a subject.
func (s *EnrollmentService) IsEnrolled(ctx context.Context, studentID, subjectID string) (bool, error) {
	exists, err := s.repo.Exists(ctx, studentID, subjectID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	return exists, nil
}
