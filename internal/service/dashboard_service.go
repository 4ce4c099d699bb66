package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/hallpass/school-portal-api/internal/models"
	appErrors "github.com/hallpass/school-portal-api/pkg/errors"
)

type dashboardRepository interface {
	TeacherSubjectCount(ctx context.Context, teacherID string) (int, error)
	TeacherStudentCount(ctx context.Context, teacherID string) (int, error)
	TeacherActiveAssignments(ctx context.Context, teacherID string) (int, error)
	TeacherAverageGrade(ctx context.Context, teacherID string) (float64, error)
	StudentSubjectProgress(ctx context.Context, studentID string) ([]models.StudentSubjectProgress, error)
	StudentRecentAverage(ctx context.Context, studentID string, limit, offset int) (float64, error)
}

type weeklyAttendanceRepository interface {
	WeeklyRateForTeacher(ctx context.Context, teacherID string) (float64, error)
	StudentTotals(ctx context.Context, studentID string) (present int, total int, err error)
}

// recentWindow sizes the "recent vs prior" comparison on the student
// dashboard.
const recentWindow = 10

// DashboardService assembles the per-role landing page aggregates.
type DashboardService struct {
	repo         dashboardRepository
	attendance   weeklyAttendanceRepository
	passingGrade float64
	logger       *zap.Logger
}

// NewDashboardService constructs a DashboardService instance.
func NewDashboardService(repo dashboardRepository, attendance weeklyAttendanceRepository, passingGrade float64, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if passingGrade <= 0 {
		passingGrade = 60
	}
	return &DashboardService{repo: repo, attendance: attendance, passingGrade: passingGrade, logger: logger}
}

// TeacherDashboard returns headline numbers across the teacher's subjects.
func (s *DashboardService) TeacherDashboard(ctx context.Context, teacherID string) (*models.TeacherDashboard, error) {
	subjectCount, err := s.repo.TeacherSubjectCount(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count subjects")
	}
	studentCount, err := s.repo.TeacherStudentCount(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	activeAssignments, err := s.repo.TeacherActiveAssignments(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count assignments")
	}
	averageGrade, err := s.repo.TeacherAverageGrade(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to average grades")
	}
	attendanceRate, err := s.attendance.WeeklyRateForTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute attendance rate")
	}

	return &models.TeacherDashboard{
		SubjectCount:      subjectCount,
		StudentCount:      studentCount,
		ActiveAssignments: activeAssignments,
		AttendanceRate:    round2(attendanceRate),
		AverageGrade:      round2(averageGrade),
	}, nil
}

// StudentDashboard returns the student's per-subject averages, the recent
// window versus the one before it, and attendance totals.
func (s *DashboardService) StudentDashboard(ctx context.Context, studentID string) (*models.StudentDashboard, error) {
	subjects, err := s.repo.StudentSubjectProgress(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject progress")
	}

	var overall float64
	graded := 0
	for i := range subjects {
		subjects[i].AverageGrade = round2(subjects[i].AverageGrade)
		subjects[i].IsPassing = subjects[i].AverageGrade >= s.passingGrade
		if subjects[i].AverageGrade > 0 {
			overall += subjects[i].AverageGrade
			graded++
		}
	}
	if graded > 0 {
		overall = round2(overall / float64(graded))
	}

	recent, err := s.repo.StudentRecentAverage(ctx, studentID, recentWindow, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute recent average")
	}
	prior, err := s.repo.StudentRecentAverage(ctx, studentID, recentWindow, recentWindow)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute prior average")
	}
	var delta float64
	if prior > 0 {
		delta = round2(recent - prior)
	}

	present, total, err := s.attendance.StudentTotals(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance totals")
	}
	var rate float64
	if total > 0 {
		rate = round2(float64(present) / float64(total) * 100)
	}

	return &models.StudentDashboard{
		Subjects:         subjects,
		OverallGrade:     overall,
		RecentAverage:    round2(recent),
		ImprovementDelta: delta,
		AttendanceRate:   rate,
		DaysPresent:      present,
		TotalDays:        total,
	}, nil
}
