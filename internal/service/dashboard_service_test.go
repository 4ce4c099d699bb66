package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hallpass/school-portal-api/internal/models"
)

type mockDashboardRepo struct {
	subjectCount  int
	studentCount  int
	active        int
	averageGrade  float64
	progress      []models.StudentSubjectProgress
	recentAverage float64
	priorAverage  float64
}

func (m *mockDashboardRepo) TeacherSubjectCount(ctx context.Context, teacherID string) (int, error) {
	return m.subjectCount, nil
}

func (m *mockDashboardRepo) TeacherStudentCount(ctx context.Context, teacherID string) (int, error) {
	return m.studentCount, nil
}

func (m *mockDashboardRepo) TeacherActiveAssignments(ctx context.Context, teacherID string) (int, error) {
	return m.active, nil
}

func (m *mockDashboardRepo) TeacherAverageGrade(ctx context.Context, teacherID string) (float64, error) {
	return m.averageGrade, nil
}

func (m *mockDashboardRepo) StudentSubjectProgress(ctx context.Context, studentID string) ([]models.StudentSubjectProgress, error) {
	return m.progress, nil
}

func (m *mockDashboardRepo) StudentRecentAverage(ctx context.Context, studentID string, limit, offset int) (float64, error) {
	if offset > 0 {
		return m.priorAverage, nil
	}
	return m.recentAverage, nil
}

type mockWeeklyAttendanceRepo struct {
	weeklyRate float64
	present    int
	total      int
}

func (m *mockWeeklyAttendanceRepo) WeeklyRateForTeacher(ctx context.Context, teacherID string) (float64, error) {
	return m.weeklyRate, nil
}

func (m *mockWeeklyAttendanceRepo) StudentTotals(ctx context.Context, studentID string) (int, int, error) {
	return m.present, m.total, nil
}

func TestDashboardServiceTeacherDashboard(t *testing.T) {
	repo := &mockDashboardRepo{subjectCount: 3, studentCount: 48, active: 5, averageGrade: 78.456}
	attendance := &mockWeeklyAttendanceRepo{weeklyRate: 91.239}
	svc := NewDashboardService(repo, attendance, 60, zap.NewNop())

	dashboard, err := svc.TeacherDashboard(context.Background(), "tch-1")
	require.NoError(t, err)
	assert.Equal(t, 3, dashboard.SubjectCount)
	assert.Equal(t, 48, dashboard.StudentCount)
	assert.Equal(t, 5, dashboard.ActiveAssignments)
	assert.Equal(t, 78.46, dashboard.AverageGrade)
	assert.Equal(t, 91.24, dashboard.AttendanceRate)
}

func TestDashboardServiceStudentDashboard(t *testing.T) {
	repo := &mockDashboardRepo{
		progress: []models.StudentSubjectProgress{
			{SubjectID: "sub-1", SubjectName: "Math", AverageGrade: 82.346},
			{SubjectID: "sub-2", SubjectName: "History", AverageGrade: 55.05},
			{SubjectID: "sub-3", SubjectName: "Art", AverageGrade: 0},
		},
		recentAverage: 80.0,
		priorAverage:  74.5,
	}
	attendance := &mockWeeklyAttendanceRepo{present: 18, total: 20}
	svc := NewDashboardService(repo, attendance, 60, zap.NewNop())

	dashboard, err := svc.StudentDashboard(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, dashboard.Subjects, 3)

	assert.Equal(t, 82.35, dashboard.Subjects[0].AverageGrade)
	assert.True(t, dashboard.Subjects[0].IsPassing)
	assert.False(t, dashboard.Subjects[1].IsPassing)

	// Ungraded subjects stay out of the overall average.
	assert.Equal(t, 68.7, dashboard.OverallGrade)
	assert.Equal(t, 80.0, dashboard.RecentAverage)
	assert.Equal(t, 5.5, dashboard.ImprovementDelta)
	assert.Equal(t, 90.0, dashboard.AttendanceRate)
	assert.Equal(t, 18, dashboard.DaysPresent)
	assert.Equal(t, 20, dashboard.TotalDays)
}

func TestDashboardServiceStudentDashboardNoPriorWindow(t *testing.T) {
	repo := &mockDashboardRepo{recentAverage: 88.0, priorAverage: 0}
	attendance := &mockWeeklyAttendanceRepo{}
	svc := NewDashboardService(repo, attendance, 60, zap.NewNop())

	dashboard, err := svc.StudentDashboard(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Zero(t, dashboard.ImprovementDelta)
	assert.Zero(t, dashboard.AttendanceRate)
}
