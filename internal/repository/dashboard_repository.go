package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/hallpass/school-portal-api/internal/models"
)

// DashboardRepository serves the aggregate queries behind the role
// dashboards.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository creates a new dashboard repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// TeacherSubjectCount counts subjects owned by the teacher.
func (r *DashboardRepository) TeacherSubjectCount(ctx context.Context, teacherID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM subjects WHERE teacher_id = $1", teacherID); err != nil {
		return 0, fmt.Errorf("teacher subject count: %w", err)
	}
	return count, nil
}

// TeacherStudentCount counts distinct students enrolled across the
// teacher's subjects.
func (r *DashboardRepository) TeacherStudentCount(ctx context.Context, teacherID string) (int, error) {
	const query = `SELECT COUNT(DISTINCT e.student_id)
        FROM enrollments e
        JOIN subjects s ON s.id = e.subject_id
        WHERE s.teacher_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, teacherID); err != nil {
		return 0, fmt.Errorf("teacher student count: %w", err)
	}
	return count, nil
}

// TeacherActiveAssignments counts assignments awaiting grades in the
// teacher's subjects. A zero score still counts as ungraded here, matching
// the placeholder rows grade entry creates.
func (r *DashboardRepository) TeacherActiveAssignments(ctx context.Context, teacherID string) (int, error) {
	const query = `SELECT COUNT(*)
        FROM assignments a
        JOIN subjects s ON s.id = a.subject_id
        WHERE s.teacher_id = $1 AND (a.score IS NULL OR a.score = 0)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, teacherID); err != nil {
		return 0, fmt.Errorf("teacher active assignments: %w", err)
	}
	return count, nil
}

// TeacherAverageGrade averages every positive score across the teacher's
// subjects. No scores yields 0.
func (r *DashboardRepository) TeacherAverageGrade(ctx context.Context, teacherID string) (float64, error) {
	const query = `SELECT COALESCE(AVG(a.score), 0)
        FROM assignments a
        JOIN subjects s ON s.id = a.subject_id
        WHERE s.teacher_id = $1 AND a.score > 0`
	var avg float64
	if err := r.db.GetContext(ctx, &avg, query, teacherID); err != nil {
		return 0, fmt.Errorf("teacher average grade: %w", err)
	}
	return avg, nil
}

// StudentSubjectProgress returns per-subject averages for one student over
// their non-null scores; subjects with no grades yield 0.
func (r *DashboardRepository) StudentSubjectProgress(ctx context.Context, studentID string) ([]models.StudentSubjectProgress, error) {
	const query = `SELECT s.id AS subject_id, s.name AS subject_name, t.full_name AS teacher_name,
            COALESCE(AVG(a.score), 0) AS average_grade
        FROM enrollments e
        JOIN subjects s ON s.id = e.subject_id
        LEFT JOIN users t ON t.id = s.teacher_id
        LEFT JOIN assignments a ON a.subject_id = s.id AND a.student_id = e.student_id AND a.score IS NOT NULL
        WHERE e.student_id = $1
        GROUP BY s.id, s.name, t.full_name
        ORDER BY s.name`
	var progress []models.StudentSubjectProgress
	if err := r.db.SelectContext(ctx, &progress, query, studentID); err != nil {
		return nil, fmt.Errorf("student subject progress: %w", err)
	}
	return progress, nil
}

// StudentRecentAverage averages a window of the student's most recent
// positive scores, newest first, skipping offset rows. A window with no
// rows yields 0.
func (r *DashboardRepository) StudentRecentAverage(ctx context.Context, studentID string, limit, offset int) (float64, error) {
	const query = `SELECT COALESCE(AVG(score), 0) FROM (
            SELECT score FROM assignments
            WHERE student_id = $1 AND score > 0
            ORDER BY position DESC LIMIT $2 OFFSET $3
        ) recent`
	var avg float64
	if err := r.db.GetContext(ctx, &avg, query, studentID, limit, offset); err != nil {
		return 0, fmt.Errorf("student recent average: %w", err)
	}
	return avg, nil
}
