package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/hallpass/school-portal-api/internal/models"
)

// AnalyticsRepository serves the read-side queries behind predictions,
// class statistics and system analytics. Every method reads a snapshot of
// the stored rows; no state is owned here.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository creates a new analytics repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// StudentScores returns one student's graded history across subjects,
// oldest first. Ungraded and zero scores are excluded.
func (r *AnalyticsRepository) StudentScores(ctx context.Context, studentID string) ([]models.StudentScoreRow, error) {
	const query = `SELECT a.score, a.subject_id, s.name AS subject_name, a.position
        FROM assignments a
        JOIN subjects s ON s.id = a.subject_id
        WHERE a.student_id = $1 AND a.score IS NOT NULL AND a.score > 0
        ORDER BY a.position`
	var rows []models.StudentScoreRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("student scores: %w", err)
	}
	return rows, nil
}

// SubjectScores returns every graded score in a subject with the owning
// student's identity. Ungraded and zero scores are excluded.
func (r *AnalyticsRepository) SubjectScores(ctx context.Context, subjectID string) ([]models.SubjectScoreRow, error) {
	const query = `SELECT a.score, a.student_id, u.username, u.full_name
        FROM assignments a
        JOIN users u ON u.id = a.student_id
        WHERE a.subject_id = $1 AND a.score IS NOT NULL AND a.score > 0`
	var rows []models.SubjectScoreRow
	if err := r.db.SelectContext(ctx, &rows, query, subjectID); err != nil {
		return nil, fmt.Errorf("subject scores: %w", err)
	}
	return rows, nil
}

// EnrolledStudentCount counts distinct enrolled students for a subject.
func (r *AnalyticsRepository) EnrolledStudentCount(ctx context.Context, subjectID string) (int, error) {
	var count int
	const query = `SELECT COUNT(DISTINCT student_id) FROM enrollments WHERE subject_id = $1`
	if err := r.db.GetContext(ctx, &count, query, subjectID); err != nil {
		return 0, fmt.Errorf("enrolled student count: %w", err)
	}
	return count, nil
}

// AttendanceRows returns attendance records matching the optional student
// and subject filters, newest first.
func (r *AnalyticsRepository) AttendanceRows(ctx context.Context, filter models.AttendanceAnalyticsFilter) ([]models.AttendanceRow, error) {
	query := `SELECT att.present, att.date, att.subject_id, s.name AS subject_name, att.student_id
        FROM attendance att
        JOIN subjects s ON s.id = att.subject_id
        WHERE 1=1`
	var args []interface{}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		query += fmt.Sprintf(" AND att.student_id = $%d", len(args))
	}
	if filter.SubjectID != "" {
		args = append(args, filter.SubjectID)
		query += fmt.Sprintf(" AND att.subject_id = $%d", len(args))
	}
	query += " ORDER BY att.date DESC"
	var rows []models.AttendanceRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("attendance rows: %w", err)
	}
	return rows, nil
}

// SystemAnalytics returns the admin-wide counters in one round trip.
func (r *AnalyticsRepository) SystemAnalytics(ctx context.Context) (*models.SystemAnalytics, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM users WHERE role = 'STUDENT') AS total_students,
        (SELECT COUNT(*) FROM users WHERE role = 'TEACHER') AS total_teachers,
        (SELECT COUNT(*) FROM subjects) AS total_subjects,
        (SELECT COUNT(*) FROM assignments WHERE score IS NOT NULL) AS total_graded_assignments,
        COALESCE((SELECT AVG(score) FROM assignments WHERE score IS NOT NULL AND score > 0), 0) AS overall_average`
	var stats models.SystemAnalytics
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("system analytics: %w", err)
	}
	return &stats, nil
}

// SubjectComparisons ranks subjects by average graded score.
func (r *AnalyticsRepository) SubjectComparisons(ctx context.Context) ([]models.SubjectComparison, error) {
	const query = `SELECT s.name AS subject_name,
            AVG(a.score) AS average_grade,
            COUNT(a.id) AS assignment_count,
            COUNT(DISTINCT a.student_id) AS student_count
        FROM assignments a
        JOIN subjects s ON s.id = a.subject_id
        WHERE a.score IS NOT NULL AND a.score > 0
        GROUP BY s.id, s.name
        ORDER BY average_grade DESC`
	var comparisons []models.SubjectComparison
	if err := r.db.SelectContext(ctx, &comparisons, query); err != nil {
		return nil, fmt.Errorf("subject comparisons: %w", err)
	}
	return comparisons, nil
}
