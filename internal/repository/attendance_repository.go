package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hallpass/school-portal-api/internal/models"
)

// AttendanceRepository handles daily attendance persistence.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates a new attendance repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ReplaceForDate rewrites the attendance for one (subject, date): any
// existing records for the scope are deleted, then the submitted entries
// inserted. This is how duplicate records get pruned.
func (r *AttendanceRepository) ReplaceForDate(ctx context.Context, subjectID string, date time.Time, entries []models.MarkAttendanceEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM attendance WHERE subject_id = $1 AND date = $2", subjectID, date); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear attendance: %w", err)
	}
	const insert = `INSERT INTO attendance (id, student_id, subject_id, date, present) VALUES ($1, $2, $3, $4, $5)`
	for _, entry := range entries {
		if _, err := tx.ExecContext(ctx, insert, uuid.NewString(), entry.StudentID, subjectID, date, entry.Present); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert attendance: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance: %w", err)
	}
	return nil
}

// ListForDate returns the records for one (subject, date).
func (r *AttendanceRepository) ListForDate(ctx context.Context, subjectID string, date time.Time) ([]models.AttendanceRecord, error) {
	const query = `SELECT id, student_id, subject_id, date, present FROM attendance
        WHERE subject_id = $1 AND date = $2 ORDER BY student_id`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, subjectID, date); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// StudentSummary aggregates a student's attendance per subject.
func (r *AttendanceRepository) StudentSummary(ctx context.Context, studentID string) ([]models.AttendanceSummary, error) {
	const query = `SELECT att.subject_id, s.name AS subject_name,
            COUNT(*) FILTER (WHERE att.present) AS present_count,
            COUNT(*) AS total_count
        FROM attendance att
        JOIN subjects s ON s.id = att.subject_id
        WHERE att.student_id = $1
        GROUP BY att.subject_id, s.name
        ORDER BY s.name`
	var summaries []models.AttendanceSummary
	if err := r.db.SelectContext(ctx, &summaries, query, studentID); err != nil {
		return nil, fmt.Errorf("student attendance summary: %w", err)
	}
	return summaries, nil
}

// WeeklyRateForTeacher returns the attendance rate across a teacher's
// subjects for the trailing seven days, as a percentage. Subjects with no
// records yield 100.
func (r *AttendanceRepository) WeeklyRateForTeacher(ctx context.Context, teacherID string) (float64, error) {
	const query = `SELECT COALESCE(AVG(CASE WHEN att.present THEN 100.0 ELSE 0.0 END), 100)
        FROM attendance att
        WHERE att.subject_id IN (SELECT id FROM subjects WHERE teacher_id = $1)
        AND att.date >= CURRENT_DATE - INTERVAL '7 days'`
	var rate float64
	if err := r.db.GetContext(ctx, &rate, query, teacherID); err != nil {
		return 0, fmt.Errorf("weekly attendance rate: %w", err)
	}
	return rate, nil
}

// StudentTotals returns present and total day counts for one student.
func (r *AttendanceRepository) StudentTotals(ctx context.Context, studentID string) (present int, total int, err error) {
	const query = `SELECT COUNT(*) FILTER (WHERE present) AS present, COUNT(*) AS total FROM attendance WHERE student_id = $1`
	row := r.db.QueryRowxContext(ctx, query, studentID)
	if err := row.Scan(&present, &total); err != nil {
		return 0, 0, fmt.Errorf("student attendance totals: %w", err)
	}
	return present, total, nil
}
