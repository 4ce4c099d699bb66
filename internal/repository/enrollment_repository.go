package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hallpass/school-portal-api/internal/models"
)

// EnrollmentRepository handles the student ↔ subject join.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository creates a new enrollment repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Create enrolls a student. Enrolling twice for the same pair is a no-op.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	enrollment.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO enrollments (id, student_id, subject_id, created_at)
        VALUES (:id, :student_id, :subject_id, :created_at)
        ON CONFLICT (student_id, subject_id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// Delete removes the enrollment for a (student, subject) pair.
func (r *EnrollmentRepository) Delete(ctx context.Context, studentID, subjectID string) error {
	const query = `DELETE FROM enrollments WHERE student_id = $1 AND subject_id = $2`
	if _, err := r.db.ExecContext(ctx, query, studentID, subjectID); err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	return nil
}

// ListBySubject returns enrollments for one subject with student names.
func (r *EnrollmentRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.Enrollment, error) {
	const query = `SELECT e.id, e.student_id, e.subject_id, u.username AS student_name, s.name AS subject_name, e.created_at
        FROM enrollments e
        JOIN users u ON u.id = e.student_id
        JOIN subjects s ON s.id = e.subject_id
        WHERE e.subject_id = $1 AND u.role = 'STUDENT'
        ORDER BY u.username`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, subjectID); err != nil {
		return nil, fmt.Errorf("list subject enrollments: %w", err)
	}
	return enrollments, nil
}

// ListByStudent returns the subjects one student is enrolled in.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	const query = `SELECT e.id, e.student_id, e.subject_id, u.username AS student_name, s.name AS subject_name, e.created_at
        FROM enrollments e
        JOIN users u ON u.id = e.student_id
        JOIN subjects s ON s.id = e.subject_id
        WHERE e.student_id = $1
        ORDER BY s.name`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return enrollments, nil
}

// Exists reports whether the (student, subject) pair is enrolled.
func (r *EnrollmentRepository) Exists(ctx context.Context, studentID, subjectID string) (bool, error) {
	var count int
	const query = `SELECT COUNT(*) FROM enrollments WHERE student_id = $1 AND subject_id = $2`
	if err := r.db.GetContext(ctx, &count, query, studentID, subjectID); err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return count > 0, nil
}
