package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hallpass/school-portal-api/internal/models"
)

// ScheduleRepository handles weekly schedule slot persistence.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const scheduleOrder = ` ORDER BY CASE sl.day
        WHEN 'Monday' THEN 1
        WHEN 'Tuesday' THEN 2
        WHEN 'Wednesday' THEN 3
        WHEN 'Thursday' THEN 4
        WHEN 'Friday' THEN 5
        END, sl.period`

// ListByTeacher returns the slots for every subject a teacher owns.
func (r *ScheduleRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.ScheduleSlot, error) {
	query := `SELECT sl.id, sl.subject_id, s.name AS subject_name, sl.day, sl.period, sl.created_at
        FROM schedule_slots sl
        JOIN subjects s ON s.id = sl.subject_id
        WHERE s.teacher_id = $1` + scheduleOrder
	var slots []models.ScheduleSlot
	if err := r.db.SelectContext(ctx, &slots, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher schedule: %w", err)
	}
	return slots, nil
}

// ListByStudent returns the weekly view for a student's enrolled subjects.
func (r *ScheduleRepository) ListByStudent(ctx context.Context, studentID string) ([]models.ScheduleSlot, error) {
	query := `SELECT sl.id, sl.subject_id, s.name AS subject_name, sl.day, sl.period, sl.created_at
        FROM schedule_slots sl
        JOIN subjects s ON s.id = sl.subject_id
        JOIN enrollments e ON e.subject_id = sl.subject_id
        WHERE e.student_id = $1` + scheduleOrder
	var slots []models.ScheduleSlot
	if err := r.db.SelectContext(ctx, &slots, query, studentID); err != nil {
		return nil, fmt.Errorf("list student schedule: %w", err)
	}
	return slots, nil
}

// CountSlot counts existing slots for a teacher at (day, period). The
// conflict check lives here, at insert time, not in a constraint.
func (r *ScheduleRepository) CountSlot(ctx context.Context, teacherID, day string, period int) (int, error) {
	const query = `SELECT COUNT(*) FROM schedule_slots sl
        WHERE sl.day = $1 AND sl.period = $2
        AND sl.subject_id IN (SELECT id FROM subjects WHERE teacher_id = $3)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, day, period, teacherID); err != nil {
		return 0, fmt.Errorf("count schedule slot: %w", err)
	}
	return count, nil
}

// Create inserts a slot.
func (r *ScheduleRepository) Create(ctx context.Context, slot *models.ScheduleSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	slot.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO schedule_slots (id, subject_id, day, period, created_at)
        VALUES (:id, :subject_id, :day, :period, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("create schedule slot: %w", err)
	}
	return nil
}

// Delete removes a slot owned by the teacher's subjects.
func (r *ScheduleRepository) Delete(ctx context.Context, id, teacherID string) error {
	const query = `DELETE FROM schedule_slots
        WHERE id = $1 AND subject_id IN (SELECT id FROM subjects WHERE teacher_id = $2)`
	if _, err := r.db.ExecContext(ctx, query, id, teacherID); err != nil {
		return fmt.Errorf("delete schedule slot: %w", err)
	}
	return nil
}
