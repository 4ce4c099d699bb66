package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hallpass/school-portal-api/internal/models"
)

// AssignmentRepository handles assignment and grade persistence. The
// position column is a serial assigned on insert; it stands in for
// chronology everywhere scores are ordered.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates a new assignment repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentColumns = "id, subject_id, student_id, name, score, position, created_at"

// List returns assignments matching the filter in creation order.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	query := "SELECT " + assignmentColumns + " FROM assignments WHERE 1=1"
	var args []interface{}
	if filter.SubjectID != "" {
		args = append(args, filter.SubjectID)
		query += fmt.Sprintf(" AND subject_id = $%d", len(args))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		query += fmt.Sprintf(" AND student_id = $%d", len(args))
	}
	if filter.TemplatesOnly {
		query += " AND student_id IS NULL"
	}
	query += " ORDER BY position"
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// FindByID returns a single assignment.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, "SELECT "+assignmentColumns+" FROM assignments WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Create inserts an assignment row. StudentID nil creates a subject-wide
// template; Score nil creates an ungraded instance.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	const query = `INSERT INTO assignments (id, subject_id, student_id, name, score)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING position, created_at`
	row := r.db.QueryRowxContext(ctx, query, assignment.ID, assignment.SubjectID, assignment.StudentID, assignment.Name, assignment.Score)
	if err := row.Scan(&assignment.Position, &assignment.CreatedAt); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// UpdateScore writes a grade cell. A nil score deletes the grade record
// entirely (delete-on-blank) instead of storing a null: a subsequent read
// shows the cell as absent, not zero.
func (r *AssignmentRepository) UpdateScore(ctx context.Context, id string, score *float64) error {
	if score == nil {
		if _, err := r.db.ExecContext(ctx, "DELETE FROM assignments WHERE id = $1", id); err != nil {
			return fmt.Errorf("delete blank grade: %w", err)
		}
		return nil
	}
	if _, err := r.db.ExecContext(ctx, "UPDATE assignments SET score = $1 WHERE id = $2", *score, id); err != nil {
		return fmt.Errorf("update grade: %w", err)
	}
	return nil
}

// Delete removes an assignment row.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM assignments WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}

// GradebookCells returns every enrolled student in the subject left-joined
// to their assignment rows. Students without grades still appear, with nil
// assignment fields.
func (r *AssignmentRepository) GradebookCells(ctx context.Context, subjectID string) ([]models.GradebookCellRow, error) {
	const query = `SELECT u.id AS student_id, u.username, u.full_name,
            a.id AS assignment_id, a.name AS assignment_name, a.score
        FROM users u
        JOIN enrollments e ON e.student_id = u.id
        LEFT JOIN assignments a ON a.subject_id = e.subject_id AND a.student_id = u.id
        WHERE e.subject_id = $1 AND u.role = 'STUDENT'
        ORDER BY u.username, a.position`
	var cells []models.GradebookCellRow
	if err := r.db.SelectContext(ctx, &cells, query, subjectID); err != nil {
		return nil, fmt.Errorf("gradebook cells: %w", err)
	}
	return cells, nil
}

// AssignmentNames returns the distinct assignment names recorded against a
// subject, in first-seen creation order.
func (r *AssignmentRepository) AssignmentNames(ctx context.Context, subjectID string) ([]string, error) {
	const query = `SELECT name FROM assignments WHERE subject_id = $1 GROUP BY name ORDER BY MIN(position)`
	var names []string
	if err := r.db.SelectContext(ctx, &names, query, subjectID); err != nil {
		return nil, fmt.Errorf("assignment names: %w", err)
	}
	return names, nil
}
