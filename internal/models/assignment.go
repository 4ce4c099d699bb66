package models

import "time"

// Assignment is a gradable item scoped to one subject. StudentID is nil for
// subject-wide template rows; Score is nil while ungraded. Position records
// creation order and stands in for chronology.
type Assignment struct {
	ID        string    `db:"id" json:"id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	StudentID *string   `db:"student_id" json:"student_id,omitempty"`
	Name      string    `db:"name" json:"name"`
	Score     *float64  `db:"score" json:"score,omitempty"`
	Position  int64     `db:"position" json:"position"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// IsTemplate reports whether the row is a subject-wide template rather than
// a graded instance for one student.
func (a Assignment) IsTemplate() bool {
	return a.StudentID == nil
}

// AssignmentFilter narrows assignment listings.
type AssignmentFilter struct {
	SubjectID string
	StudentID string
	// TemplatesOnly restricts results to rows with no student link.
	TemplatesOnly bool
}

// StudentScoreRow is one graded data point in a student's history, ordered
// by Position (oldest first).
type StudentScoreRow struct {
	Score       float64 `db:"score"`
	SubjectID   string  `db:"subject_id"`
	SubjectName string  `db:"subject_name"`
	Position    int64   `db:"position"`
}

// SubjectScoreRow is one graded data point within a subject, carrying the
// student identity for per-student aggregation.
type SubjectScoreRow struct {
	Score     float64 `db:"score"`
	StudentID string  `db:"student_id"`
	Username  string  `db:"username"`
	FullName  string  `db:"full_name"`
}
