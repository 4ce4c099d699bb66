package models

// GradebookRow is one student's line in the gradebook matrix. Cells maps
// assignment name to the recorded score; absent cells mean no grade record.
type GradebookRow struct {
	StudentID string              `json:"student_id"`
	Username  string              `json:"username"`
	FullName  string              `json:"full_name"`
	Cells     map[string]*float64 `json:"cells"`
	Average   float64             `json:"average"`
}

// GradebookMatrix is the student × assignment score matrix for one subject.
type GradebookMatrix struct {
	SubjectID       string             `json:"subject_id"`
	AssignmentNames []string           `json:"assignment_names"`
	Rows            []GradebookRow     `json:"rows"`
	ColumnAverages  map[string]float64 `json:"column_averages"`
}

// GradebookCellRow is the raw (student, assignment, score) record feeding
// the matrix.
type GradebookCellRow struct {
	StudentID      string   `db:"student_id"`
	Username       string   `db:"username"`
	FullName       string   `db:"full_name"`
	AssignmentID   *string  `db:"assignment_id"`
	AssignmentName *string  `db:"assignment_name"`
	Score          *float64 `db:"score"`
}
