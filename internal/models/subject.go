package models

import "time"

// Subject represents a course owned by at most one teacher.
type Subject struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	TeacherID   *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	TeacherName *string   `db:"teacher_name" json:"teacher_name,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectFilter narrows subject listings.
type SubjectFilter struct {
	TeacherID string
	Search    string
}

// Enrollment joins a student to a subject, unique per pair.
type Enrollment struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	StudentName string    `db:"student_name" json:"student_name,omitempty"`
	SubjectName string    `db:"subject_name" json:"subject_name,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
