package models

import "time"

// AttendanceRecord marks one student present or absent for a subject on a
// date. Uniqueness per (student, subject, date) is intent, not a constraint:
// updates prune duplicates by delete-then-insert over the (subject, date)
// scope.
type AttendanceRecord struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	Date      time.Time `db:"date" json:"date"`
	Present   bool      `db:"present" json:"present"`
}

// AttendanceRow is the joined record consumed by pattern analytics.
type AttendanceRow struct {
	Present     bool      `db:"present"`
	Date        time.Time `db:"date"`
	SubjectID   string    `db:"subject_id"`
	SubjectName string    `db:"subject_name"`
	StudentID   string    `db:"student_id"`
}

// AttendanceSummary aggregates a student's attendance within one subject.
type AttendanceSummary struct {
	SubjectID    string  `db:"subject_id" json:"subject_id"`
	SubjectName  string  `db:"subject_name" json:"subject_name"`
	PresentCount int     `db:"present_count" json:"present_count"`
	TotalCount   int     `db:"total_count" json:"total_count"`
	Rate         float64 `json:"rate"`
}

// MarkAttendanceEntry is one student's state in a bulk marking request.
type MarkAttendanceEntry struct {
	StudentID string `json:"student_id" validate:"required"`
	Present   bool   `json:"present"`
}
