package models

// TeacherDashboard aggregates headline numbers for a teacher's subjects.
type TeacherDashboard struct {
	SubjectCount      int     `json:"subject_count"`
	StudentCount      int     `json:"student_count"`
	ActiveAssignments int     `json:"active_assignments"`
	AttendanceRate    float64 `json:"attendance_rate"`
	AverageGrade      float64 `json:"average_grade"`
}

// StudentSubjectProgress is one subject line on the student dashboard.
type StudentSubjectProgress struct {
	SubjectID    string  `db:"subject_id" json:"subject_id"`
	SubjectName  string  `db:"subject_name" json:"subject_name"`
	TeacherName  *string `db:"teacher_name" json:"teacher_name,omitempty"`
	AverageGrade float64 `db:"average_grade" json:"average_grade"`
	IsPassing    bool    `json:"is_passing"`
}

// StudentDashboard aggregates a student's standing across subjects.
type StudentDashboard struct {
	Subjects         []StudentSubjectProgress `json:"subjects"`
	OverallGrade     float64                  `json:"overall_grade"`
	RecentAverage    float64                  `json:"recent_average"`
	ImprovementDelta float64                  `json:"improvement_delta"`
	AttendanceRate   float64                  `json:"attendance_rate"`
	DaysPresent      int                      `json:"days_present"`
	TotalDays        int                      `json:"total_days"`
}

// SystemAnalytics is the admin-wide snapshot.
type SystemAnalytics struct {
	TotalStudents          int     `db:"total_students" json:"total_students"`
	TotalTeachers          int     `db:"total_teachers" json:"total_teachers"`
	TotalSubjects          int     `db:"total_subjects" json:"total_subjects"`
	TotalGradedAssignments int     `db:"total_graded_assignments" json:"total_graded_assignments"`
	OverallAverage         float64 `db:"overall_average" json:"overall_average"`
}

// SubjectComparison ranks subjects by average grade for the admin view.
type SubjectComparison struct {
	SubjectName     string  `db:"subject_name" json:"subject_name"`
	AverageGrade    float64 `db:"average_grade" json:"average_grade"`
	AssignmentCount int     `db:"assignment_count" json:"assignment_count"`
	StudentCount    int     `db:"student_count" json:"student_count"`
}
