package models

// TrendLabel is the qualitative direction of a grade series.
type TrendLabel string

const (
	TrendImproving TrendLabel = "improving"
	TrendDeclining TrendLabel = "declining"
	TrendStable    TrendLabel = "stable"
)

// SubjectTrend is the per-subject breakdown inside a prediction.
type SubjectTrend struct {
	Average         float64    `json:"average"`
	Trend           TrendLabel `json:"trend"`
	AssignmentCount int        `json:"assignments_count"`
}

// PerformancePrediction is the least-squares forecast for one student.
// InsufficientData is set instead of an error when fewer than three graded
// assignments exist; the numeric fields are then zero values.
type PerformancePrediction struct {
	InsufficientData   bool                    `json:"insufficient_data,omitempty"`
	PredictedGrade     float64                 `json:"predicted_grade"`
	Confidence         float64                 `json:"confidence"`
	Trend              TrendLabel              `json:"trend"`
	CurrentAverage     float64                 `json:"current_average"`
	ImprovementRate    float64                 `json:"improvement_rate"`
	SubjectPerformance map[string]SubjectTrend `json:"subject_performance,omitempty"`
	DataPoints         int                     `json:"data_points"`
}

// ClassStatistics are descriptive statistics over one subject's scores.
type ClassStatistics struct {
	Mean             float64 `json:"mean"`
	Median           float64 `json:"median"`
	StdDev           float64 `json:"std_dev"`
	Min              float64 `json:"min"`
	Max              float64 `json:"max"`
	TotalStudents    int     `json:"total_students"`
	TotalAssignments int     `json:"total_assignments"`
}

// GradeDistribution buckets scores on the standard percentage scale.
type GradeDistribution struct {
	A int `json:"A"`
	B int `json:"B"`
	C int `json:"C"`
	D int `json:"D"`
	F int `json:"F"`
}

// StudentPerformance summarises one student inside a class analysis.
type StudentPerformance struct {
	StudentID       string  `json:"user_id"`
	Username        string  `json:"username"`
	FullName        string  `json:"full_name"`
	AverageGrade    float64 `json:"average_grade"`
	AssignmentCount int     `json:"assignment_count"`
	Consistency     float64 `json:"consistency"`
}

// ClassPerformance is the full class analysis for one subject. NoData is
// set instead of an error when the subject has no graded scores.
type ClassPerformance struct {
	NoData             bool                 `json:"no_data,omitempty"`
	Statistics         ClassStatistics      `json:"statistics"`
	GradeDistribution  GradeDistribution    `json:"grade_distribution"`
	StudentPerformance []StudentPerformance `json:"student_performance"`
	AtRiskStudents     []StudentPerformance `json:"at_risk_students"`
	Insights           []string             `json:"performance_insights"`
}

// AttendanceAnalysis reports attendance patterns for a student, a subject,
// or both. NoData is set when no records match the filter.
type AttendanceAnalysis struct {
	NoData            bool               `json:"no_data,omitempty"`
	OverallRate       float64            `json:"overall_attendance_rate"`
	TotalRecords      int                `json:"total_records"`
	PresentDays       int                `json:"present_days"`
	AbsentDays        int                `json:"absent_days"`
	DayPatterns       map[string]float64 `json:"day_patterns"`
	MonthlyTrends     map[string]float64 `json:"monthly_trends"`
	SubjectAttendance map[string]float64 `json:"subject_attendance,omitempty"`
	Insights          []string           `json:"insights"`
}

// AttendanceAnalyticsFilter scopes pattern analysis.
type AttendanceAnalyticsFilter struct {
	StudentID string
	SubjectID string
}
