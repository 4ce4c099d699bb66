package models

import "time"

// Weekday names accepted for schedule slots, in display order.
var ScheduleDays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// SchedulePeriods is the number of teaching periods per day.
const SchedulePeriods = 8

// ScheduleSlot places a subject at a (day, period). Uniqueness per teacher
// and (day, period) is checked at insert time, not via a constraint.
type ScheduleSlot struct {
	ID          string    `db:"id" json:"id"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	SubjectName string    `db:"subject_name" json:"subject_name,omitempty"`
	Day         string    `db:"day" json:"day"`
	Period      int       `db:"period" json:"period"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
